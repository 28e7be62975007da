package therapy

import (
	"strings"
	"testing"
)

type keywordRisk string

func (k keywordRisk) IsHighRisk(text string) bool {
	return strings.Contains(strings.ToLower(text), string(k))
}

func TestResponder_Classify(t *testing.T) {
	r := NewResponder(keywordRisk("want to die"))
	cases := map[string]Topic{
		"I want to die":                       TopicCrisis,
		"I'm anxious and I want to die":       TopicCrisis,
		"I feel so anxious and sad":           TopicAnxiety,
		"Feeling sad and tired":               TopicSadness,
		"I can't sleep at all":                TopicSleep,
		"I'm so angry with my boss":           TopicAnger,
		"I'm grateful for my family":          TopicGratitude,
		"Hello!":                              TopicGreeting,
		"Good morning":                        TopicGreeting,
		"This is my first time using the app": TopicFallback,
	}
	for msg, want := range cases {
		if got := r.Classify(msg); got != want {
			t.Errorf("Classify(%q) = %s, want %s", msg, got, want)
		}
	}
}

func TestResponder_WordBoundaries(t *testing.T) {
	r := NewResponder(nil)
	// "this" and "which" contain "hi" but are not greetings.
	if got := r.Classify("which of this works"); got != TopicFallback {
		t.Errorf("expected fallback, got %s", got)
	}
}

func TestResponder_RotatesByHistory(t *testing.T) {
	r := NewResponder(nil)
	first, _ := r.Respond("I feel anxious", nil)
	again, _ := r.Respond("I feel anxious", nil)
	if first != again {
		t.Error("expected deterministic reply for the same history")
	}
	next, topic := r.Respond("I feel anxious", []*ChatMessage{{}})
	if topic != TopicAnxiety {
		t.Fatalf("expected anxiety topic, got %s", topic)
	}
	if next == first {
		t.Error("expected a different reply after one more message")
	}
}

func TestResponder_CrisisReplyMentionsHelplines(t *testing.T) {
	r := NewResponder(keywordRisk("suicide"))
	reply, topic := r.Respond("thinking about suicide", nil)
	if topic != TopicCrisis {
		t.Fatalf("expected crisis, got %s", topic)
	}
	if !strings.Contains(reply, "116 123") {
		t.Errorf("expected helpline in reply, got %q", reply)
	}
}
