package therapy

import (
	"strings"
	"unicode"
)

// Topic is the keyword group a message was matched to.
type Topic string

const (
	TopicCrisis    Topic = "crisis"
	TopicAnxiety   Topic = "anxiety"
	TopicSadness   Topic = "sadness"
	TopicSleep     Topic = "sleep"
	TopicAnger     Topic = "anger"
	TopicGratitude Topic = "gratitude"
	TopicGreeting  Topic = "greeting"
	TopicFallback  Topic = "fallback"
)

// RiskDetector flags crisis language.
type RiskDetector interface {
	IsHighRisk(text string) bool
}

type keywordGroup struct {
	topic    Topic
	keywords []string
	replies  []string
}

// groups are checked in order; the first match wins.
var groups = []keywordGroup{
	{
		topic:    TopicAnxiety,
		keywords: []string{"anxious", "anxiety", "panic", "panicking", "worried", "worry", "worrying", "nervous", "overwhelmed", "stressed", "stress"},
		replies: []string{
			"It sounds like you're carrying a lot of worry right now. Let's slow down together: try breathing in for four counts, holding for four, and out for six.",
			"Anxiety can make everything feel urgent. What is one thing that feels most pressing at the moment?",
			"When you notice the anxious feelings, where do you feel them in your body? Naming them can make them a little easier to hold.",
		},
	},
	{
		topic:    TopicSadness,
		keywords: []string{"sad", "depressed", "depression", "down", "lonely", "alone", "hopeless", "empty", "crying", "cry", "miserable"},
		replies: []string{
			"I'm sorry you're feeling this way. It takes courage to share it. What has been weighing on you most?",
			"Feeling low can be exhausting. Is there someone you trust that you've been able to talk to about this?",
			"Thank you for telling me. Sometimes small steps help, like a short walk or reaching out to a friend. What feels manageable today?",
		},
	},
	{
		topic:    TopicSleep,
		keywords: []string{"sleep", "sleeping", "insomnia", "tired", "exhausted", "awake", "nightmare", "nightmares", "restless"},
		replies: []string{
			"Sleep troubles can affect everything else. Have you noticed anything that makes it harder to wind down at night?",
			"A regular bedtime routine and less screen time before bed can help. What does your evening usually look like?",
			"Being this tired is hard. Would it help to talk about what's on your mind when you're trying to sleep?",
		},
	},
	{
		topic:    TopicAnger,
		keywords: []string{"angry", "anger", "furious", "mad", "frustrated", "frustrating", "irritated", "annoyed", "rage"},
		replies: []string{
			"It's understandable to feel angry. What happened that brought this feeling up?",
			"Anger often points to something that matters to us. What do you think this feeling is trying to tell you?",
			"When anger builds, stepping away for a few minutes can help. What usually helps you cool down?",
		},
	},
	{
		topic:    TopicGratitude,
		keywords: []string{"grateful", "thankful", "thank you", "thanks", "appreciate", "blessed"},
		replies: []string{
			"That's lovely to hear. Noticing what we're grateful for can really lift our mood. What made you feel this way?",
			"Thank you for sharing something positive. Would you like to add it to your gratitude journal?",
		},
	},
	{
		topic:    TopicGreeting,
		keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
		replies: []string{
			"Hello, it's good to hear from you. How are you feeling today?",
			"Hi there. What's on your mind today?",
		},
	},
}

var crisisReplies = []string{
	"I'm really concerned about what you've shared, and I want you to be safe. Please contact emergency services on 999 or Samaritans on 116 123 right now.",
	"You don't have to go through this alone. Please reach out to Samaritans on 116 123 or text SHOUT to 85258. If you are in immediate danger, call 999.",
}

var fallbackReplies = []string{
	"Thank you for sharing that with me. Can you tell me a bit more about how it's affecting you?",
	"I'm here to listen. How long have you been feeling this way?",
	"That sounds important. What would feel most helpful to talk about right now?",
}

// Responder produces rule-based replies. The same message and history always
// yield the same reply.
type Responder struct {
	risk RiskDetector
}

func NewResponder(risk RiskDetector) *Responder {
	return &Responder{risk: risk}
}

// Classify returns the topic of message.
func (r *Responder) Classify(message string) Topic {
	if r.risk != nil && r.risk.IsHighRisk(message) {
		return TopicCrisis
	}
	words, normalized := tokenize(message)
	for _, g := range groups {
		if matchesAny(words, normalized, g.keywords) {
			return g.topic
		}
	}
	return TopicFallback
}

// Respond returns a reply to message. Replies within a group rotate with the
// number of prior messages in the session.
func (r *Responder) Respond(message string, history []*ChatMessage) (string, Topic) {
	topic := r.Classify(message)
	replies := fallbackReplies
	switch topic {
	case TopicCrisis:
		replies = crisisReplies
	case TopicFallback:
	default:
		for _, g := range groups {
			if g.topic == topic {
				replies = g.replies
				break
			}
		}
	}
	return replies[len(history)%len(replies)], topic
}

// tokenize returns the set of lowercase words in s and s normalized to
// single-spaced lowercase words for phrase matching.
func tokenize(s string) (map[string]bool, string) {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := make(map[string]bool, len(fields))
	for _, f := range fields {
		words[f] = true
	}
	return words, " " + strings.Join(fields, " ") + " "
}

func matchesAny(words map[string]bool, normalized string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(k, " ") {
			if strings.Contains(normalized, " "+k+" ") {
				return true
			}
			continue
		}
		if words[k] {
			return true
		}
	}
	return false
}
