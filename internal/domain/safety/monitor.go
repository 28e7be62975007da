package safety

import (
	"strings"
)

// CrisisResource is a support line shown to users flagged as high risk.
type CrisisResource struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
}

// CrisisResources is returned with every high-risk check result.
var CrisisResources = []CrisisResource{
	{Name: "Emergency Services", Contact: "999", Description: "If you are in immediate danger, call emergency services."},
	{Name: "Samaritans", Contact: "116 123", Description: "Free, confidential support 24 hours a day, every day."},
	{Name: "SHOUT", Contact: "Text SHOUT to 85258", Description: "Free 24/7 text support for anyone in crisis."},
	{Name: "NHS 111", Contact: "111 (option 2)", Description: "Urgent mental health support from the NHS."},
}

var defaultCrisisPhrases = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"end it all",
	"want to die",
	"wanna die",
	"better off dead",
	"no reason to live",
	"self harm",
	"self-harm",
	"hurt myself",
	"cut myself",
	"overdose",
	"take my own life",
}

// Monitor flags text that contains crisis language.
type Monitor struct {
	phrases []string
}

func NewMonitor() *Monitor {
	return NewMonitorWithPhrases(defaultCrisisPhrases)
}

// NewMonitorWithPhrases builds a monitor over a custom phrase list. Phrases
// are matched case-insensitively as substrings.
func NewMonitorWithPhrases(phrases []string) *Monitor {
	m := &Monitor{phrases: make([]string, 0, len(phrases))}
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			m.phrases = append(m.phrases, p)
		}
	}
	return m
}

// IsHighRisk reports whether text contains any crisis phrase.
func (m *Monitor) IsHighRisk(text string) bool {
	lower := normalize(text)
	for _, p := range m.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// normalize lowercases text and collapses runs of whitespace so phrases
// split across line breaks still match.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
