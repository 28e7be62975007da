package safety

import "testing"

func TestMonitor_IsHighRisk(t *testing.T) {
	m := NewMonitor()
	cases := map[string]bool{
		"I want to die":                           true,
		"Sometimes I think about SUICIDE":         true,
		"I might\nkill   myself tonight":          true,
		"thinking about self-harm again":          true,
		"I had a good day at work":                false,
		"this meeting is killing me with boredom": false,
		"": false,
	}
	for text, want := range cases {
		if got := m.IsHighRisk(text); got != want {
			t.Errorf("IsHighRisk(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestMonitor_CustomPhrases(t *testing.T) {
	m := NewMonitorWithPhrases([]string{"  Red Flag ", ""})
	if !m.IsHighRisk("this is a red flag") {
		t.Error("expected custom phrase to match")
	}
	if m.IsHighRisk("I want to die") {
		t.Error("expected default phrases to be replaced")
	}
}

func TestTruncateTrigger(t *testing.T) {
	long := make([]rune, maxTriggerLength+50)
	for i := range long {
		long[i] = 'é'
	}
	got := truncateTrigger(string(long))
	if n := len([]rune(got)); n != maxTriggerLength {
		t.Errorf("expected %d runes, got %d", maxTriggerLength, n)
	}
	if truncateTrigger("short") != "short" {
		t.Error("short trigger must be kept")
	}
}

func TestRiskRank(t *testing.T) {
	if !(RiskRank(RiskCritical) > RiskRank(RiskHigh) && RiskRank(RiskHigh) > RiskRank(RiskModerate) && RiskRank(RiskModerate) > RiskRank(RiskLow)) {
		t.Error("risk levels out of order")
	}
	if RiskRank("unknown") != 0 {
		t.Error("unknown level must rank 0")
	}
}
