package issuecorrelation

import "testing"

func TestCorrelator_InstanceHashMatch(t *testing.T) {
	known := []Finding{{RuleID: "DDOS", Path: "./a.js", StartLine: 3, EndLine: 3, InstanceHash: "h1"}}
	current := []Finding{{RuleID: "DDOS", Path: "./a.js", StartLine: 3, EndLine: 3, InstanceHash: "h1"}}

	c := NewCorrelator(current, known)
	c.Process()

	matches := c.Matches()
	if len(matches) != 1 {
		t.Fatalf("expected 1 match got %d", len(matches))
	}
	if len(matches[0].Current) != 1 {
		t.Fatalf("expected 1 current in match got %d", len(matches[0].Current))
	}
	if got := len(c.UnmatchedCurrent()); got != 0 {
		t.Fatalf("expected 0 unmatched current, got %d", got)
	}
	if got := len(c.UnmatchedKnown()); got != 0 {
		t.Fatalf("expected 0 unmatched known, got %d", got)
	}
}

func TestCorrelator_HashSurvivesLineDrift(t *testing.T) {
	// identical span moved down by ten lines -> stage 2
	known := []Finding{{RuleID: "XSS", Path: "./v.js", StartLine: 10, EndLine: 12, InstanceHash: "sh5"}}
	current := []Finding{{RuleID: "XSS", Path: "./v.js", StartLine: 20, EndLine: 22, InstanceHash: "sh5"}}

	c := NewCorrelator(current, known)
	if len(c.Matches()) != 1 {
		t.Fatalf("expected match by instance hash despite line drift")
	}
}

func TestCorrelator_LineAndRuleMatch(t *testing.T) {
	known := []Finding{{RuleID: "CSRF", Path: "./f.js", StartLine: 10, EndLine: 12, InstanceHash: "old"}}
	current := []Finding{{RuleID: "CSRF", Path: "./f.js", StartLine: 10, EndLine: 12, InstanceHash: "new"}}

	c := NewCorrelator(current, known)
	c.Process()
	if len(c.Matches()) != 1 {
		t.Fatalf("expected match by lines/rule")
	}
}

func TestCorrelator_StartLineFallback(t *testing.T) {
	known := []Finding{{RuleID: "CSRF", Path: "./f.js", StartLine: 10, EndLine: 11}}
	current := []Finding{{RuleID: "CSRF", Path: "./f.js", StartLine: 10, EndLine: 14}}

	c := NewCorrelator(current, known)
	if len(c.Matches()) != 1 {
		t.Fatalf("expected match by start line")
	}
}

func TestCorrelator_Unmatched(t *testing.T) {
	known := []Finding{{RuleID: "DDOS", Path: "./x.js", StartLine: 1}}
	current := []Finding{{RuleID: "XSS", Path: "./y.js", StartLine: 2}}

	c := NewCorrelator(current, known)
	c.Process()

	if len(c.UnmatchedCurrent()) != 1 {
		t.Fatalf("expected 1 unmatched current")
	}
	if len(c.UnmatchedKnown()) != 1 {
		t.Fatalf("expected 1 unmatched known")
	}
	if len(c.Matches()) != 0 {
		t.Fatalf("expected 0 matches")
	}
}

func TestCorrelator_EmptyRuleNeverMatches(t *testing.T) {
	known := []Finding{{Path: "./x.js", StartLine: 1, InstanceHash: "h"}}
	current := []Finding{{Path: "./x.js", StartLine: 1, InstanceHash: "h"}}

	c := NewCorrelator(current, known)
	if len(c.Matches()) != 0 {
		t.Fatalf("expected no match without rule id")
	}
}

func TestCorrelator_Summarize(t *testing.T) {
	known := []Finding{
		{RuleID: "DDOS", Path: "./a.js", StartLine: 3, EndLine: 3, InstanceHash: "h1"},
		{RuleID: "XSS", Path: "./b.js", StartLine: 7, EndLine: 7, InstanceHash: "h2"},
	}
	current := []Finding{
		{RuleID: "DDOS", Path: "./a.js", StartLine: 3, EndLine: 3, InstanceHash: "h1"},
		{RuleID: "CODE_EXECUTION", Path: "./c.js", StartLine: 1, EndLine: 1, InstanceHash: "h3"},
	}

	s := NewCorrelator(current, known).Summarize()
	if s.New != 1 || s.Known != 1 || s.Resolved != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(s.NewHashes) != 1 || s.NewHashes[0] != "h3" {
		t.Fatalf("unexpected new hashes %v", s.NewHashes)
	}
}
