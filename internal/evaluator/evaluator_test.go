package evaluator

import "testing"

func TestAttemptCreditsNonBlank(t *testing.T) {
	var e Attempt
	if score, _ := e.Evaluate("anything", "my answer"); score != 100 {
		t.Fatalf("expected 100, got %v", score)
	}
	for _, blank := range []string{"", "   ", "\n\t"} {
		if score, fb := e.Evaluate("anything", blank); score != 0 || fb == "" {
			t.Fatalf("blank %q: expected 0 with feedback, got %v %q", blank, score, fb)
		}
	}
}

func TestTextMatchGrades(t *testing.T) {
	e := TextMatch{MaxEditDistance: 1}

	cases := []struct {
		name      string
		expected  string
		submitted string
		score     float64
	}{
		{"exact ignoring case and punctuation", "Namaste, ji!", "namaste ji", 100},
		{"fuzzy", "namaste", "namastey", 50},
		{"keywords", "wash hands before cooking", "always wash your hands", 50},
		{"blank", "namaste", "  ", 0},
		{"nothing matches", "red apple", "blue car", 0},
		{"short answers need an exact match", "10", "20", 0},
		{"short word off by one", "yes", "no", 0},
		{"keyword coverage beats close match", "wash your hands", "wash your hand", 200.0 / 3},
		{"close match without keywords", "dhanyavaad", "dhanyavad", 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, feedback := e.Evaluate(tc.expected, tc.submitted)
			if score != tc.score {
				t.Fatalf("expected %v, got %v (%s)", tc.score, score, feedback)
			}
			if feedback == "" {
				t.Fatalf("expected feedback")
			}
		})
	}
}

func TestTextMatchIsDeterministic(t *testing.T) {
	e := TextMatch{MaxEditDistance: 2}
	s1, f1 := e.Evaluate("the quick brown fox", "quick fox")
	s2, f2 := e.Evaluate("the quick brown fox", "quick fox")
	if s1 != s2 || f1 != f2 {
		t.Fatalf("evaluation not deterministic: %v/%q vs %v/%q", s1, f1, s2, f2)
	}
}

func TestNewByName(t *testing.T) {
	e, err := New("textmatch", WithMaxEditDistance(3))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tm, ok := e.(TextMatch); !ok || tm.MaxEditDistance != 3 {
		t.Fatalf("expected TextMatch with distance 3, got %#v", e)
	}
	if e, _ := New(""); e == nil {
		t.Fatalf("expected default evaluator")
	}
	if _, err := New("llm"); err == nil {
		t.Fatalf("expected error for unknown evaluator")
	}
}
