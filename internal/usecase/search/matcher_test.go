package search

import (
	"testing"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

func testWorks() []domain.Work {
	return []domain.Work{
		{ID: "1", Title: "Pirate King", Author: "A", Tags: []string{"action"}, Rating: 4.8},
		{ID: "2", Title: "Pirate Queen", Author: "B", Tags: []string{"action", "drama"}, Rating: 4.2},
		{ID: "3", Title: "Giant Slayer", Author: "A", Description: "A tale of giants", Tags: []string{"fantasy"}, Rating: 4.5},
		{ID: "4", Title: "Quiet Town", Author: "C", Tags: []string{"", "slice of life"}, Rating: 3.9},
	}
}

func TestMatch_ExactSubstringBothPirates(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	got := m.Match(testWorks(), "pirat")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	// Equal-score title hits keep catalog order.
	if got[0].Work.ID != "1" || got[1].Work.ID != "2" {
		t.Fatalf("expected order [1 2], got [%s %s]", got[0].Work.ID, got[1].Work.ID)
	}
	if got[0].Score != got[1].Score {
		t.Fatalf("expected equal scores for identical exact hits, got %g vs %g", got[0].Score, got[1].Score)
	}
}

func TestMatch_NoMatchIsEmptyNotError(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	if got := m.Match(testWorks(), "zzz999"); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestMatch_ApproximateWithinThreshold(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	// Transposed "pirate": two edits over six runes = 0.333, inside 0.35.
	got := m.Match(testWorks(), "priate")
	if len(got) != 2 {
		t.Fatalf("expected the two pirate titles, got %d matches", len(got))
	}
}

func TestMatch_ExactBeatsApproximateInSameField(t *testing.T) {
	works := []domain.Work{
		{ID: "1", Title: "girant"},
		{ID: "2", Title: "giant"},
	}
	m := NewMatcher(DefaultMatcherConfig())

	got := m.Match(works, "giant")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Work.ID != "2" {
		t.Fatalf("exact title hit should rank first, got %s", got[0].Work.ID)
	}
	if got[0].Score >= got[1].Score {
		t.Fatalf("exact hit must score strictly better: %g vs %g", got[0].Score, got[1].Score)
	}
}

func TestMatch_TitleOutranksAuthorForSameText(t *testing.T) {
	works := []domain.Work{
		{ID: "byauthor", Title: "Something Else", Author: "oda"},
		{ID: "bytitle", Title: "oda"},
	}
	m := NewMatcher(DefaultMatcherConfig())

	got := m.Match(works, "oda")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Work.ID != "bytitle" {
		t.Fatalf("title-weighted hit should rank first, got %s", got[0].Work.ID)
	}
}

func TestMatch_TagsComparedElementWise(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	got := m.Match(testWorks(), "drama")
	if len(got) != 1 || got[0].Work.ID != "2" {
		t.Fatalf("expected only work 2 via its drama tag, got %+v", got)
	}
}

func TestMatch_EmptyTagsTolerated(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	// Work 4 carries an empty tag; matching must not panic and the empty
	// tag must never match anything.
	got := m.Match(testWorks(), "slice of life")
	if len(got) != 1 || got[0].Work.ID != "4" {
		t.Fatalf("expected work 4 via tag, got %+v", got)
	}
}

func TestMatch_ZeroThresholdIsExactOnly(t *testing.T) {
	cfg := DefaultMatcherConfig()
	cfg.Threshold = 0
	m := NewMatcher(cfg)

	if got := m.Match(testWorks(), "priate"); len(got) != 0 {
		t.Fatalf("threshold 0 must reject approximate matches, got %d", len(got))
	}
	if got := m.Match(testWorks(), "pirate"); len(got) != 2 {
		t.Fatalf("threshold 0 must keep exact matches, got %d", len(got))
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	got := m.Match(testWorks(), "PIRATE KING")
	if len(got) == 0 || got[0].Work.ID != "1" {
		t.Fatalf("expected case-insensitive title hit, got %+v", got)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())
	works := testWorks()

	first := m.Match(works, "a")
	for i := 0; i < 5; i++ {
		again := m.Match(works, "a")
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed: %d vs %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j].Work.ID != first[j].Work.ID || again[j].Score != first[j].Score {
				t.Fatalf("run %d: ordering changed at %d", i, j)
			}
		}
	}
}

func TestMatch_DisplacementRejectsWhenLocationEnforced(t *testing.T) {
	cfg := DefaultMatcherConfig()
	cfg.IgnoreLocation = false
	cfg.Distance = 3
	m := NewMatcher(cfg)

	works := []domain.Work{
		{ID: "far", Title: "aaaaaaaaaaaaaaaaaaaa pirate"},
		{ID: "near", Title: "pirate kingdom"},
	}

	got := m.Match(works, "pirate")
	if len(got) != 1 || got[0].Work.ID != "near" {
		t.Fatalf("expected only the near hit with displacement enforced, got %+v", got)
	}
}

func TestBestFragmentDistance(t *testing.T) {
	tests := []struct {
		q, t string
		want int
	}{
		{"abc", "xxabcxx", 0},
		{"abc", "xxadcxx", 1},
		{"abc", "", 3},
		{"abc", "zzzzzz", 3},
		{"kitten", "a sitting cat", 2}, // best fragment "sittin"
	}
	for _, tc := range tests {
		got, _ := bestFragmentDistance([]rune(tc.q), []rune(tc.t))
		if got != tc.want {
			t.Errorf("bestFragmentDistance(%q, %q) = %d, want %d", tc.q, tc.t, got, tc.want)
		}
	}
}
