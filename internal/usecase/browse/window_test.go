package browse

import (
	"fmt"
	"testing"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

func rankedList(n int) []domain.Work {
	works := make([]domain.Work, n)
	for i := range works {
		works[i] = domain.Work{ID: fmt.Sprintf("w%d", i)}
	}
	return works
}

func TestWindow_VisibleIsBoundedPrefix(t *testing.T) {
	ranked := rankedList(50)
	w := NewWindow(20)

	got := w.Visible(ranked)
	if len(got) != 20 {
		t.Fatalf("expected 20 visible, got %d", len(got))
	}
	if !w.HasMore(ranked) {
		t.Fatal("expected hasMore with 50 ranked and 20 visible")
	}
}

func TestWindow_ShortListShowsEverything(t *testing.T) {
	ranked := rankedList(5)
	w := NewWindow(20)

	if got := w.Visible(ranked); len(got) != 5 {
		t.Fatalf("expected all 5 visible, got %d", len(got))
	}
	if w.HasMore(ranked) {
		t.Fatal("hasMore must be false when the window covers the list")
	}
}

func TestWindow_MonotonePrefixExtension(t *testing.T) {
	ranked := rankedList(50)
	w := NewWindow(10)

	before := w.Visible(ranked)
	w.LoadMore(10)
	after := w.Visible(ranked)

	if len(after) != 20 {
		t.Fatalf("expected 20 after load-more, got %d", len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("earlier window is not a prefix of the later one at %d", i)
		}
	}
}

func TestWindow_LoadMorePastEndIsNoop(t *testing.T) {
	ranked := rankedList(5)
	w := NewWindow(20)

	w.LoadMore(20)
	if got := w.Visible(ranked); len(got) != 5 {
		t.Fatalf("expected 5 visible, got %d", len(got))
	}
	if w.HasMore(ranked) {
		t.Fatal("hasMore must stay false past the end")
	}
}

func TestWindow_ResetRestoresInitialSize(t *testing.T) {
	w := NewWindow(20)
	w.LoadMore(40)
	if w.DisplayCount() != 60 {
		t.Fatalf("expected 60, got %d", w.DisplayCount())
	}
	w.Reset()
	if w.DisplayCount() != 20 {
		t.Fatalf("reset must restore the initial size, got %d", w.DisplayCount())
	}
}
