package browse

import (
	"sync"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

// Ranker produces the full ranked sequence for a (query, tag) pair.
type Ranker interface {
	Rank(query, tag string) []domain.Work
}

// View is the pull-based snapshot handed to the presentation layer after
// every query, tag, or load-more event.
type View struct {
	Works   []domain.Work
	HasMore bool
	Total   int
	Query   string
	Tag     string
}

// Controller binds a ranker to a window for one client session. A sequence
// number guards result application: only the most recently issued search may
// publish its ranking, so a slow completion from a stale query can never
// overwrite a newer one. Safe for concurrent use.
type Controller struct {
	ranker    Ranker
	increment int

	mu     sync.Mutex
	win    Window
	seq    uint64
	query  string
	tag    string
	ranked []domain.Work
}

// NewController creates a controller with an empty active search. The
// catalog-order ranking is materialized immediately so Current is never nil.
func NewController(ranker Ranker, initial, increment int) *Controller {
	c := &Controller{
		ranker:    ranker,
		increment: increment,
		win:       NewWindow(initial),
	}
	c.ranked = ranker.Rank("", "")
	return c
}

// SetQuery issues a new free-text search. The window restarts at its initial
// size and any tag filter is cleared.
func (c *Controller) SetQuery(query string) View {
	return c.issue(query, "")
}

// SetTag issues a new tag-filtered search. The window restarts at its
// initial size and any free-text query is cleared.
func (c *Controller) SetTag(tag string) View {
	return c.issue("", tag)
}

// LoadMore grows the window over the current ranking.
func (c *Controller) LoadMore() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win.LoadMore(c.increment)
	return c.viewLocked()
}

// Current returns the visible window without changing any state.
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// issue ranks outside the lock, then applies the result only if no newer
// search was issued meanwhile (last-query-wins).
func (c *Controller) issue(query, tag string) View {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	ranked := c.ranker.Rank(query, tag)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.query = query
		c.tag = tag
		c.ranked = ranked
		c.win.Reset()
	}
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	return View{
		Works:   c.win.Visible(c.ranked),
		HasMore: c.win.HasMore(c.ranked),
		Total:   len(c.ranked),
		Query:   c.query,
		Tag:     c.tag,
	}
}
