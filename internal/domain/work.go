package domain

// Work is one catalog entry: a manga series with its searchable text fields
// and display metadata. Works are immutable after the catalog is loaded.
type Work struct {
	ID          string
	Title       string
	Author      string
	Description string
	Tags        []string
	Rating      float64
	Cover       string
	IsReal      bool
}

// HasTag reports whether the work carries the exact tag.
func (w Work) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SharedTagCount counts distinct tags the work shares with other.
// Duplicate tags in either list count once.
func (w Work) SharedTagCount(other Work) int {
	if len(w.Tags) == 0 || len(other.Tags) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(other.Tags))
	for _, t := range other.Tags {
		if t != "" {
			seen[t] = struct{}{}
		}
	}
	count := 0
	for _, t := range w.Tags {
		if _, ok := seen[t]; ok {
			count++
			delete(seen, t)
		}
	}
	return count
}

// ScoredMatch pairs a work with its relevance score. Lower score means a
// better match; ordering among equal scores follows catalog order.
type ScoredMatch struct {
	Work  Work
	Score float64
}
