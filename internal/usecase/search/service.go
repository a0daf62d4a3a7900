// Package search implements the fuzzy match engine and the ranking/result
// assembler: one ranked sequence per (query, tag) pair, computed over the
// immutable catalog.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/popopopopo1155/manga-reach/internal/domain"
	"github.com/popopopopo1155/manga-reach/internal/metrics"
)

// Service assembles ranked results from the catalog. It is pure and
// deterministic: identical inputs always yield identical ordering.
type Service struct {
	catalog    CatalogReader
	matcher    *Matcher
	quickLimit int
}

// New creates a search service. quickLimit caps the non-windowed Quick flow;
// 0 disables the cap.
func New(catalog CatalogReader, matcher *Matcher, quickLimit int) *Service {
	return &Service{catalog: catalog, matcher: matcher, quickLimit: quickLimit}
}

// Rank returns the full ranked sequence for the active filter:
// a set tag filters by exact tag membership ordered by rating descending;
// otherwise a non-empty query delegates to the fuzzy matcher; otherwise the
// catalog order is returned unchanged. Ties are stable (catalog order).
func (s *Service) Rank(query, tag string) []domain.Work {
	start := time.Now()
	mode := "none"
	defer func() {
		metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		metrics.SearchTotal.WithLabelValues(mode).Inc()
	}()

	if tag != "" {
		mode = "tag"
		return s.rankByTag(tag)
	}

	if q := strings.TrimSpace(query); q != "" {
		mode = "query"
		scored := s.matcher.Match(s.catalog.All(), q)
		works := make([]domain.Work, len(scored))
		for i, m := range scored {
			works[i] = m.Work
		}
		return works
	}

	return s.catalog.All()
}

// Quick returns the ranked sequence truncated to the quick-result cap. This
// is the minimal flow (type-ahead panels); the windowed flow paginates the
// full Rank output instead.
func (s *Service) Quick(query, tag string) []domain.Work {
	works := s.Rank(query, tag)
	if s.quickLimit > 0 && len(works) > s.quickLimit {
		works = works[:s.quickLimit]
	}
	return works
}

func (s *Service) rankByTag(tag string) []domain.Work {
	var works []domain.Work
	for _, w := range s.catalog.All() {
		if w.HasTag(tag) {
			works = append(works, w)
		}
	}
	sort.SliceStable(works, func(i, j int) bool {
		return works[i].Rating > works[j].Rating
	})
	return works
}
