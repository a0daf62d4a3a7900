// Package curate builds the fixed front-page sections (trending, hall of
// fame, featured tag). These are presentation curation over the same ranking
// primitives as search, recomputed never: the catalog is immutable, so the
// sections are materialized once.
package curate

import (
	"sort"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

// Config tunes the section shapes.
type Config struct {
	// TrendingOffset/TrendingSize slice a mid-catalog band of recently
	// active works.
	TrendingOffset int
	TrendingSize   int
	// HallOfFameSize caps the top-rated section.
	HallOfFameSize int
	// FeaturedTag names the tag-filtered section; FeaturedSize caps it.
	FeaturedTag  string
	FeaturedSize int
}

// DefaultConfig returns the deployed section shapes.
func DefaultConfig() Config {
	return Config{
		TrendingOffset: 20,
		TrendingSize:   8,
		HallOfFameSize: 8,
		FeaturedTag:    "ファンタジー",
		FeaturedSize:   8,
	}
}

// Sections holds the curated front-page groups.
type Sections struct {
	Trending   []domain.Work
	HallOfFame []domain.Work
	Featured   []domain.Work
}

// CatalogReader is the read-only catalog view sections are cut from.
type CatalogReader interface {
	All() []domain.Work
}

// Service serves the memoized sections.
type Service struct {
	sections Sections
	tag      string
}

// New materializes the sections once from the loaded catalog.
func New(catalog CatalogReader, cfg Config) *Service {
	works := catalog.All()

	trending := sliceBand(works, cfg.TrendingOffset, cfg.TrendingSize)

	byRating := make([]domain.Work, len(works))
	copy(byRating, works)
	sort.SliceStable(byRating, func(i, j int) bool {
		return byRating[i].Rating > byRating[j].Rating
	})
	hall := sliceBand(byRating, 0, cfg.HallOfFameSize)

	var featured []domain.Work
	for _, w := range works {
		if w.HasTag(cfg.FeaturedTag) {
			featured = append(featured, w)
			if len(featured) == cfg.FeaturedSize {
				break
			}
		}
	}

	return &Service{
		sections: Sections{Trending: trending, HallOfFame: hall, Featured: featured},
		tag:      cfg.FeaturedTag,
	}
}

// Sections returns the curated groups.
func (s *Service) Sections() Sections {
	return s.sections
}

// FeaturedTag returns the tag backing the featured section.
func (s *Service) FeaturedTag() string {
	return s.tag
}

func sliceBand(works []domain.Work, offset, size int) []domain.Work {
	if offset >= len(works) || size <= 0 {
		return nil
	}
	end := offset + size
	if end > len(works) {
		end = len(works)
	}
	out := make([]domain.Work, end-offset)
	copy(out, works[offset:end])
	return out
}
