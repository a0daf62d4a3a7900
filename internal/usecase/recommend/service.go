// Package recommend implements the content-based related-item scorer: a
// fixed-size ranked neighbor list for a reference work, computed from shared
// author, shared tags, and rating alone.
package recommend

import (
	"sort"

	"github.com/popopopopo1155/manga-reach/internal/domain"
	"github.com/popopopopo1155/manga-reach/internal/metrics"
)

// Config tunes the neighbor scoring.
type Config struct {
	// MaxRelated caps the neighbor list.
	MaxRelated int
	// AuthorWeight is added once when the candidate shares the reference's
	// author (empty authors never count as shared).
	AuthorWeight float64
	// TagWeight is added per distinct shared tag.
	TagWeight float64
	// RatingWeight scales the candidate's own rating.
	RatingWeight float64
}

// DefaultConfig returns the deployed scoring weights.
func DefaultConfig() Config {
	return Config{
		MaxRelated:   6,
		AuthorWeight: 10,
		TagWeight:    3,
		RatingWeight: 0.5,
	}
}

// CatalogReader is the read-only catalog view candidates are drawn from.
type CatalogReader interface {
	All() []domain.Work
	GetByID(id string) (domain.Work, error)
}

// Service computes related-item lists. Pure function of the catalog and the
// reference work; deterministic for fixed inputs.
type Service struct {
	catalog CatalogReader
	cfg     Config
}

// New creates a recommender.
func New(catalog CatalogReader, cfg Config) *Service {
	return &Service{catalog: catalog, cfg: cfg}
}

// RelatedByID resolves the reference work and returns its neighbors.
func (s *Service) RelatedByID(id string) ([]domain.Work, error) {
	ref, err := s.catalog.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.Related(ref), nil
}

// Related returns up to MaxRelated neighbors of ref, best score first,
// never including ref itself. Ties keep catalog order.
func (s *Service) Related(ref domain.Work) []domain.Work {
	metrics.RelatedTotal.Inc()

	type candidate struct {
		work  domain.Work
		score float64
	}

	candidates := make([]candidate, 0, s.cfg.MaxRelated*4)
	for _, w := range s.catalog.All() {
		if w.ID == ref.ID {
			continue
		}
		candidates = append(candidates, candidate{work: w, score: s.score(ref, w)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	n := len(candidates)
	if s.cfg.MaxRelated > 0 && n > s.cfg.MaxRelated {
		n = s.cfg.MaxRelated
	}

	related := make([]domain.Work, n)
	for i := 0; i < n; i++ {
		related[i] = candidates[i].work
	}
	return related
}

func (s *Service) score(ref, w domain.Work) float64 {
	score := s.cfg.RatingWeight * w.Rating
	if ref.Author != "" && w.Author == ref.Author {
		score += s.cfg.AuthorWeight
	}
	score += s.cfg.TagWeight * float64(w.SharedTagCount(ref))
	return score
}
