// Package catalog loads and holds the immutable work collection. The catalog
// is read once at startup and never mutated; every other component queries it.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

// Catalog is the loaded work collection with an id index for O(1) lookup.
type Catalog struct {
	works []domain.Work
	byID  map[string]int
}

// Load reads the catalog from a JSON file. A missing or malformed source is
// fatal (wraps domain.ErrDataLoad): no partial catalog is served. Individual
// records are tolerated leniently — absent optional text fields become empty
// strings, a record without a usable id is skipped — but a duplicate id
// breaks the uniqueness invariant and fails the whole load.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrDataLoad, path, err)
	}

	var records []workRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrDataLoad, path, err)
	}

	c := &Catalog{
		works: make([]domain.Work, 0, len(records)),
		byID:  make(map[string]int, len(records)),
	}

	skipped := 0
	for _, r := range records {
		id := parseID(r.ID)
		if id == "" {
			// Unaddressable record: nothing downstream can reference it.
			skipped++
			continue
		}
		if _, exists := c.byID[id]; exists {
			return nil, fmt.Errorf("%w: duplicate id %q in %s", domain.ErrDataLoad, id, path)
		}
		c.byID[id] = len(c.works)
		c.works = append(c.works, r.toDomain(id))
	}

	if logger != nil {
		logger.Info("Catalog loaded",
			zap.String("path", path),
			zap.Int("works", len(c.works)),
			zap.Int("skipped", skipped),
		)
	}

	return c, nil
}

// FromWorks builds a catalog from an in-memory slice (tests, fixtures).
// Duplicate ids fail as in Load.
func FromWorks(works []domain.Work) (*Catalog, error) {
	c := &Catalog{
		works: make([]domain.Work, 0, len(works)),
		byID:  make(map[string]int, len(works)),
	}
	for _, w := range works {
		if w.ID == "" {
			continue
		}
		if _, exists := c.byID[w.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrDataLoad, w.ID)
		}
		c.byID[w.ID] = len(c.works)
		c.works = append(c.works, w)
	}
	return c, nil
}

// GetByID returns the work for id, or domain.ErrWorkNotFound.
func (c *Catalog) GetByID(id string) (domain.Work, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Work{}, fmt.Errorf("%w: %q", domain.ErrWorkNotFound, id)
	}
	return c.works[i], nil
}

// All returns the works in catalog order. The slice is shared: callers must
// treat it as read-only.
func (c *Catalog) All() []domain.Work {
	return c.works
}

// Len returns the number of works in the catalog.
func (c *Catalog) Len() int {
	return len(c.works)
}
