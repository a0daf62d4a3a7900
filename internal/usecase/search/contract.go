package search

import "github.com/popopopopo1155/manga-reach/internal/domain"

// CatalogReader is the read-only catalog view the assembler ranks over.
type CatalogReader interface {
	All() []domain.Work
	GetByID(id string) (domain.Work, error)
	Len() int
}
