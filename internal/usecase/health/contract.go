package health

import "context"

// StorePinger checks key-value store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker reports the loaded catalog size.
type CatalogChecker interface {
	Len() int
}
