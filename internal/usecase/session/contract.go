package session

import "context"

// Repository persists the three user-state values. Absent values come back
// empty, not as errors; failures wrap domain.ErrPersistence.
type Repository interface {
	Favorites(ctx context.Context, userID string) ([]string, error)
	SaveFavorites(ctx context.Context, userID string, ids []string) error
	History(ctx context.Context, userID string) ([]string, error)
	SaveHistory(ctx context.Context, userID string, ids []string) error
	ExperimentGroup(ctx context.Context, userID string) (string, error)
	SaveExperimentGroup(ctx context.Context, userID, label string) error
}
