// Package session owns the per-user persisted state the ranking and UI
// consume: the favorite set, the bounded recency-ordered history, and the
// experiment group assignment. State is hydrated from the repository on
// first access and flushed write-through on every mutation; a failing store
// degrades to empty in-memory defaults for the session, never to a
// user-visible error.
package session

import (
	"context"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/popopopopo1155/manga-reach/internal/metrics"
)

// Config tunes session state handling.
type Config struct {
	// HistoryMax bounds the history list; older entries are dropped.
	HistoryMax int
	// ExperimentLabels is the fixed label set one of which is assigned to
	// each user, uniformly at random, exactly once.
	ExperimentLabels []string
}

// DefaultConfig returns the deployed limits.
func DefaultConfig() Config {
	return Config{
		HistoryMax:       12,
		ExperimentLabels: []string{"A", "B"},
	}
}

// userState is the hydrated in-memory view of one user's persisted state.
type userState struct {
	favorites map[string]struct{}
	favOrder  []string
	history   []string
	group     string
}

// Service coordinates user state. Safe for concurrent use; per-user
// mutations are serialized by the service mutex.
type Service struct {
	repo   Repository
	cfg    Config
	logger *zap.Logger

	// randInt is injectable for deterministic tests.
	randInt func(n int) int

	mu    sync.Mutex
	users map[string]*userState
}

// New creates a session service.
func New(repo Repository, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = DefaultConfig().HistoryMax
	}
	if len(cfg.ExperimentLabels) == 0 {
		cfg.ExperimentLabels = DefaultConfig().ExperimentLabels
	}
	return &Service{
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		randInt: rand.IntN,
		users:   make(map[string]*userState),
	}
}

// ToggleFavorite flips membership of id in the user's favorite set and
// reports the new membership. Each call flips state; two consecutive calls
// restore the original membership.
func (s *Service) ToggleFavorite(ctx context.Context, userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.FavoriteTogglesTotal.Inc()

	st := s.stateLocked(ctx, userID)
	if _, ok := st.favorites[id]; ok {
		delete(st.favorites, id)
		for i, fid := range st.favOrder {
			if fid == id {
				st.favOrder = append(st.favOrder[:i], st.favOrder[i+1:]...)
				break
			}
		}
	} else {
		st.favorites[id] = struct{}{}
		st.favOrder = append(st.favOrder, id)
	}

	s.flushFavoritesLocked(ctx, userID, st)
	_, nowFavorite := st.favorites[id]
	return nowFavorite
}

// IsFavorite reports membership of id in the user's favorite set.
func (s *Service) IsFavorite(ctx context.Context, userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stateLocked(ctx, userID).favorites[id]
	return ok
}

// Favorites returns the user's favorite ids in insertion order.
func (s *Service) Favorites(ctx context.Context, userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(ctx, userID)
	out := make([]string, len(st.favOrder))
	copy(out, st.favOrder)
	return out
}

// AddToHistory records a view of id: any existing occurrence is removed, the
// id is prepended, and the list is truncated to HistoryMax. Re-visiting an
// item moves it to the front without growing the list.
func (s *Service) AddToHistory(ctx context.Context, userID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(ctx, userID)
	next := make([]string, 0, len(st.history)+1)
	next = append(next, id)
	for _, h := range st.history {
		if h != id {
			next = append(next, h)
		}
	}
	if len(next) > s.cfg.HistoryMax {
		next = next[:s.cfg.HistoryMax]
	}
	st.history = next

	if err := s.repo.SaveHistory(ctx, userID, st.history); err != nil {
		s.logger.Warn("history flush failed", zap.String("user", userID), zap.Error(err))
	}
}

// History returns the user's viewed ids, most recent first.
func (s *Service) History(ctx context.Context, userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(ctx, userID)
	out := make([]string, len(st.history))
	copy(out, st.history)
	return out
}

// Group returns the user's experiment group, assigning and persisting a
// label uniformly at random on first call. An existing assignment is never
// re-rolled.
func (s *Service) Group(ctx context.Context, userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(ctx, userID)
	if st.group != "" {
		return st.group
	}

	st.group = s.cfg.ExperimentLabels[s.randInt(len(s.cfg.ExperimentLabels))]
	if err := s.repo.SaveExperimentGroup(ctx, userID, st.group); err != nil {
		// Keep the in-memory assignment for this session.
		s.logger.Warn("experiment group flush failed", zap.String("user", userID), zap.Error(err))
	}
	return st.group
}

// stateLocked hydrates the user's state on first access. Store read failures
// degrade to empty defaults for the session.
func (s *Service) stateLocked(ctx context.Context, userID string) *userState {
	if st, ok := s.users[userID]; ok {
		return st
	}

	st := &userState{favorites: make(map[string]struct{})}

	favs, err := s.repo.Favorites(ctx, userID)
	if err != nil {
		s.logger.Warn("favorites load failed, using empty set", zap.String("user", userID), zap.Error(err))
	}
	for _, id := range favs {
		if _, dup := st.favorites[id]; !dup {
			st.favorites[id] = struct{}{}
			st.favOrder = append(st.favOrder, id)
		}
	}

	hist, err := s.repo.History(ctx, userID)
	if err != nil {
		s.logger.Warn("history load failed, using empty list", zap.String("user", userID), zap.Error(err))
	}
	if len(hist) > s.cfg.HistoryMax {
		hist = hist[:s.cfg.HistoryMax]
	}
	st.history = hist

	group, err := s.repo.ExperimentGroup(ctx, userID)
	if err != nil {
		s.logger.Warn("experiment group load failed", zap.String("user", userID), zap.Error(err))
	}
	st.group = group

	s.users[userID] = st
	return st
}

func (s *Service) flushFavoritesLocked(ctx context.Context, userID string, st *userState) {
	if err := s.repo.SaveFavorites(ctx, userID, st.favOrder); err != nil {
		s.logger.Warn("favorites flush failed", zap.String("user", userID), zap.Error(err))
	}
}
