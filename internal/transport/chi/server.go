// Package chi exposes the engine over HTTP: the render/query boundary the
// presentation layer consumes (search, windowing, related items, sections,
// favorites, history, experiment group).
package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/popopopopo1155/manga-reach/internal/domain"
	"github.com/popopopopo1155/manga-reach/internal/usecase/browse"
	curateuc "github.com/popopopopo1155/manga-reach/internal/usecase/curate"
	healthuc "github.com/popopopopo1155/manga-reach/internal/usecase/health"
	recommenduc "github.com/popopopopo1155/manga-reach/internal/usecase/recommend"
	sessionuc "github.com/popopopopo1155/manga-reach/internal/usecase/session"
)

// clientIDHeader carries the caller's stable client identity. Absent on the
// first request; the server issues a uuid and echoes it back so the caller
// can persist it.
const clientIDHeader = "X-Client-ID"

// CatalogReader is the read-only catalog view the handlers resolve ids with.
type CatalogReader interface {
	GetByID(id string) (domain.Work, error)
	Len() int
}

// Server routes the engine's operations.
type Server struct {
	catalog     CatalogReader
	controllers *controllerRegistry
	recommend   *recommenduc.Service
	sessions    *sessionuc.Service
	curation    *curateuc.Service
	health      *healthuc.Service
	logger      *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(
	catalog CatalogReader,
	ranker browse.Ranker,
	initialWindow, windowIncrement int,
	recommend *recommenduc.Service,
	sessions *sessionuc.Service,
	curation *curateuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		catalog:     catalog,
		controllers: newControllerRegistry(ranker, initialWindow, windowIncrement),
		recommend:   recommend,
		sessions:    sessions,
		curation:    curation,
		health:      health,
		logger:      logger,
	}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Post("/search/more", s.handleLoadMore)
		r.Get("/works/{id}", s.handleGetWork)
		r.Get("/works/{id}/related", s.handleRelated)
		r.Get("/sections", s.handleSections)
		r.Get("/favorites", s.handleFavorites)
		r.Post("/favorites/{id}/toggle", s.handleToggleFavorite)
		r.Get("/history", s.handleHistory)
		r.Post("/history/{id}", s.handleAddHistory)
		r.Get("/experiment", s.handleExperiment)
	})
}

// handleSearch sets the client's active search (query or tag; a set tag wins
// over a query) and returns the restarted window.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	clientID := s.clientID(w, r)
	ctrl := s.controllers.get(clientID)

	q := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")

	var view browse.View
	if tag != "" {
		view = ctrl.SetTag(tag)
	} else {
		view = ctrl.SetQuery(q)
	}

	writeJSON(w, http.StatusOK, viewToResponse(view))
}

// handleLoadMore grows the client's window over the current ranking.
func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	clientID := s.clientID(w, r)
	view := s.controllers.get(clientID).LoadMore()
	writeJSON(w, http.StatusOK, viewToResponse(view))
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	work, ok := s.resolveWork(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, workToItem(work))
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	work, ok := s.resolveWork(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, worksResponse{Works: worksToItems(s.recommend.Related(work))})
}

func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sectionsToResponse(s.curation.Sections(), s.curation.FeaturedTag()))
}

// handleFavorites lists the client's favorites, silently skipping ids no
// longer present in the catalog.
func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	clientID := s.clientID(w, r)
	ids := s.sessions.Favorites(r.Context(), clientID)
	writeJSON(w, http.StatusOK, worksResponse{Works: s.resolveIDs(ids)})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	work, ok := s.resolveWork(w, r)
	if !ok {
		return
	}
	clientID := s.clientID(w, r)
	favorite := s.sessions.ToggleFavorite(r.Context(), clientID, work.ID)
	writeJSON(w, http.StatusOK, favoriteToggleResponse{ID: work.ID, Favorite: favorite})
}

// handleHistory lists recently viewed works, most recent first, skipping
// stale ids.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	clientID := s.clientID(w, r)
	ids := s.sessions.History(r.Context(), clientID)
	writeJSON(w, http.StatusOK, worksResponse{Works: s.resolveIDs(ids)})
}

// handleAddHistory records an item view.
func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	work, ok := s.resolveWork(w, r)
	if !ok {
		return
	}
	clientID := s.clientID(w, r)
	s.sessions.AddToHistory(r.Context(), clientID, work.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExperiment(w http.ResponseWriter, r *http.Request) {
	clientID := s.clientID(w, r)
	writeJSON(w, http.StatusOK, experimentResponse{Group: s.sessions.Group(r.Context(), clientID)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToResponse(report))
}

// clientID returns the caller's client id, issuing a fresh one when absent.
// The id is always echoed in the response header.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(clientIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(clientIDHeader, id)
	return id
}

// resolveWork loads the {id} route param from the catalog, writing a 404 on
// a stale or unknown id.
func (s *Server) resolveWork(w http.ResponseWriter, r *http.Request) (domain.Work, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "work id is required")
		return domain.Work{}, false
	}
	work, err := s.catalog.GetByID(id)
	if errors.Is(err, domain.ErrWorkNotFound) {
		writeError(w, http.StatusNotFound, codeWorkNotFound, "work not found")
		return domain.Work{}, false
	}
	if err != nil {
		s.logger.Error("work lookup failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return domain.Work{}, false
	}
	return work, true
}

// resolveIDs maps persisted ids to works, dropping any that no longer
// resolve (stale favorites or history after a catalog update).
func (s *Server) resolveIDs(ids []string) []workItem {
	items := make([]workItem, 0, len(ids))
	for _, id := range ids {
		work, err := s.catalog.GetByID(id)
		if err != nil {
			continue
		}
		items = append(items, workToItem(work))
	}
	return items
}
