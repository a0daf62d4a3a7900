package chi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/popopopopo1155/manga-reach/internal/domain"
	"github.com/popopopopo1155/manga-reach/internal/repository/catalog"
	curateuc "github.com/popopopopo1155/manga-reach/internal/usecase/curate"
	healthuc "github.com/popopopopo1155/manga-reach/internal/usecase/health"
	recommenduc "github.com/popopopopo1155/manga-reach/internal/usecase/recommend"
	searchuc "github.com/popopopopo1155/manga-reach/internal/usecase/search"
	sessionuc "github.com/popopopopo1155/manga-reach/internal/usecase/session"
)

// memRepo is an in-memory session.Repository.
type memRepo struct {
	favorites map[string][]string
	history   map[string][]string
	groups    map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		favorites: make(map[string][]string),
		history:   make(map[string][]string),
		groups:    make(map[string]string),
	}
}

func (m *memRepo) Favorites(_ context.Context, u string) ([]string, error) {
	return m.favorites[u], nil
}
func (m *memRepo) SaveFavorites(_ context.Context, u string, ids []string) error {
	m.favorites[u] = ids
	return nil
}
func (m *memRepo) History(_ context.Context, u string) ([]string, error) { return m.history[u], nil }
func (m *memRepo) SaveHistory(_ context.Context, u string, ids []string) error {
	m.history[u] = ids
	return nil
}
func (m *memRepo) ExperimentGroup(_ context.Context, u string) (string, error) {
	return m.groups[u], nil
}
func (m *memRepo) SaveExperimentGroup(_ context.Context, u, label string) error {
	m.groups[u] = label
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func fixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	works := []domain.Work{
		{ID: "1", Title: "Pirate King", Author: "A", Tags: []string{"action"}, Rating: 4.8},
		{ID: "2", Title: "Pirate Queen", Author: "B", Tags: []string{"action"}, Rating: 4.2},
		{ID: "3", Title: "Giant Slayer", Author: "A", Tags: []string{"fantasy"}, Rating: 4.5},
	}
	for i := 4; i <= 50; i++ {
		works = append(works, domain.Work{
			ID:     fmt.Sprintf("%d", i),
			Title:  fmt.Sprintf("Filler Volume %d", i),
			Rating: 3.0,
		})
	}
	c, err := catalog.FromWorks(works)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cat := fixtureCatalog(t)
	logger := zap.NewNop()

	matcher := searchuc.NewMatcher(searchuc.DefaultMatcherConfig())
	ranker := searchuc.New(cat, matcher, 0)
	recommend := recommenduc.New(cat, recommenduc.DefaultConfig())
	sessions := sessionuc.New(newMemRepo(), sessionuc.DefaultConfig(), logger)
	curation := curateuc.New(cat, curateuc.Config{
		TrendingOffset: 10, TrendingSize: 4,
		HallOfFameSize: 4,
		FeaturedTag:    "fantasy", FeaturedSize: 4,
	})
	health := healthuc.New(okPinger{}, cat)

	srv := NewServer(cat, ranker, 20, 20, recommend, sessions, curation, health, logger)

	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, target, clientID string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if clientID != "" {
		req.Header.Set(clientIDHeader, clientID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode %s %s response: %v", method, target, err)
		}
	}
	return rec
}

func TestSearch_ReturnsWindowedResults(t *testing.T) {
	h := newTestRouter(t)

	var resp searchResponse
	rec := doJSON(t, h, http.MethodGet, "/v1/search?q=", "c1", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if resp.Total != 50 || len(resp.Works) != 20 || !resp.HasMore {
		t.Fatalf("unexpected window: total=%d visible=%d hasMore=%v", resp.Total, len(resp.Works), resp.HasMore)
	}
}

func TestSearch_QueryRanksMatches(t *testing.T) {
	h := newTestRouter(t)

	var resp searchResponse
	doJSON(t, h, http.MethodGet, "/v1/search?q=pirat", "c1", &resp)
	if resp.Total != 2 || resp.Works[0].ID != "1" || resp.Works[1].ID != "2" {
		t.Fatalf("unexpected ranking: %+v", resp.Works)
	}
	if resp.HasMore {
		t.Fatal("2 results must not report hasMore")
	}
}

func TestSearch_TagWinsOverQuery(t *testing.T) {
	h := newTestRouter(t)

	var resp searchResponse
	doJSON(t, h, http.MethodGet, "/v1/search?q=pirat&tag=fantasy", "c1", &resp)
	if resp.Tag != "fantasy" || resp.Query != "" {
		t.Fatalf("tag must win over query: %+v", resp)
	}
	if resp.Total != 1 || resp.Works[0].ID != "3" {
		t.Fatalf("unexpected tag results: %+v", resp.Works)
	}
}

func TestLoadMore_GrowsClientWindow(t *testing.T) {
	h := newTestRouter(t)

	var first searchResponse
	doJSON(t, h, http.MethodGet, "/v1/search?q=", "c1", &first)

	var more searchResponse
	doJSON(t, h, http.MethodPost, "/v1/search/more", "c1", &more)
	if len(more.Works) != 40 {
		t.Fatalf("expected 40 after load-more, got %d", len(more.Works))
	}
	for i := range first.Works {
		if more.Works[i].ID != first.Works[i].ID {
			t.Fatalf("window is not a prefix extension at %d", i)
		}
	}
}

func TestLoadMore_WindowsAreIsolatedPerClient(t *testing.T) {
	h := newTestRouter(t)

	doJSON(t, h, http.MethodGet, "/v1/search?q=", "c1", nil)
	doJSON(t, h, http.MethodPost, "/v1/search/more", "c1", nil)

	var other searchResponse
	doJSON(t, h, http.MethodGet, "/v1/search?q=", "c2", &other)
	if len(other.Works) != 20 {
		t.Fatalf("another client's load-more leaked: %d visible", len(other.Works))
	}
}

func TestClientID_IssuedWhenAbsent(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/search?q=", "", nil)
	if rec.Header().Get(clientIDHeader) == "" {
		t.Fatal("expected an issued client id header")
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/search?q=", "keep-me", nil)
	if got := rec.Header().Get(clientIDHeader); got != "keep-me" {
		t.Fatalf("existing client id must be echoed, got %q", got)
	}
}

func TestGetWork_FoundAndNotFound(t *testing.T) {
	h := newTestRouter(t)

	var item workItem
	rec := doJSON(t, h, http.MethodGet, "/v1/works/1", "c1", &item)
	if rec.Code != http.StatusOK || item.Title != "Pirate King" {
		t.Fatalf("unexpected response: %d %+v", rec.Code, item)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/works/9999", "c1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var e errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Code != codeWorkNotFound {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestRelated_ExcludesReference(t *testing.T) {
	h := newTestRouter(t)

	var resp worksResponse
	rec := doJSON(t, h, http.MethodGet, "/v1/works/1/related", "c1", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(resp.Works) == 0 {
		t.Fatal("expected related works")
	}
	for _, w := range resp.Works {
		if w.ID == "1" {
			t.Fatal("reference work returned as its own neighbor")
		}
	}
}

func TestSections_ShapesFollowConfig(t *testing.T) {
	h := newTestRouter(t)

	var resp sectionsResponse
	doJSON(t, h, http.MethodGet, "/v1/sections", "c1", &resp)
	if len(resp.Trending) != 4 || len(resp.HallOfFame) != 4 {
		t.Fatalf("unexpected section sizes: trending=%d hall=%d", len(resp.Trending), len(resp.HallOfFame))
	}
	if resp.TagFeature != "fantasy" || len(resp.Featured) != 1 {
		t.Fatalf("unexpected featured section: tag=%q size=%d", resp.TagFeature, len(resp.Featured))
	}
}

func TestFavorites_ToggleAndList(t *testing.T) {
	h := newTestRouter(t)

	var toggled favoriteToggleResponse
	doJSON(t, h, http.MethodPost, "/v1/favorites/1/toggle", "c1", &toggled)
	if !toggled.Favorite || toggled.ID != "1" {
		t.Fatalf("unexpected toggle response: %+v", toggled)
	}

	var listed worksResponse
	doJSON(t, h, http.MethodGet, "/v1/favorites", "c1", &listed)
	if len(listed.Works) != 1 || listed.Works[0].ID != "1" {
		t.Fatalf("unexpected favorites: %+v", listed.Works)
	}

	doJSON(t, h, http.MethodPost, "/v1/favorites/1/toggle", "c1", &toggled)
	if toggled.Favorite {
		t.Fatal("second toggle must remove the favorite")
	}
	doJSON(t, h, http.MethodGet, "/v1/favorites", "c1", &listed)
	if len(listed.Works) != 0 {
		t.Fatalf("favorites must be empty after paired toggles: %+v", listed.Works)
	}
}

func TestFavorites_ToggleUnknownWorkIs404(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/favorites/9999/toggle", "c1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHistory_RecordAndList(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/history/2", "c1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	doJSON(t, h, http.MethodPost, "/v1/history/1", "c1", nil)
	doJSON(t, h, http.MethodPost, "/v1/history/2", "c1", nil)

	var listed worksResponse
	doJSON(t, h, http.MethodGet, "/v1/history", "c1", &listed)
	if len(listed.Works) != 2 || listed.Works[0].ID != "2" || listed.Works[1].ID != "1" {
		t.Fatalf("unexpected history order: %+v", listed.Works)
	}
}

func TestExperiment_StablePerClient(t *testing.T) {
	h := newTestRouter(t)

	var first experimentResponse
	doJSON(t, h, http.MethodGet, "/v1/experiment", "c1", &first)
	if first.Group != "A" && first.Group != "B" {
		t.Fatalf("unexpected group %q", first.Group)
	}
	for i := 0; i < 5; i++ {
		var again experimentResponse
		doJSON(t, h, http.MethodGet, "/v1/experiment", "c1", &again)
		if again.Group != first.Group {
			t.Fatalf("group re-rolled: %q then %q", first.Group, again.Group)
		}
	}
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t)

	var resp healthResponse
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", &resp)
	if rec.Code != http.StatusOK || resp.Status != "ok" {
		t.Fatalf("unexpected health: %d %+v", rec.Code, resp)
	}
	if resp.Checks["store"] != "ok" || resp.Checks["catalog"] != "ok" {
		t.Fatalf("unexpected checks: %+v", resp.Checks)
	}
}

func TestBearerAuth(t *testing.T) {
	h := newTestRouter(t)
	authed := BearerAuthMiddleware([]string{"secret"})(h)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=", nil)
	rec := httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/search?q=", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/search?q=", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health must bypass auth, got %d", rec.Code)
	}
}
