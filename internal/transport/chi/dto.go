package chi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/popopopopo1155/manga-reach/internal/domain"
	"github.com/popopopopo1155/manga-reach/internal/usecase/browse"
	"github.com/popopopopo1155/manga-reach/internal/usecase/curate"
	"github.com/popopopopo1155/manga-reach/internal/usecase/health"
)

// Error codes returned by the API.
const (
	codeBadRequest    = "bad_request"
	codeWorkNotFound  = "work_not_found"
	codeUnauthorized  = "unauthorized"
	codeInternalError = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type workItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      float64  `json:"rating"`
	Cover       string   `json:"cover,omitempty"`
	IsReal      bool     `json:"isReal"`
}

type searchResponse struct {
	Query   string     `json:"query,omitempty"`
	Tag     string     `json:"tag,omitempty"`
	Total   int        `json:"total"`
	HasMore bool       `json:"hasMore"`
	Works   []workItem `json:"works"`
}

type sectionsResponse struct {
	Trending   []workItem `json:"trending"`
	HallOfFame []workItem `json:"hallOfFame"`
	Featured   []workItem `json:"featured"`
	TagFeature string     `json:"featuredTag"`
}

type favoriteToggleResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

type worksResponse struct {
	Works []workItem `json:"works"`
}

type experimentResponse struct {
	Group string `json:"group"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func workToItem(w domain.Work) workItem {
	return workItem{
		ID:          w.ID,
		Title:       w.Title,
		Author:      w.Author,
		Description: w.Description,
		Tags:        w.Tags,
		Rating:      w.Rating,
		Cover:       w.Cover,
		IsReal:      w.IsReal,
	}
}

func worksToItems(works []domain.Work) []workItem {
	items := make([]workItem, len(works))
	for i, w := range works {
		items[i] = workToItem(w)
	}
	return items
}

func viewToResponse(v browse.View) searchResponse {
	return searchResponse{
		Query:   v.Query,
		Tag:     v.Tag,
		Total:   v.Total,
		HasMore: v.HasMore,
		Works:   worksToItems(v.Works),
	}
}

func sectionsToResponse(s curate.Sections, tag string) sectionsResponse {
	return sectionsResponse{
		Trending:   worksToItems(s.Trending),
		HallOfFame: worksToItems(s.HallOfFame),
		Featured:   worksToItems(s.Featured),
		TagFeature: tag,
	}
}

func healthToResponse(r health.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for name, res := range r.Checks {
		checks[name] = string(res)
	}
	return healthResponse{Status: string(r.Status), Checks: checks}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
