package catalog

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

// workRecord is the raw JSON shape of one catalog entry. The generator emits
// numeric ids; hand-edited fixtures may use strings, so id is kept raw and
// normalized in parseID. All text fields are optional.
type workRecord struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Rating      float64         `json:"rating"`
	Cover       string          `json:"cover"`
	IsReal      bool            `json:"isReal"`
}

// parseID normalizes a raw JSON id (number or string) into a non-empty
// string key. Returns "" when the record carries no usable id.
func parseID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return ""
		}
		return strings.TrimSpace(id)
	}
	// Numeric id: reject anything that is not an integer.
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// toDomain converts a raw record into a domain Work.
func (r workRecord) toDomain(id string) domain.Work {
	return domain.Work{
		ID:          id,
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Tags:        r.Tags,
		Rating:      r.Rating,
		Cover:       r.Cover,
		IsReal:      r.IsReal,
	}
}
