package search

import (
	"sort"
	"strings"

	"github.com/popopopopo1155/manga-reach/internal/domain"
)

// MatcherConfig tunes the approximate matcher. The defaults reproduce the
// behaviour the site shipped with: threshold 0.35, displacement 100,
// location ignored.
type MatcherConfig struct {
	// Threshold is the maximum normalized edit distance for an approximate
	// field match. 0 accepts exact matches only, 1 accepts anything.
	Threshold float64
	// Distance is the maximum character displacement between the expected
	// match position (start of field) and where the match is found. Ignored
	// when IgnoreLocation is true.
	Distance int
	// IgnoreLocation disables the displacement check entirely.
	IgnoreLocation bool

	// Field weights discount matches in less important fields.
	// Title ranks highest, then tags and description, then author.
	TitleWeight       float64
	TagsWeight        float64
	DescriptionWeight float64
	AuthorWeight      float64
}

// DefaultMatcherConfig returns the deployed defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Threshold:         0.35,
		Distance:          100,
		IgnoreLocation:    true,
		TitleWeight:       1.0,
		TagsWeight:        0.75,
		DescriptionWeight: 0.7,
		AuthorWeight:      0.5,
	}
}

// exactBase keeps an exact substring hit strictly better than any
// approximate hit in the same field: exact scores exactBase/weight, while an
// approximate hit scores (norm + exactBase)/weight with norm > 0.
const exactBase = 0.05

// Matcher scores a free-text query against every work in the catalog.
type Matcher struct {
	cfg MatcherConfig
}

// NewMatcher creates a matcher with the given configuration.
func NewMatcher(cfg MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match returns every work with at least one field within the configured
// threshold, best score first. Ties keep catalog order, so repeated queries
// over the same catalog are byte-identical. The query must be non-empty and
// pre-trimmed.
func (m *Matcher) Match(works []domain.Work, query string) []domain.ScoredMatch {
	q := []rune(strings.ToLower(query))
	if len(q) == 0 {
		return nil
	}

	matches := make([]domain.ScoredMatch, 0, 64)
	for _, w := range works {
		score, ok := m.scoreWork(w, q)
		if !ok {
			continue
		}
		matches = append(matches, domain.ScoredMatch{Work: w, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})

	return matches
}

// scoreWork computes the best field score for a work, or ok=false when no
// field clears the threshold. Fields are evaluated in tie-break priority
// order (title, author, description, tags); a strictly better score in a
// later field still wins.
func (m *Matcher) scoreWork(w domain.Work, q []rune) (float64, bool) {
	best := 0.0
	found := false

	consider := func(text string, weight float64) {
		norm, _, ok := m.matchField(text, q)
		if !ok {
			return
		}
		score := (norm + exactBase) / weight
		if !found || score < best {
			best = score
			found = true
		}
	}

	consider(w.Title, m.cfg.TitleWeight)
	consider(w.Author, m.cfg.AuthorWeight)
	consider(w.Description, m.cfg.DescriptionWeight)
	for _, tag := range w.Tags {
		consider(tag, m.cfg.TagsWeight)
	}

	return best, found
}

// matchField decides whether the query matches one field. An exact
// case-insensitive substring hit yields normalized distance 0; otherwise the
// best sliding-window edit distance against any fragment of the field,
// normalized by query length, must be within Threshold. The displacement of
// the match from the start of the field must be within Distance unless
// location is ignored.
func (m *Matcher) matchField(text string, q []rune) (norm float64, pos int, ok bool) {
	if text == "" {
		return 0, 0, false
	}
	lower := strings.ToLower(text)

	if idx := strings.Index(lower, string(q)); idx >= 0 {
		pos = len([]rune(lower[:idx]))
		if !m.cfg.IgnoreLocation && pos > m.cfg.Distance {
			return 0, 0, false
		}
		return 0, pos, true
	}

	t := []rune(lower)
	dist, end := bestFragmentDistance(q, t)
	norm = float64(dist) / float64(len(q))
	if norm > m.cfg.Threshold {
		return 0, 0, false
	}

	// Approximate the match start from the fragment end.
	pos = end - len(q)
	if pos < 0 {
		pos = 0
	}
	if !m.cfg.IgnoreLocation && pos > m.cfg.Distance {
		return 0, 0, false
	}
	return norm, pos, true
}

// bestFragmentDistance computes the minimum Levenshtein distance between the
// query and any contiguous fragment of text, plus the end offset of the best
// fragment. This is the classic approximate-substring dynamic program: the
// first row is zero so a fragment may begin anywhere for free.
func bestFragmentDistance(q, t []rune) (dist, end int) {
	if len(t) == 0 {
		return len(q), 0
	}

	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)

	for i := 1; i <= len(q); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if q[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j-1]+cost, // substitution / match
				prev[j]+1,      // deletion from query
				curr[j-1]+1,    // insertion into query
			)
		}
		prev, curr = curr, prev
	}

	dist = prev[0]
	end = 0
	for j := 1; j <= len(t); j++ {
		if prev[j] < dist {
			dist = prev[j]
			end = j
		}
	}
	return dist, end
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
