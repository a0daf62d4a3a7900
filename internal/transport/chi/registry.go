package chi

import (
	"sync"

	"github.com/popopopopo1155/manga-reach/internal/usecase/browse"
)

// maxControllers bounds the per-client controller registry. Beyond the bound
// an arbitrary entry is evicted; the evicted client simply restarts at the
// initial window on its next request.
const maxControllers = 10000

// controllerRegistry hands out one browse controller per client id.
type controllerRegistry struct {
	ranker    browse.Ranker
	initial   int
	increment int

	mu          sync.Mutex
	controllers map[string]*browse.Controller
}

func newControllerRegistry(ranker browse.Ranker, initial, increment int) *controllerRegistry {
	return &controllerRegistry{
		ranker:      ranker,
		initial:     initial,
		increment:   increment,
		controllers: make(map[string]*browse.Controller),
	}
}

func (r *controllerRegistry) get(clientID string) *browse.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[clientID]; ok {
		return c
	}

	if len(r.controllers) >= maxControllers {
		for id := range r.controllers {
			delete(r.controllers, id)
			break
		}
	}

	c := browse.NewController(r.ranker, r.initial, r.increment)
	r.controllers[clientID] = c
	return c
}
