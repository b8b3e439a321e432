package raffle

import (
	"sync"
)

// Memo caches Draw results by seed. The seed is the only key: the candidate
// lists are fixed when the Memo is built.
type Memo[W, P any] struct {
	winners []W
	prizes  []P

	mu      sync.Mutex
	results map[string]*Result[W, P]
	limit   int
}

// NewMemo returns a Memo over winners and prizes holding at most limit
// seeds. A limit of 1 behaves like a single slot that is replaced whenever
// the seed changes. limit <= 0 means unbounded.
func NewMemo[W, P any](winners []W, prizes []P, limit int) *Memo[W, P] {
	return &Memo[W, P]{
		winners: winners,
		prizes:  prizes,
		results: make(map[string]*Result[W, P]),
		limit:   limit,
	}
}

// Get returns the result for seed, drawing it on first use.
//
// The cached Result shares its Presentation generator between callers.
// Callers who need a private decorative stream should use Fresh instead.
func (m *Memo[W, P]) Get(seed string) (*Result[W, P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.results[seed]; ok {
		return r, nil
	}

	r, err := Draw(seed, m.winners, m.prizes)
	if err != nil {
		return nil, err
	}

	if m.limit > 0 && len(m.results) >= m.limit {
		for k := range m.results {
			delete(m.results, k)
			if len(m.results) < m.limit {
				break
			}
		}
	}
	m.results[seed] = r
	return r, nil
}

// Fresh returns the cached selection with a newly seeded presentation
// generator, so concurrent reveals of the same seed animate identically
// without sharing generator state.
func (m *Memo[W, P]) Fresh(seed string) (*Result[W, P], error) {
	r, err := m.Get(seed)
	if err != nil {
		return nil, err
	}
	c := *r
	c.Presentation = newPresentation(seed)
	return &c, nil
}

// Len reports how many seeds are cached.
func (m *Memo[W, P]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}
