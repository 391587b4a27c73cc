// Package bddcontext holds the nested key-value scopes threaded through a
// test run: World ⊃ Feature ⊃ Scenario ⊃ Step.
package bddcontext

import "sync"

// Store is one scope's key-value bag. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Hierarchy owns the four scopes of one test run. Writes go to a named
// scope; Lookup walks innermost to outermost. Teardown only ever clears
// downward: ending a scenario never touches feature or world state.
type Hierarchy struct {
	world    *Store
	feature  *Store
	scenario *Store
	step     *Store
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		world:    NewStore(),
		feature:  NewStore(),
		scenario: NewStore(),
		step:     NewStore(),
	}
}

func (h *Hierarchy) World() *Store    { return h.world }
func (h *Hierarchy) Feature() *Store  { return h.feature }
func (h *Hierarchy) Scenario() *Store { return h.scenario }
func (h *Hierarchy) Step() *Store     { return h.step }

// Lookup resolves a key from the innermost scope that holds it.
func (h *Hierarchy) Lookup(key string) (any, bool) {
	for _, scope := range []*Store{h.step, h.scenario, h.feature, h.world} {
		if v, ok := scope.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// EndStep discards step-scoped state.
func (h *Hierarchy) EndStep() {
	h.step.Clear()
}

// EndScenario discards scenario- and step-scoped state.
func (h *Hierarchy) EndScenario() {
	h.scenario.Clear()
	h.step.Clear()
}

// EndFeature discards feature-scoped state and everything below it.
func (h *Hierarchy) EndFeature() {
	h.feature.Clear()
	h.scenario.Clear()
	h.step.Clear()
}
