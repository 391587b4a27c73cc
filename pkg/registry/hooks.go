package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// HookType names a lifecycle moment a hook attaches to.
type HookType string

const (
	BeforeAll  HookType = "BeforeAll"
	AfterAll   HookType = "AfterAll"
	Before     HookType = "Before"
	After      HookType = "After"
	BeforeStep HookType = "BeforeStep"
	AfterStep  HookType = "AfterStep"
)

// HookFunc is a lifecycle callback.
type HookFunc func(ctx context.Context) error

// Hook is a registered lifecycle callback. Hooks of one type run in
// ascending Order.
type Hook struct {
	Type           HookType
	Implementation HookFunc
	Order          int
	Timeout        time.Duration
	Name           string
	Tags           []string
}

// RegisterHook stores a hook. Suite-level hooks (BeforeAll/AfterAll) may be
// registered lazily even after the registry is locked, since they run once
// per suite regardless of discovery order.
func (r *Registry) RegisterHook(h Hook) error {
	if h.Implementation == nil {
		return fmt.Errorf("hook %q of type %s has no implementation", h.Name, h.Type)
	}
	switch h.Type {
	case BeforeAll, AfterAll, Before, After, BeforeStep, AfterStep:
	default:
		return fmt.Errorf("unknown hook type %q", h.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked && h.Type != BeforeAll && h.Type != AfterAll {
		return fmt.Errorf("cannot register %s hook %q: %w", h.Type, h.Name, ErrRegistryLocked)
	}

	hooks := append(r.hooks[h.Type], &h)
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Order < hooks[j].Order })
	r.hooks[h.Type] = hooks
	return nil
}

// GetHooks returns the hooks of one type that apply to a scenario with the
// given tags, in ascending order.
func (r *Registry) GetHooks(t HookType, scenarioTags []string) []*Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Hook
	for _, h := range r.hooks[t] {
		if hookApplies(h.Tags, scenarioTags) {
			out = append(out, h)
		}
	}
	return out
}

// hookApplies implements the tag filter: an untagged hook always applies;
// a tagged hook applies when at least one of its tags matches. A hook tag
// starting with "@" must appear verbatim in the scenario tags; a bare tag
// matches as a substring of any scenario tag.
func hookApplies(hookTags, scenarioTags []string) bool {
	if len(hookTags) == 0 {
		return true
	}
	for _, ht := range hookTags {
		for _, st := range scenarioTags {
			if strings.HasPrefix(ht, "@") {
				if st == ht {
					return true
				}
			} else if strings.Contains(st, ht) {
				return true
			}
		}
	}
	return false
}
