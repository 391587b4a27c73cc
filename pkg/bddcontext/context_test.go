package bddcontext

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("set get delete", func(t *testing.T) {
		s := NewStore()
		s.Set("user", "alice")

		v, ok := s.Get("user")
		require.True(t, ok)
		require.Equal(t, "alice", v)
		require.True(t, s.Has("user"))

		s.Delete("user")
		require.False(t, s.Has("user"))
		_, ok = s.Get("user")
		require.False(t, ok)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := NewStore()
		s.Set("count", 1)
		s.Set("count", 2)
		v, _ := s.Get("count")
		require.Equal(t, 2, v)
		require.Equal(t, 1, s.Len())
	})

	t.Run("clear empties the store", func(t *testing.T) {
		s := NewStore()
		s.Set("a", 1)
		s.Set("b", 2)
		s.Clear()
		require.Equal(t, 0, s.Len())
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		s := NewStore()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				s.Set(fmt.Sprintf("key-%d", i), i)
			}(i)
			go func(i int) {
				defer wg.Done()
				s.Get(fmt.Sprintf("key-%d", i))
			}(i)
		}
		wg.Wait()
		require.Equal(t, 50, s.Len())
	})
}

func TestHierarchy_Lookup(t *testing.T) {
	t.Run("inner scope shadows outer", func(t *testing.T) {
		h := NewHierarchy()
		h.World().Set("env", "world")
		h.Feature().Set("env", "feature")
		h.Scenario().Set("env", "scenario")
		h.Step().Set("env", "step")

		v, ok := h.Lookup("env")
		require.True(t, ok)
		require.Equal(t, "step", v)

		h.EndStep()
		v, _ = h.Lookup("env")
		require.Equal(t, "scenario", v)

		h.EndScenario()
		v, _ = h.Lookup("env")
		require.Equal(t, "feature", v)

		h.EndFeature()
		v, _ = h.Lookup("env")
		require.Equal(t, "world", v)
	})

	t.Run("missing key", func(t *testing.T) {
		h := NewHierarchy()
		_, ok := h.Lookup("absent")
		require.False(t, ok)
	})
}

func TestHierarchy_Teardown(t *testing.T) {
	t.Run("ending a step keeps outer scopes", func(t *testing.T) {
		h := NewHierarchy()
		h.Scenario().Set("cart", "open")
		h.Step().Set("retry", 1)

		h.EndStep()
		require.False(t, h.Step().Has("retry"))
		require.True(t, h.Scenario().Has("cart"))
	})

	t.Run("ending a scenario clears scenario and step", func(t *testing.T) {
		h := NewHierarchy()
		h.Feature().Set("db", "connected")
		h.Scenario().Set("cart", "open")
		h.Step().Set("retry", 1)

		h.EndScenario()
		require.False(t, h.Scenario().Has("cart"))
		require.False(t, h.Step().Has("retry"))
		require.True(t, h.Feature().Has("db"))
	})

	t.Run("ending a feature never touches world", func(t *testing.T) {
		h := NewHierarchy()
		h.World().Set("suite", "run-1")
		h.Feature().Set("db", "connected")

		h.EndFeature()
		require.False(t, h.Feature().Has("db"))
		require.True(t, h.World().Has("suite"))
	})
}
