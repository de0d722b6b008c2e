package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRunsInRegistrationOrder(t *testing.T) {
	r := New[string, int]()
	var got []string

	r.On("change", func(p int) { got = append(got, "first") })
	r.On("change", func(p int) { got = append(got, "second") })
	r.On("change", func(p int) { got = append(got, "third") })

	r.Run("change", 1)

	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestRegistryPassesPayload(t *testing.T) {
	r := New[string, string]()
	var got string
	r.On("row", func(p string) { got = p })

	r.Run("row", "payload")

	assert.Equal(t, "payload", got)
}

func TestRegistryTagsAreIndependent(t *testing.T) {
	r := New[string, int]()
	calls := map[string]int{}
	r.On("a", func(int) { calls["a"]++ })
	r.On("b", func(int) { calls["b"]++ })

	r.Run("a", 0)
	r.Run("a", 0)
	r.Run("missing", 0)

	assert.Equal(t, 2, calls["a"])
	assert.Equal(t, 0, calls["b"])
	assert.Equal(t, 1, r.Len("b"))
	assert.Equal(t, 0, r.Len("missing"))
}

func TestRegistryPanicAbortsRemaining(t *testing.T) {
	r := New[int, int]()
	var after bool
	r.On(1, func(int) { panic("boom") })
	r.On(1, func(int) { after = true })

	assert.PanicsWithValue(t, "boom", func() { r.Run(1, 0) })
	assert.False(t, after)
}

func TestRegistryZeroValueUsable(t *testing.T) {
	var r Registry[string, int]
	var got int
	r.On("x", func(p int) { got = p })
	r.Run("x", 5)
	assert.Equal(t, 5, got)
}

func TestRegistrySubscribeDuringRun(t *testing.T) {
	r := New[string, int]()
	var late int
	r.On("x", func(int) {
		r.On("x", func(int) { late++ })
	})

	r.Run("x", 0)
	assert.Equal(t, 0, late)

	r.Run("x", 0)
	assert.Equal(t, 1, late)
}
