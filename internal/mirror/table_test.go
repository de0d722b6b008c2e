package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combomirror/internal/ir"
)

func TestTableMirrorSubscribesOnce(t *testing.T) {
	host := NewMemoryHost()
	m := NewTableMirror(host, "static")

	assert.Equal(t, "static", m.Name())
	assert.Equal(t, 1, host.Subscriptions("static"))
	assert.NotEmpty(t, m.Handle())
}

func TestTableMirrorDuplicateInstancesSubscribeIndependently(t *testing.T) {
	host := NewMemoryHost()
	a := NewTableMirror(host, "static")
	b := NewTableMirror(host, "static")

	var got []string
	a.OnChange(func(key string, _ ir.IRValue) { got = append(got, "a:"+key) })
	b.OnChange(func(key string, _ ir.IRValue) { got = append(got, "b:"+key) })

	host.Set("static", "combos", ir.IRInt(1))

	assert.Equal(t, 2, host.Subscriptions("static"))
	assert.Equal(t, []string{"a:combos", "b:combos"}, got)
	assert.NotEqual(t, a.Handle(), b.Handle())
}

func TestTableMirrorFanOutOrder(t *testing.T) {
	host := NewMemoryHost()
	m := NewTableMirror(host, "static")

	var got []string
	m.OnKeyChange("combos", func(string, ir.IRValue) { got = append(got, "key-1") })
	m.OnChange(func(string, ir.IRValue) { got = append(got, "table-1") })
	m.OnKeyChange("combos", func(string, ir.IRValue) { got = append(got, "key-2") })
	m.OnChange(func(string, ir.IRValue) { got = append(got, "table-2") })
	m.OnKeyChange("other", func(string, ir.IRValue) { got = append(got, "other") })

	host.Set("static", "combos", ir.IRString("v"))

	// Table-wide listeners first, then key listeners, each in registration order.
	assert.Equal(t, []string{"table-1", "table-2", "key-1", "key-2"}, got)
}

func TestTableMirrorPassesKeyAndValue(t *testing.T) {
	host := NewMemoryHost()
	m := NewTableMirror(host, "static")

	var gotKey string
	var gotValue ir.IRValue
	m.OnKeyChange("combos", func(key string, value ir.IRValue) {
		gotKey, gotValue = key, value
	})

	host.Set("static", "combos", ir.IRObject{"1": ir.IRString("x")})

	assert.Equal(t, "combos", gotKey)
	assert.Equal(t, ir.IRObject{"1": ir.IRString("x")}, gotValue)
}

func TestTableMirrorIgnoresOtherTables(t *testing.T) {
	host := NewMemoryHost()
	m := NewTableMirror(host, "static")

	calls := 0
	m.OnChange(func(string, ir.IRValue) { calls++ })
	m.OnKeyChange("combos", func(string, ir.IRValue) { calls++ })

	// A host that broadcasts every table to every subscriber.
	m.dispatch("dynamic", "combos", ir.IRInt(1))
	host.Set("dynamic", "combos", ir.IRInt(1))

	assert.Equal(t, 0, calls)
}

func TestTableMirrorNoReplay(t *testing.T) {
	host := NewMemoryHost()
	host.Set("static", "combos", ir.IRInt(1))
	m := NewTableMirror(host, "static")

	calls := 0
	m.OnChange(func(string, ir.IRValue) { calls++ })
	m.OnKeyChange("combos", func(string, ir.IRValue) { calls++ })

	assert.Equal(t, 0, calls)
}

func TestTableMirrorPanicAbortsDispatch(t *testing.T) {
	host := NewMemoryHost()
	m := NewTableMirror(host, "static")

	var reached bool
	m.OnChange(func(string, ir.IRValue) { panic("listener failed") })
	m.OnKeyChange("combos", func(string, ir.IRValue) { reached = true })

	require.Panics(t, func() { host.Set("static", "combos", ir.IRInt(1)) })
	assert.False(t, reached)
}

func TestTableMirrorGet(t *testing.T) {
	host := NewMemoryHost()
	m := NewTableMirror(host, "static")

	assert.Nil(t, m.Get("combos"))

	host.Set("static", "combos", ir.IRString("v"))
	assert.Equal(t, ir.IRString("v"), m.Get("combos"))

	host.Delete("static", "combos")
	assert.Nil(t, m.Get("combos"))
}
