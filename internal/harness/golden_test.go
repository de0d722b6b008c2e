package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTrace(t *testing.T) {
	loaded := false
	result := NewResult()
	result.addEvent(TraceEvent{Type: EventChange, Seq: 1, IDs: []string{"b", "a"}})
	result.addEvent(TraceEvent{Type: StepReload, Seq: 2, Loaded: &loaded})

	data, err := MarshalTrace("demo", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"demo","trace":[{"ids":["b","a"],"seq":1,"type":"change"},{"ids":[],"loaded":false,"seq":2,"type":"reload"}]}`,
		string(data))
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
