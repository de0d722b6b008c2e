package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combomirror/internal/ir"
)

const sampleCatalog = `
combos: tornado_emp: {
	heroLevel:        6
	talents:          5
	tags: ["teamfight", "wex"]
	specialty:        "qw"
	stance:           "offensive"
	damageRating:     3
	difficultyRating: "medium"
	resourceCosts: [1, 2, 0]
	sequence: [
		{name: "invoker_tornado", required: true, next: [1]},
		{name: "invoker_emp"},
	]
}
combos: cold_snap: {
	heroLevel: 1
	resourceCosts: [3, 0, 0]
	sequence: [{name: "invoker_cold_snap"}]
}
`

func TestCompileCatalog(t *testing.T) {
	v := cuecontext.New().CompileString(sampleCatalog)
	require.NoError(t, v.Err())

	records, err := CompileCatalog(v)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, ir.IRObject{
		"id":               ir.IRString("tornado_emp"),
		"heroLevel":        ir.IRInt(6),
		"talents":          ir.IRInt(5),
		"tags":             ir.IRArray{ir.IRString("teamfight"), ir.IRString("wex")},
		"specialty":        ir.IRString("qw"),
		"stance":           ir.IRString("offensive"),
		"damageRating":     ir.IRInt(3),
		"difficultyRating": ir.IRString("medium"),
		"resourceCosts":    ir.IRArray{ir.IRInt(1), ir.IRInt(2), ir.IRInt(0)},
		"sequence": ir.IRArray{
			ir.IRObject{"name": ir.IRString("invoker_tornado"), "required": ir.IRBool(true), "next": ir.IRArray{ir.IRInt(1)}},
			ir.IRObject{"name": ir.IRString("invoker_emp")},
		},
	}, records[0])

	assert.Equal(t, ir.IRString("cold_snap"), records[1].(ir.IRObject)["id"])
}

func TestEncodeUsesForeignLists(t *testing.T) {
	v := cuecontext.New().CompileString(`
combos: a: {
	resourceCosts: [1, 2, 3]
	sequence: [{name: "invoker_quas"}]
}`)
	records, err := CompileCatalog(v)
	require.NoError(t, err)

	data, err := ir.MarshalCanonical(Encode(records))
	require.NoError(t, err)
	assert.Equal(t,
		`{"1":{"id":"a","resourceCosts":{"1":1,"2":2,"3":3},"sequence":{"1":{"name":"invoker_quas"}}}}`,
		string(data))
}

func TestCompileCatalogErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"no combos", `heroes: {}`, "combos"},
		{"empty combos", `combos: {}`, "combos"},
		{"missing sequence", `combos: a: resourceCosts: [0, 0, 0]`, "combos.a.sequence"},
		{"empty sequence", `combos: a: {resourceCosts: [0, 0, 0], sequence: []}`, "combos.a.sequence"},
		{"two costs", `combos: a: {resourceCosts: [0, 0], sequence: [{name: "x"}]}`, "combos.a.resourceCosts"},
		{"missing costs", `combos: a: sequence: [{name: "x"}]`, "combos.a.resourceCosts"},
		{"float cost", `combos: a: {resourceCosts: [0, 0.5, 0], sequence: [{name: "x"}]}`, "combos.a.resourceCosts"},
		{"nameless step", `combos: a: {resourceCosts: [0, 0, 0], sequence: [{required: true}]}`, "combos.a.sequence[0].name"},
		{"bad required", `combos: a: {resourceCosts: [0, 0, 0], sequence: [{name: "x", required: 1}]}`, "combos.a.sequence[0].required"},
		{"next out of range", `combos: a: {resourceCosts: [0, 0, 0], sequence: [{name: "x", next: [1]}]}`, "combos.a.sequence[0].next"},
		{"string level", `combos: a: {heroLevel: "six", resourceCosts: [0, 0, 0], sequence: [{name: "x"}]}`, "combos.a.heroLevel"},
		{"numeric tag", `combos: a: {tags: [1], resourceCosts: [0, 0, 0], sequence: [{name: "x"}]}`, "combos.a.tags"},
		{"bool specialty", `combos: a: {specialty: true, resourceCosts: [0, 0, 0], sequence: [{name: "x"}]}`, "combos.a.specialty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileCatalog(v)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileCatalogCUEConflict(t *testing.T) {
	v := cuecontext.New().CompileString(`
combos: a: heroLevel: 1
combos: a: heroLevel: 2
`)
	_, err := CompileCatalog(v)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combos.cue")
	require.NoError(t, os.WriteFile(path, []byte("package combos\n"+sampleCatalog), 0o644))

	records, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = LoadCatalog(dir)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadCatalogErrors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte("combos: a: {\n"), 0o644))
	_, err = LoadCatalog(path)
	require.Error(t, err)
}

func TestCompileErrorMessage(t *testing.T) {
	err := &CompileError{Field: "combos.a.sequence", Message: "sequence is required"}
	assert.Equal(t, "combos.a.sequence: sequence is required", err.Error())
}
