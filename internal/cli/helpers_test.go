package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `package combos

combos: {
	tornado_emp: {
		heroLevel:        6
		tags: ["teamfight"]
		specialty:        "qw"
		stance:           "offensive"
		damageRating:     3
		difficultyRating: "medium"
		resourceCosts: [1, 2, 0]
		sequence: [
			{name: "invoker_tornado", required: true, next: [1]},
			{name: "invoker_emp", required: true},
		]
	}
	cold_snap: {
		heroLevel:        1
		tags: ["laning"]
		specialty:        "qe"
		stance:           "defensive"
		damageRating:     1
		difficultyRating: "easy"
		resourceCosts: [3, 0, 0]
		sequence: [
			{name: "invoker_quas", next: [1]},
			{name: "invoker_cold_snap", required: true},
		]
	}
	eul_meteor: {
		heroLevel:        10
		tags: ["teamfight", "burst"]
		items: ["item_cyclone"]
		specialty:        "qe"
		stance:           "offensive"
		damageRating:     5
		difficultyRating: "hard"
		resourceCosts: [0, 1, 2]
		sequence: [
			{name: "item_cyclone", required: true, next: [1]},
			{name: "invoker_chaos_meteor", required: true},
		]
	}
}
`

// writeFile writes content as name in a fresh directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeCatalog writes content as combos.cue in a fresh directory.
func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	return writeFile(t, "combos.cue", content)
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
