package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/combomirror/internal/compiler"
	"github.com/roach88/combomirror/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Count int        `json:"count"`
	IDs   []string   `json:"ids"`
	Value ir.IRValue `json:"value"` // the published (foreign-encoded) form
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <catalog>",
		Short: "Compile a CUE combo catalog to its published JSON form",
		Long: `Compile CUE combo definitions to the value the upstream publishes.

The catalog may be a single .cue file or a directory holding one CUE
package. Lists are emitted in the host's 1-based keyed encoding, exactly
as clients receive them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	records, err := LoadCatalog(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	ids := recordIDs(records)
	for _, id := range ids {
		formatter.VerboseLog("Compiled combo: %s", id)
	}

	value := compiler.Encode(records)
	data, err := ir.MarshalCanonical(value)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, fmt.Sprintf("encoding catalog: %v", err), nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return formatter.Fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(CompilationResult{Count: len(ids), IDs: ids, Value: value})
	}

	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ Compiled %d combo(s)\n", len(ids))
		fmt.Fprintf(formatter.Writer, "Wrote catalog to %s\n", opts.Output)
		return nil
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// recordIDs lists record ids in declaration order.
func recordIDs(records ir.IRArray) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		obj, ok := rec.(ir.IRObject)
		if !ok {
			continue
		}
		if id, ok := obj["id"].(ir.IRString); ok {
			ids = append(ids, string(id))
		}
	}
	return ids
}
