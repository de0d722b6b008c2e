package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/combomirror/internal/combo"
	"github.com/roach88/combomirror/internal/compiler"
	"github.com/roach88/combomirror/internal/mirror"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Catalog string

	filter filterFlags
	locale localeFlags
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query --catalog <file.cue>",
		Short: "Filter a catalog offline",
		Long: `Compile a catalog, publish it to an in-memory host and print the
filtered view, exactly as a connected client would see it.

Criteria are ANDed; --tag keeps combos sharing any of the given tags.

Examples:
  combomirror query --catalog combos.cue --specialty qw
  combomirror query --catalog combos.cue --tag teamfight --tag burst
  combomirror query --catalog combos.cue --item item_cyclone --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnvDefaults(cmd, map[string]string{"locale": EnvLocale}); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog file or directory (required)")
	_ = cmd.MarkFlagRequired("catalog")
	opts.filter.bind(cmd)
	opts.locale.bind(cmd)

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loc, err := opts.locale.localizer()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err.Error(), nil)
	}

	records, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return failLoad(formatter, err)
	}

	host := mirror.NewMemoryHost()
	host.Set(combo.DefaultTable, combo.DefaultKey, compiler.Encode(records))

	cat := combo.NewCatalog(host, combo.Config{Localizer: loc, Logger: newLogger(formatter.GetErrWriter(), opts.Verbose)})
	if !cat.Loaded() {
		return formatter.Fail(ErrCodeGeneric, "catalog did not load", nil)
	}
	view := combo.BindView(cat)
	spec := opts.filter.spec()
	formatter.VerboseLog("Filter: %+v", spec)
	view.Filter(spec)

	res := newViewResult(len(cat.Combos()), view)
	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	writeViewText(formatter.Writer, res)
	return nil
}
