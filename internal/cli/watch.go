package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/combomirror/internal/combo"
	"github.com/roach88/combomirror/internal/wire"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Upstream string
	Once     bool // exit after the first catalog

	location locationFlags
	filter   filterFlags
	locale   localeFlags
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch --upstream <ws://host:port>",
		Short: "Mirror the catalog from an upstream and print the view on every change",
		Long: `Connect to an upstream, mirror its catalog and print the filtered view
each time a new catalog is published. With --format json each change is
printed as one JSON line.

The upstream URL defaults to COMBOMIRROR_UPSTREAM and the locale to
COMBOMIRROR_LOCALE, optionally set in a .env file.

Examples:
  combomirror watch --upstream ws://127.0.0.1:8710 --specialty qw
  combomirror watch --once --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := applyEnvDefaults(cmd, map[string]string{"upstream": EnvUpstream, "locale": EnvLocale})
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			if err := requireFlag(cmd, "upstream", EnvUpstream); err != nil {
				return err
			}
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Upstream, "upstream", "", "upstream WebSocket URL")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "exit after the first catalog")
	opts.location.bind(cmd)
	opts.filter.bind(cmd)
	opts.locale.bind(cmd)

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	loc, err := opts.locale.localizer()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err.Error(), nil)
	}

	client := wire.NewClient(opts.Upstream, wire.WithClientLogger(logger))
	cat := combo.NewCatalog(client, combo.Config{
		Table:     opts.location.table,
		Key:       opts.location.key,
		Localizer: loc,
		Logger:    logger,
	})
	view := combo.BindView(cat)
	spec := opts.filter.spec()

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	// Runs on the client's dispatch goroutine, after BindView has reset the
	// view to the new catalog.
	cat.OnChange(func(snap combo.Snapshot) {
		view.Filter(spec)
		res := newViewResult(len(snap), view)
		if formatter.Format == "json" {
			_ = formatter.Success(res)
		} else {
			fmt.Fprintf(formatter.Writer, "catalog updated (seq=%d)\n", client.LastSeq())
			writeViewText(formatter.Writer, res)
		}
		if opts.Once {
			cancel()
		}
	})

	if err := client.Run(ctx); err != nil {
		return formatter.Fail(ErrCodeUpstream, err.Error(), nil)
	}
	return nil
}
