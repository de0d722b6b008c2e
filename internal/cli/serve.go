package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/combomirror/internal/compiler"
	"github.com/roach88/combomirror/internal/engine"
	"github.com/roach88/combomirror/internal/store"
	"github.com/roach88/combomirror/internal/wire"
)

// defaultListen is the serve address when neither flag nor env sets one.
const defaultListen = "127.0.0.1:8710"

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Catalog  string
	Database string
	Listen   string

	location locationFlags

	// Sessions overrides the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Sessions engine.SessionGenerator

	// Ready is called with the bound address once the listener is open
	// (for testing).
	Ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

// newServeCommand builds the command around opts so tests can set the
// testing hooks.
func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve --catalog <file.cue> --db <path>",
		Short: "Run the upstream: publish a catalog to WebSocket clients",
		Long: `Compile the catalog, store it in SQLite and publish it to clients.

Clients subscribe to tables over WebSocket and receive a snapshot followed
by live changes. A client's reload request recompiles the catalog from
disk and republishes it, so edits reach every client without a restart.

Defaults for --db and --listen come from COMBOMIRROR_DB and
COMBOMIRROR_LISTEN, optionally set in a .env file.

Example:
  combomirror serve --catalog ./combos.cue --db ./upstream.db
  combomirror serve --catalog ./combos --db /tmp/up.db --listen :9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnvDefaults(cmd, map[string]string{"db": EnvDB, "listen": EnvListen}); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			if err := requireFlag(cmd, "db", EnvDB); err != nil {
				return err
			}
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog file or directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Listen, "listen", defaultListen, "address to listen on")
	_ = cmd.MarkFlagRequired("catalog")
	opts.location.bind(cmd)

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	// Fail on a broken catalog before touching the database.
	if _, err := LoadCatalog(opts.Catalog); err != nil {
		return failLoad(formatter, err)
	}

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ErrCodeStore, fmt.Sprintf("opening database: %v", err), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	sessions := opts.Sessions
	if sessions == nil {
		sessions = engine.UUIDv7Generator{}
	}

	var srv *wire.Server
	reload := func(ctx context.Context) error {
		records, err := LoadCatalog(opts.Catalog)
		if err != nil {
			return err
		}
		ch, err := srv.Publish(ctx, opts.location.table, opts.location.key, compiler.Encode(records))
		if err != nil {
			return err
		}
		logger.Info("catalog published", "combos", len(records), "seq", ch.Seq)
		return nil
	}
	srv = wire.NewServer(st,
		wire.WithReload(reload),
		wire.WithSessions(sessions),
		wire.WithServerLogger(logger),
	)

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	if err := reload(ctx); err != nil {
		return formatter.Fail(ErrCodeStore, fmt.Sprintf("publishing catalog: %v", err), nil)
	}

	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, fmt.Sprintf("listening on %s: %v", opts.Listen, err), nil)
	}
	addr := ln.Addr().String()
	logger.Info("serving", "addr", addr, "table", opts.location.table, "key", opts.location.key)
	if formatter.Format == "json" {
		_ = formatter.Success(map[string]string{"addr": addr, "table": opts.location.table, "key": opts.location.key})
	} else {
		fmt.Fprintf(formatter.Writer, "Serving %s/%s on ws://%s\n", opts.location.table, opts.location.key, addr)
	}
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	}

	logger.Info("shutting down")
	srv.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
