package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Environment variables that supply flag defaults.
const (
	EnvUpstream = "COMBOMIRROR_UPSTREAM"
	EnvListen   = "COMBOMIRROR_LISTEN"
	EnvDB       = "COMBOMIRROR_DB"
	EnvLocale   = "COMBOMIRROR_LOCALE"
)

// applyEnvDefaults copies environment values into flags the user did not
// set. Flags missing from cmd are skipped.
func applyEnvDefaults(cmd *cobra.Command, bindings map[string]string) error {
	for flag, env := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil || f.Changed {
			continue
		}
		val, ok := os.LookupEnv(env)
		if !ok || val == "" {
			continue
		}
		if err := cmd.Flags().Set(flag, val); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

// requireFlag reports a missing flag after env defaults were applied, which
// cobra's MarkFlagRequired cannot do.
func requireFlag(cmd *cobra.Command, flag, env string) error {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Value.String() != "" {
		return nil
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("required flag \"%s\" not set (or set %s)", flag, env))
}
