package cli

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/config"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/logging"
)

type rootOptions struct {
	envFile  string
	logLevel string
	cfg      *config.Config
}

// NewRootCommand builds the assistant command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Insurance assistant conversation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dotEnvErr := config.LoadDotEnv(opts.envFile)

			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load configuration")
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			logging.Init(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

			if dotEnvErr != nil {
				log.Debug().Err(dotEnvErr).Msg("continuing with system environment variables only")
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newServeCommand(opts), newChatCommand(opts))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
