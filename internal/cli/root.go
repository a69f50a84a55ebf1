package cli

import (
	"github.com/spf13/cobra"

	"github.com/actuallystonmai/predict-client/internal/config"
	"github.com/actuallystonmai/predict-client/internal/logging"
)

var (
	logLevel string

	// loaded at init time
	cfg *config.Config
	log *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Client for the product recommendation service",
		Long: "predict sends tracking transactions to the recommendation service, prints the " +
			"recommendations it returns and can run a local stand-in of the service.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newURLCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
