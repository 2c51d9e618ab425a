package main

import (
	"github.com/spf13/cobra"

	"github.com/ritzau/orgchart/pkg/config"
	"github.com/ritzau/orgchart/pkg/logging"
)

var log = logging.New("orgchart")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "orgchart",
		Short: "Ownership chart service",
		Long: "orgchart normalizes corporate entity feeds into ownership graphs,\n" +
			"validates them and evaluates filters for the chart renderer.",
		SilenceUsage: true,
	}

	// Flag names double as config keys, e.g. --log.format sets log.format.
	flags := root.PersistentFlags()
	flags.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	flags.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	flags.String("log.format", "text", "Log format: text or json")

	root.AddCommand(serveCmd(), validateCmd(), filterCmd())
	return root
}

// loadConfig resolves configuration for cmd and applies the log settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.Configure(cfg.Verbosity, cfg.VerboseCnt, cfg.Log.Format)
	return cfg, nil
}
