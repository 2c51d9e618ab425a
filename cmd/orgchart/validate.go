package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/normalize"
	"github.com/ritzau/orgchart/pkg/output"
	"github.com/ritzau/orgchart/pkg/validate"
)

var errValidationFailed = errors.New("validation failed")

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <feed.json>",
		Short: "Normalize a chart feed and report integrity problems",
		Long: "Normalize a chart feed and report integrity problems.\n" +
			"Use - to read the feed from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			g, warnings, err := readFeed(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			report := validate.Diagnose(g)
			output.PrintValidationReport(cmd.OutOrStdout(), args[0], report, warnings)

			if strict && !report.IsValid {
				return fmt.Errorf("%w: %d error(s)", errValidationFailed, len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the graph has validation errors")
	return cmd
}

// readFeed loads and normalizes a feed file, or stdin for "-".
func readFeed(stdin io.Reader, path string) (*model.Graph, []normalize.Warning, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading feed: %w", err)
	}
	return normalize.NormalizeJSON(data)
}
