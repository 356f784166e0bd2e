package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"activity-kiosk/internal/adapters/terminal"
	"activity-kiosk/internal/domain"
)

// StatsCommand печатает статистику дашборда.
type StatsCommand struct {
	*Env
	JSON    bool
	NoCache bool
}

func (c *StatsCommand) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "stats",
		Short: "Print commit and contributor statistics",
		Long: `Print commits since the start of the lookback window and the top
contributors per repository. With GITHUB_ORG set every repository of the
organization is included.

Example:
  kioskctl stats
  kioskctl stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	command.Flags().BoolVar(&c.JSON, "json", false, "Print the report as JSON")
	command.Flags().BoolVar(&c.NoCache, "no-cache", false, "Ignore the cached report")
	parent.AddCommand(command)
}

func (c *StatsCommand) Run(ctx context.Context, out io.Writer) error {
	if !c.App.HasToken() {
		return domain.ErrMissingToken
	}
	var report domain.StatsReport
	if c.NoCache {
		report = c.App.Stats.Build(ctx)
	} else {
		report = c.App.Stats.Report(ctx)
	}
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := fmt.Fprintln(out, terminal.RenderStats(report))
	return err
}
