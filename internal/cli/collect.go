package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"activity-kiosk/internal/adapters/render"
	"activity-kiosk/internal/domain"
)

// CollectCommand печатает слайды в JSON.
type CollectCommand struct {
	*Env
	NoCache bool
}

type collectOutput struct {
	GeneratedAt int64              `json:"generatedAt"`
	FromCache   bool               `json:"fromCache"`
	Slides      []render.SlideView `json:"slides"`
}

func (c *CollectCommand) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "collect",
		Short: "Collect slides and print them as JSON",
		Long: `Collect merged pull requests and releases of the last week.

By default a fresh cached list is reused; --no-cache always asks GitHub
and rewrites the cache.

Example:
  kioskctl collect
  kioskctl collect --no-cache --repo acme/api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	command.Flags().BoolVar(&c.NoCache, "no-cache", false, "Ignore the cached list and collect from GitHub")
	parent.AddCommand(command)
}

func (c *CollectCommand) Run(ctx context.Context, out io.Writer) error {
	if !c.App.HasToken() {
		return domain.ErrMissingToken
	}
	refresh := c.App.Slides.Slides
	if c.NoCache {
		refresh = c.App.Slides.Refresh
	}
	res := refresh(ctx)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(collectOutput{
		GeneratedAt: res.GeneratedAt.Unix(),
		FromCache:   res.FromCache,
		Slides:      c.App.Renderer.Images().Views(res.Slides),
	})
}
