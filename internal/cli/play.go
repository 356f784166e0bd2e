package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"activity-kiosk/internal/adapters/preload"
	"activity-kiosk/internal/adapters/terminal"
	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/usecase/rotation"
)

const clearScreen = "\033[H\033[2J"

// PlayCommand крутит слайды в терминале тем же движком, что и экран.
type PlayCommand struct {
	*Env
	Interval time.Duration
	Settle   time.Duration
	Duration time.Duration
	NoClear  bool
}

func (c *PlayCommand) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "play",
		Short: "Play the slide rotation in the terminal",
		Long: `Play the slide rotation in the terminal until interrupted.

Slide images are preloaded exactly as on the kiosk screen; a failed image
load does not stop the rotation.

Example:
  kioskctl play
  kioskctl play --interval 3s --duration 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	command.Flags().DurationVar(&c.Interval, "interval", 0, "Time per slide (default DISPLAY_INTERVAL)")
	command.Flags().DurationVar(&c.Settle, "settle", 0, "Crossfade settle time (default DISPLAY_SETTLE)")
	command.Flags().DurationVar(&c.Duration, "duration", 0, "Stop after this long (0 plays until interrupted)")
	command.Flags().BoolVar(&c.NoClear, "no-clear", false, "Do not clear the screen between frames")
	parent.AddCommand(command)
}

func (c *PlayCommand) Run(ctx context.Context, out io.Writer) error {
	if !c.App.HasToken() {
		return domain.ErrMissingToken
	}
	interval, settle := c.Interval, c.Settle
	if interval <= 0 {
		interval = c.App.Config.Display.Interval
	}
	if settle <= 0 {
		settle = c.App.Config.Display.Settle
	}
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	res := c.App.Slides.Slides(ctx)
	items := rotation.ItemsFromSlides(res.Slides, c.App.Renderer.Images().URL)

	loop := rotation.NewLoop()
	engine := rotation.NewEngine(items, loop, preload.New(c.Log), rotation.Options{
		Interval: interval,
		Settle:   settle,
		OnChange: func(s rotation.Snapshot) {
			if !c.NoClear {
				fmt.Fprint(out, clearScreen)
			}
			fmt.Fprintln(out, terminal.RenderSlide(s))
		},
	})
	if engine.Len() == 0 {
		fmt.Fprintln(out, terminal.RenderSlide(rotation.Snapshot{}))
		return nil
	}
	loop.Post(engine.Start)

	err := loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
