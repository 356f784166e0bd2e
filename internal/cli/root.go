// Package cli команды kioskctl.
package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"activity-kiosk/internal/app"
	"activity-kiosk/internal/infra/config"
	logpkg "activity-kiosk/internal/infra/log"
)

// Command регистрирует себя в родительской команде.
type Command interface {
	Register(parent *cobra.Command)
}

// Env общее состояние команд, заполняется перед запуском подкоманды.
type Env struct {
	App *app.App
	Log zerolog.Logger

	verbose bool
	repos   []string
}

// NewRoot собирает корневую команду kioskctl.
func NewRoot(out io.Writer) *cobra.Command {
	env := &Env{}
	root := &cobra.Command{
		Use:   "kioskctl",
		Short: "Operator tool for the engineering activity kiosk",
		Long: `kioskctl collects slides, plays the rotation in a terminal
and prints dashboard statistics using the same configuration as the kiosk.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.App != nil {
				env.App.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "Log at info level to stderr")
	root.PersistentFlags().StringSliceVar(&env.repos, "repo", nil, "Watched repository owner/name (overrides REPOS and REPOS_FILE)")

	commands := []Command{
		&CollectCommand{Env: env},
		&PlayCommand{Env: env},
		&StatsCommand{Env: env},
	}
	for _, c := range commands {
		c.Register(root)
	}
	return root
}

func (e *Env) open(ctx context.Context) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if len(e.repos) > 0 {
		cfg.Repos.File = ""
		cfg.Repos.List = e.repos
	}
	e.Log = logpkg.NewCLILogger(cfg.AppEnv, e.verbose)
	e.App, err = app.New(ctx, cfg, e.Log)
	return err
}

// Execute запускает kioskctl.
func Execute(ctx context.Context, out io.Writer) error {
	return NewRoot(out).ExecuteContext(ctx)
}
