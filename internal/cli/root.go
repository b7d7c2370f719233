// Package cli implements the chatpulse command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/internal/logger"
	"github.com/cognicore/chatpulse/pkg/chatpulse"
	"github.com/cognicore/chatpulse/pkg/chatpulse/config"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store/memstore"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store/sqlite"
)

// app carries state shared by every subcommand.
type app struct {
	cfgFile   string
	dbPath    string
	logLevel  string
	logFormat string

	cfg    config.Config
	logger *log.Logger
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "chatpulse",
		Short: "Community chat analytics: topics, members and weekly reports",
		Long: `chatpulse stores chat messages for community servers and summarizes them:
ranked discussion topics (frequent phrases absorb their words), active and
influential members, daily volume trends and weekly reports.

Example usage:
  chatpulse import exports/**/*.jsonl     # Load exported history
  chatpulse topics --server guild-1       # Top topics of the last 7 days
  chatpulse report --server guild-1       # Generate and store a weekly report`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (.yaml, .yml or .toml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "sqlite database path (overrides store.path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format: text, json, logfmt")

	root.AddCommand(
		a.importCommand(),
		a.topicsCommand(),
		a.membersCommand(),
		a.statsCommand(),
		a.reportCommand(),
		a.pruneCommand(),
		a.stopwordsCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.cfg = config.Default()
	if a.cfgFile != "" {
		cfg, err := config.Load(a.cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}
	if a.dbPath != "" {
		a.cfg.Store.Driver = config.DriverSQLite
		a.cfg.Store.Path = a.dbPath
	}

	levelName := a.cfg.Log.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}
	formatter, err := logger.ParseFormatter(a.logFormat)
	if err != nil {
		return err
	}
	a.logger = logger.NewWithConfig(cmd.ErrOrStderr(), "chatpulse", level, formatter)
	return nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		return memstore.New(), nil
	default:
		st, err := sqlite.OpenSQLite(ctx, a.cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return st, nil
	}
}

func (a *app) openEngine(ctx context.Context) (*chatpulse.Engine, *config.Components, error) {
	comp, err := (&config.Loader{Config: a.cfg}).Load()
	if err != nil {
		return nil, nil, err
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	engine, err := chatpulse.New(chatpulse.Options{
		Store:     st,
		Extractor: comp.Extractor,
		Builder:   comp.Builder,
		Format:    comp.Format,
		Location:  comp.Location,
		Logger:    a.logger,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	a.logger.Debug("opened store", "driver", a.cfg.Store.Driver, "path", a.cfg.Store.Path)
	return engine, comp, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
