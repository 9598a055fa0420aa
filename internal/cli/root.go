package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Harshitk-cp/factstore/internal/app"
	"github.com/Harshitk-cp/factstore/internal/buildconfig"
	"github.com/Harshitk-cp/factstore/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session carries the app opened for the running command.
type session struct {
	app    *app.App
	logger *zap.Logger
}

func (s *session) print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewRootCmd builds the factctl command tree. Every subcommand except
// version opens the store configured in the environment and prints JSON.
func NewRootCmd() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:           "factctl",
		Short:         "Inspect and maintain a fact store",
		Long:          "factctl reads and writes the same database and search index as the server. Output is JSON.",
		Version:       buildconfig.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["no-store"] == "true" {
				return nil
			}
			if err := config.Load(); err != nil {
				return err
			}
			logger, err := newLogger(config.LogLevel())
			if err != nil {
				return err
			}
			opts, err := app.OptionsFromEnv()
			if err != nil {
				return err
			}
			a, err := app.Open(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			s.app, s.logger = a, logger
			return nil
		},
	}

	root.AddCommand(
		versionCmd(s),
		putCmd(s), getCmd(s), rmCmd(s), listCmd(s), searchCmd(s),
		historyCmd(s), touchCmd(s), applyCmd(s),
		linkCmd(s), unlinkCmd(s), neighborsCmd(s), walkCmd(s),
		consolidateCmd(s), forgetCmd(s), expireCmd(s), reindexCmd(s),
		timelineCmd(s), changelogCmd(s), patternsCmd(s), archiveCmd(s),
		eventCmd(s), sessionCmd(s), projectCmd(s),
	)
	for _, c := range root.Commands() {
		c.RunE = s.closing(c.RunE)
	}
	return root
}

// closing releases the opened app after run returns, including on error.
func (s *session) closing(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if s.app == nil {
			return err
		}
		_ = s.logger.Sync()
		cerr := s.app.Close()
		s.app = nil
		if err != nil {
			return err
		}
		return cerr
	}
}

func versionCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"no-store": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.print(cmd.OutOrStdout(), buildconfig.Get())
		},
	}
}

// newLogger returns a production logger writing to stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
