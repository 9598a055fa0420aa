package cli

import (
	"strings"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/service"
	"github.com/spf13/cobra"
)

func timelineCmd(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "timeline <phrase>",
		Short:   "Show what changed in a time range",
		Example: `  factctl timeline "last tuesday"` + "\n" + `  factctl timeline 3 days ago`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.app.Temporal.Query(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultTemporalLimit, "Maximum records across facts, events and projects")
	return cmd
}

func changelogCmd(s *session) *cobra.Command {
	var q service.ChangelogQuery
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Show recent value changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := s.app.Changelog.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), cl)
		},
	}
	cmd.Flags().StringVarP(&q.Keyword, "keyword", "k", "", "Only keys containing this text")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", service.DefaultChangelogLimit, "Maximum entries")
	return cmd
}

func patternsCmd(s *session) *cobra.Command {
	var opts service.PatternOptions
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Correlate session styles with logged outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := s.app.Patterns.Analyze(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&opts.Days, "days", service.DefaultPatternDays, "Look-back window in days")
	cmd.Flags().IntVar(&opts.MinSessions, "min-sessions", service.DefaultPatternMinSessions, "Sessions a style needs before it is analyzed")
	return cmd
}

func archiveCmd(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List facts archived by the forgetting curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := s.app.Activity.ListArchive(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries")
	return cmd
}

func eventCmd(s *session) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "event <type> <message>",
		Short: "Log an event such as a mistake or decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := &domain.Event{EventType: args[0], Message: args[1], Category: category}
			if err := s.app.Activity.RecordEvent(cmd.Context(), e); err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), e)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Event category")
	return cmd
}

func sessionCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "session <style>",
		Short: "Record the start of a working session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := &domain.Session{Style: args[0]}
			if err := s.app.Activity.RecordSession(cmd.Context(), sess); err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), sess)
		},
	}
}

func projectCmd(s *session) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "project <name>",
		Short: "Create or refresh a project record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Project{Name: args[0], Status: status}
			if err := s.app.Activity.UpsertProject(cmd.Context(), p); err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&status, "status", "active", "Project status")
	return cmd
}
