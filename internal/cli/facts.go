package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/spf13/cobra"
)

func putCmd(s *session) *cobra.Command {
	var (
		f          domain.Fact
		scope      string
		tier       string
		sourceType string
	)
	cmd := &cobra.Command{
		Use:   "put <category> <key> <value>",
		Short: "Create or update a fact",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Category, f.Key, f.Value = args[0], args[1], args[2]
			f.Scope = domain.Scope(scope)
			f.Tier = domain.Tier(tier)
			f.SourceType = domain.SourceType(sourceType)
			res, err := s.app.Facts.Upsert(cmd.Context(), &f)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Float64Var(&f.Confidence, "confidence", 1, "Confidence between 0 and 1")
	cmd.Flags().StringVar(&f.Source, "source", "", "Where the fact came from")
	cmd.Flags().StringVar(&scope, "scope", "", "global, project or conversation")
	cmd.Flags().StringVar(&tier, "tier", "", "working, long-term, important, critical or permanent")
	cmd.Flags().StringVar(&sourceType, "source-type", "", "manual, inferred, user_said, tool_output or consolidated")
	return cmd
}

func getCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <category/key>",
		Short: "Show one fact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := s.app.Facts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), f)
		},
	}
}

func rmCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <category/key>",
		Short: "Delete a fact and its relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Facts.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), map[string]string{"removed": args[0]})
		},
	}
}

func listCmd(s *session) *cobra.Command {
	var (
		filter domain.FactFilter
		scope  string
		tier   string
		order  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Scope = domain.Scope(scope)
			filter.Tier = domain.Tier(tier)
			filter.Order = domain.FactOrder(order)
			facts, err := s.app.Facts.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), facts)
		},
	}
	cmd.Flags().StringVarP(&filter.Category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVar(&scope, "scope", "", "Filter by scope")
	cmd.Flags().StringVar(&tier, "tier", "", "Filter by tier")
	cmd.Flags().StringVar(&order, "order", "key", "key or recent")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 0, "Maximum number of facts")
	return cmd
}

func searchCmd(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search keys and values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, err := s.app.Facts.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), facts)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	return cmd
}

func historyCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "history <category/key>",
		Short: "Show the change ledger of one fact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := s.app.Facts.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), entries)
		},
	}
}

func touchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <category/key>",
		Short: "Record an access of a fact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := s.app.Facts.TrackAccess(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), f)
		},
	}
}

func applyCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <file|->",
		Short: "Apply a JSON array of extracted facts",
		Long:  "Validates every candidate before writing any. Each candidate has category, key, value and optional scope, tier, source_type, confidence and ttl (e.g. 30m, 7d).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				r = file
			}
			var candidates []domain.ExtractedFact
			if err := json.NewDecoder(r).Decode(&candidates); err != nil {
				return fmt.Errorf("decode candidates: %w", err)
			}
			results, err := s.app.Facts.ApplyExtracted(cmd.Context(), candidates)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), results)
		},
	}
}
