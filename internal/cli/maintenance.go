package cli

import (
	"github.com/Harshitk-cp/factstore/internal/service"
	"github.com/spf13/cobra"
)

func consolidateCmd(s *session) *cobra.Command {
	opts := service.DefaultConsolidationOptions()
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge near-duplicate facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.app.Consolidation.Consolidate(cmd.Context(), opts)
			if result != nil {
				if perr := s.print(cmd.OutOrStdout(), result); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report without writing")
	cmd.Flags().Float64Var(&opts.SimilarityThreshold, "threshold", opts.SimilarityThreshold, "Similarity required to merge")
	cmd.Flags().BoolVar(&opts.CompressLong, "compress", false, "Shorten values over 200 characters")
	cmd.Flags().BoolVar(&opts.AutoPrioritize, "prioritize", false, "Promote frequently accessed facts")
	return cmd
}

func forgetCmd(s *session) *cobra.Command {
	opts := service.DefaultForgettingOptions()
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Apply the forgetting curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.app.Forgetting.Run(cmd.Context(), opts)
			if result != nil {
				if perr := s.print(cmd.OutOrStdout(), result); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report without writing")
	cmd.Flags().Float64Var(&opts.DecayRate, "decay-rate", opts.DecayRate, "Daily decay rate")
	cmd.Flags().Float64Var(&opts.PruneThreshold, "prune-threshold", opts.PruneThreshold, "Archive below this confidence")
	cmd.Flags().Float64Var(&opts.GraceDays, "grace-days", opts.GraceDays, "Days without access before decay starts")
	return cmd
}

func expireCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Delete expired working facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := s.app.Expirer.ExpireWorking(cmd.Context())
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), map[string]int64{"expired": n})
		},
	}
}

func reindexCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := s.app.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), map[string]int{"indexed": n})
		},
	}
}
