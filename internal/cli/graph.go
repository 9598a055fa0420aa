package cli

import (
	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/service"
	"github.com/spf13/cobra"
)

func linkCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "link <from> <to> <relation_type>",
		Short: "Relate two facts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, created, err := s.app.Graph.Link(cmd.Context(), args[0], args[1], domain.RelationType(args[2]))
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), map[string]any{"relation": rel, "created": created})
		},
	}
}

func unlinkCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <from> <to> <relation_type>",
		Short: "Remove a relation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Graph.Unlink(cmd.Context(), args[0], args[1], domain.RelationType(args[2])); err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), map[string]bool{"removed": true})
		},
	}
}

func neighborsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors <category/key>",
		Short: "Show incoming and outgoing relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := s.app.Graph.Neighbors(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), n)
		},
	}
}

func walkCmd(s *session) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "walk <category/key>",
		Short: "Breadth-first walk of the relation graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := s.app.Graph.Walk(cmd.Context(), args[0], depth)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), nodes)
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", service.DefaultWalkDepth, "Maximum hops (1-5)")
	return cmd
}
