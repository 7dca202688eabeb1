package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wudai/relgraph/internal/store"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage persons in the graph",
	}
	cmd.AddCommand(newNodeAddCmd(), newNodeEditCmd(), newNodeRmCmd(), newNodeListCmd())
	return cmd
}

func nodeFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("position", "", "Title or office, e.g. 后唐庄宗")
	cmd.Flags().String("birth", "", "Birth year")
	cmd.Flags().String("death", "", "Death year")
	cmd.Flags().String("personality", "", "Personality sketch")
}

func nodeFieldsFromFlags(cmd *cobra.Command, name string) store.NodeFields {
	position, _ := cmd.Flags().GetString("position")
	birth, _ := cmd.Flags().GetString("birth")
	death, _ := cmd.Flags().GetString("death")
	personality, _ := cmd.Flags().GetString("personality")
	return store.NodeFields{
		Name:        name,
		Position:    position,
		BirthYear:   birth,
		DeathYear:   death,
		Personality: personality,
	}
}

func newNodeAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			node, err := a.store.AddNode(context.Background(), nodeFieldsFromFlags(cmd, args[0]))
			if err != nil {
				return err
			}
			good.Printf("added %s", node.Name)
			subtle.Printf("  id=%s\n", node.ID)
			return nil
		},
	}
	nodeFieldFlags(cmd)
	return cmd
}

func newNodeEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id> <name>",
		Short: "Update a person's fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.UpdateNode(context.Background(), args[0], nodeFieldsFromFlags(cmd, args[1])); err != nil {
				return err
			}
			good.Println("updated")
			return nil
		},
	}
	nodeFieldFlags(cmd)
	return cmd
}

func newNodeRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a person and every relation touching them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteNode(context.Background(), args[0]); err != nil {
				return err
			}
			good.Println("deleted")
			return nil
		},
	}
}

func newNodeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all persons",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.store.Snapshot()
			now := time.Now()
			for _, n := range snap.Nodes {
				if n.IsCenter {
					brand.Printf("◉ %s", n.Name)
				} else {
					fmt.Printf("○ %s", n.Name)
				}
				if n.Position != "" {
					accent.Printf("  %s", n.Position)
				}
				if n.BirthYear != "" || n.DeathYear != "" {
					subtle.Printf("  %s–%s", n.BirthYear, n.DeathYear)
				}
				if n.CreatedAt > 0 {
					subtle.Printf("  %s", relTime(n.CreatedAt, now))
				}
				subtle.Printf("  id=%s", n.ID)
				fmt.Println()
			}
			subtle.Printf("%d persons, %d relations\n", len(snap.Nodes), len(snap.Links))
			return nil
		},
	}
}
