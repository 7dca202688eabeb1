package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wudai/relgraph/internal/layout"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the graph overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			withPositions, _ := cmd.Flags().GetBool("positions")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.store.Snapshot()

			brand.Println("五代十国人物关系图")
			fmt.Printf("%d persons, %d relations, %d comments\n",
				len(snap.Nodes), len(snap.Links), snap.CommentCount())

			var positions map[string]layout.Point
			if withPositions {
				bridge := layout.NewBridge(nil)
				positions = bridge.Apply(snap, 1200, 800)
			}

			for _, n := range snap.Nodes {
				marker := "○"
				if n.IsCenter {
					marker = "◉"
				}
				fmt.Printf("%s %s", marker, n.Name)
				if n.Position != "" {
					accent.Printf(" %s", n.Position)
				}
				if p, ok := positions[n.ID]; ok {
					subtle.Printf("  (%.0f, %.0f)", p.X, p.Y)
				}
				fmt.Println()
				for _, l := range snap.Links {
					if l.Source != n.ID {
						continue
					}
					name := l.Target
					if t := snap.FindNode(l.Target); t != nil {
						name = t.Name
					}
					subtle.Printf("   └ %s → %s\n", l.Type, name)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("positions", false, "Include layout coordinates")
	return cmd
}
