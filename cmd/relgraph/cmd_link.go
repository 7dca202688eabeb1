package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wudai/relgraph/internal/config"
	"github.com/wudai/relgraph/internal/store"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage relations between persons",
	}
	cmd.AddCommand(newLinkAddCmd(), newLinkRmCmd(), newLinkListCmd(), newLinkTypesCmd())
	return cmd
}

func newLinkAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <source-id> <target-id> <type>",
		Short: "Add a relation, e.g. 父子 or 君臣",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			link, err := a.store.AddLink(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			good.Printf("linked %s → %s (%s)\n", link.Source, link.Target, link.Type)
			return nil
		},
	}
}

func newLinkRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [<id>]",
		Short: "Delete a relation by id, or by --source/--target pair",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref store.LinkRef
			if len(args) == 1 {
				ref.ID = args[0]
			} else {
				ref.Source, _ = cmd.Flags().GetString("source")
				ref.Target, _ = cmd.Flags().GetString("target")
				if ref.Source == "" || ref.Target == "" {
					return fmt.Errorf("pass a link id, or both --source and --target")
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteLink(context.Background(), ref); err != nil {
				return err
			}
			good.Println("deleted")
			return nil
		},
	}
	cmd.Flags().String("source", "", "Source node id")
	cmd.Flags().String("target", "", "Target node id")
	return cmd
}

func newLinkListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all relations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.store.Snapshot()
			for _, l := range snap.Links {
				src, dst := l.Source, l.Target
				if n := snap.FindNode(l.Source); n != nil {
					src = n.Name
				}
				if n := snap.FindNode(l.Target); n != nil {
					dst = n.Name
				}
				fmt.Printf("%s → %s", src, dst)
				accent.Printf("  %s", l.Type)
				if l.ID != "" {
					subtle.Printf("  id=%s", l.ID)
				}
				fmt.Println()
			}
			subtle.Printf("%d relations\n", len(snap.Links))
			return nil
		},
	}
}

func newLinkTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Show the preset relation types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadOrDefault(cfgPath)
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(cfg.Content.RelationTypes, "  "))
			return nil
		},
	}
}
