package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wudai/relgraph/internal/model"
)

func newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"c"},
		Short:   "Read and write the comment board",
	}
	cmd.AddCommand(
		newCommentListCmd(),
		newCommentAddCmd(),
		newCommentReplyCmd(),
		newCommentEditCmd(),
		newCommentRmCmd(),
		newCommentLikeCmd(),
	)
	return cmd
}

func newCommentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			sortMode, _ := cmd.Flags().GetString("sort")
			mode := model.SortTime
			if sortMode == "hot" {
				mode = model.SortHot
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.store.Snapshot()
			now := time.Now()
			for _, c := range snap.SortedComments(mode) {
				brand.Printf("%s", c.Author)
				subtle.Printf("  %s", relTime(c.CreatedAt, now))
				if c.EditedAt > 0 {
					subtle.Printf("  (已编辑)")
				}
				if c.Likes > 0 {
					accent.Printf("  ♥%d", c.Likes)
				}
				subtle.Printf("  id=%s", c.ID)
				fmt.Printf("\n  %s\n", c.Content)
				for _, r := range c.Replies {
					subtle.Printf("  └ %s %s: ", r.Author, relTime(r.CreatedAt, now))
					fmt.Println(r.Content)
				}
			}
			subtle.Printf("%d comments\n", snap.CommentCount())
			return nil
		},
	}
	cmd.Flags().String("sort", "time", "Sort order: time or hot")
	return cmd
}

func newCommentAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Post a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			author, _ := cmd.Flags().GetString("author")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.store.AddComment(context.Background(), author, args[0])
			if err != nil {
				return err
			}
			good.Printf("posted as %s", c.Author)
			subtle.Printf("  id=%s\n", c.ID)
			return nil
		},
	}
	cmd.Flags().String("author", "", "Display name (default 匿名)")
	return cmd
}

func newCommentReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <comment-id> <content>",
		Short: "Reply to a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.store.AddReply(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			good.Println("replied")
			return nil
		},
	}
}

func newCommentEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <content>",
		Short: "Edit your comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.EditComment(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			good.Println("edited")
			return nil
		},
	}
}

func newCommentRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete your comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteComment(context.Background(), args[0]); err != nil {
				return err
			}
			good.Println("deleted")
			return nil
		},
	}
}

func newCommentLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Toggle your like on a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			liked, likes, err := a.store.ToggleLike(context.Background(), args[0])
			if err != nil {
				return err
			}
			if liked {
				good.Printf("liked (♥%d)\n", likes)
			} else {
				subtle.Printf("unliked (♥%d)\n", likes)
			}
			return nil
		},
	}
}
