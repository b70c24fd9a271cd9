package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"Pixboard/internal/api/middleware"
	"Pixboard/internal/client/dashboard"
	"Pixboard/internal/client/postcard"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

// card loads a single post and wraps it in a presenter
func (a *app) card(ctx context.Context, postID string) (*postcard.Presenter, error) {
	post, err := a.client.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return postcard.New(post, a.deps()), nil
}

// openCard loads a post and its thread
func (a *app) openCard(ctx context.Context, postID string) (*postcard.Presenter, error) {
	p, err := a.card(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := p.ToggleComments(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newFeedCmd(a *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List the newest posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.ListFeed(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			for _, post := range list {
				printCard(a.out, postcard.New(post, a.deps()).View())
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No posts yet.")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum posts to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "posts to skip")
	return cmd
}

func newCommentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <post>",
		Short: "Show a post's comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := p.View()
			printCard(a.out, view)
			printComments(a.out, view)
			return nil
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post> <body>",
		Short: "Add a comment to a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := p.AddComment(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Comment %s added.\n", c.ID)
			view := p.View()
			printCard(a.out, view)
			printComments(a.out, view)
			return nil
		},
	}
}

func newUncommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uncomment <post> <comment>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openCard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := p.DeleteComment(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Comment %s deleted.\n", args[1])
			view := p.View()
			printCard(a.out, view)
			printComments(a.out, view)
			return nil
		},
	}
}

func newVoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <post> up|down",
		Short: "Click the up or down arrow on a post; clicking your current vote retracts it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := votes.ParseDirection(args[1])
			if err != nil || !direction.IsClickable() {
				return fmt.Errorf("direction must be up or down, got %q", args[1])
			}
			p, err := a.card(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := p.Vote(cmd.Context(), direction); err != nil {
				return err
			}
			printCard(a.out, p.View())
			return nil
		},
	}
}

func (a *app) loadDashboard(ctx context.Context) (*dashboard.Dashboard, error) {
	d := dashboard.New(a.client, a.deps())
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func newDashboardCmd(a *app) *cobra.Command {
	var withComments bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "List your uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if withComments {
				_ = d.PrefetchComments(cmd.Context())
			}
			views := d.Views()
			for _, view := range views {
				printCard(a.out, view)
				if withComments {
					printComments(a.out, view)
				}
			}
			if len(views) == 0 {
				fmt.Fprintln(a.out, "You have no uploads.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withComments, "comments", false, "also load every thread")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		title, description, category string
		tags                         []string
	)
	cmd := &cobra.Command{
		Use:   "edit <post>",
		Short: "Edit one of your uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update posts.PostUpdate
			if cmd.Flags().Changed("title") {
				update.Title = &title
			}
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}
			if cmd.Flags().Changed("category") {
				update.Category = &category
			}
			if cmd.Flags().Changed("tag") {
				update.Tags = tags
			}

			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := d.EditPost(cmd.Context(), args[0], update); err != nil {
				return err
			}
			if card, ok := d.Card(args[0]); ok {
				printCard(a.out, card.View())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replace tags (repeatable)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post>",
		Short: "Delete one of your uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			return d.DeletePost(cmd.Context(), args[0])
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		userID, name string
		ttl          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token signed with $JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Server.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := middleware.IssueToken([]byte(a.cfg.Server.JWTSecret), userID, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID (token subject)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
