package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"Pixboard/internal/client/notify"
	"Pixboard/internal/client/postcard"
	"Pixboard/internal/core/votes"
)

func arrow(dir votes.Direction) string {
	switch dir {
	case votes.DirectionUp:
		return "▲"
	case votes.DirectionDown:
		return "▼"
	}
	return "·"
}

func printCard(out io.Writer, v postcard.View) {
	fmt.Fprintf(out, "%s %+d  %s  [%s] by %s\n", arrow(v.Direction), v.Score, v.Post.Title, v.Post.ID, v.Post.AuthorName)
	fmt.Fprintf(out, "    %d up / %d down, %d comments", v.Tally.Upvotes, v.Tally.Downvotes, v.CommentCount)
	if len(v.Post.Tags) > 0 {
		fmt.Fprintf(out, ", tags: %s", strings.Join(v.Post.Tags, ", "))
	}
	fmt.Fprintln(out)
}

func printComments(out io.Writer, v postcard.View) {
	if len(v.Comments) == 0 {
		fmt.Fprintln(out, "    (no comments)")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range v.Comments {
		marker := ""
		if c.Provisional {
			marker = " (sending)"
		}
		fmt.Fprintf(tw, "    %s\t%s\t%s%s\n", c.ID, c.AuthorID, c.Body, marker)
	}
	_ = tw.Flush()
}

// flushNotifications prints the toasts raised during the command
func (a *app) flushNotifications() {
	if a.center == nil {
		return
	}
	for _, n := range a.center.Active() {
		label := "info"
		switch n.Status {
		case notify.StatusSuccess:
			label = "ok"
		case notify.StatusError:
			label = "error"
		}
		fmt.Fprintf(a.out, "[%s] %s: %s\n", label, n.Title, n.Description)
	}
}
