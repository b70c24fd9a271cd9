package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Pixboard/internal/client/commentstore"
	"Pixboard/internal/client/notify"
	"Pixboard/internal/client/postcard"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/client/session"
	"Pixboard/internal/client/votecoord"
	"Pixboard/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// execute runs one CLI invocation and prints the notifications it raised,
// including those from a failed command
func execute(ctx context.Context, out io.Writer, args []string) error {
	root, a := newRootCmd(out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.flushNotifications()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// app is the client stack shared by every command of one invocation
type app struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	session  session.Session
	client   *remote.Client
	center   *notify.Center
	comments *commentstore.Store
	votes    *votecoord.Coordinator
	out      io.Writer
}

func (a *app) deps() postcard.Deps {
	return postcard.Deps{
		Comments: a.comments,
		Votes:    a.votes,
		Auth:     a.session,
		Notifier: a.center,
		Logger:   a.logger,
	}
}

type rootFlags struct {
	apiURL  string
	token   string
	verbose bool
}

func newRootCmd(out io.Writer) (*cobra.Command, *app) {
	var (
		flags rootFlags
		a     = &app{out: out}
	)

	root := &cobra.Command{
		Use:           "pixboard",
		Short:         "Browse and interact with Pixboard image posts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(flags)
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "API base URL (default $PIXBOARD_API_URL)")
	root.PersistentFlags().StringVar(&flags.token, "token", "", "bearer token (default $PIXBOARD_TOKEN)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log client activity to stderr")

	root.AddCommand(
		newFeedCmd(a),
		newCommentsCmd(a),
		newCommentCmd(a),
		newUncommentCmd(a),
		newVoteCmd(a),
		newDashboardCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newTokenCmd(a),
	)
	return root, a
}

func (a *app) init(flags rootFlags) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.apiURL != "" {
		cfg.Client.APIURL = flags.apiURL
	}
	if flags.token != "" {
		cfg.Client.Token = flags.token
	}
	a.cfg = cfg

	a.logger = zap.NewNop().Sugar()
	if flags.verbose {
		base, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = base.Sugar()
	}

	a.session = session.Anonymous
	if cfg.Client.Token != "" {
		s, err := session.NewTokenSession(cfg.Client.Token)
		if err != nil {
			return err
		}
		a.session = s
	}

	a.client, err = remote.NewClient(remote.Config{
		Tokens:    a.session,
		Logger:    a.logger.Named("remote"),
		BaseURL:   cfg.Client.APIURL,
		Timeout:   cfg.Client.Timeout,
		RetryMax:  cfg.Client.RetryMax,
		RetryWait: cfg.Client.RetryWait,
	})
	if err != nil {
		return err
	}

	a.center = notify.NewCenter()
	a.comments = commentstore.New(a.client, a.logger.Named("comments"))
	a.votes = votecoord.New(a.client, a.session, a.logger.Named("votes"))
	return nil
}
