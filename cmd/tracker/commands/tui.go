package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"golang.org/x/sync/errgroup"

	"project-tracker/internal/auth"
	"project-tracker/internal/ui"
)

type TUICommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	key    string
	logout bool
}

// NewTUICommand returns the terminal dashboard command.
func NewTUICommand(rootCmd *RootCommand, app *kingpin.Application) *TUICommand {
	c := &TUICommand{rootCmd: rootCmd}

	c.Cmd = app.Command("tui", "Open the dashboard in the terminal.")
	c.Cmd.Flag("key", "Access key, remembered for later sessions.").Envar("TRACKER_ACCESS_KEY").StringVar(&c.key)
	c.Cmd.Flag("logout", "Forget the remembered access key and exit.").BoolVar(&c.logout)

	return c
}

func (c TUICommand) Name() string { return c.Cmd.FullCommand() }

func (c TUICommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	t, err := newTracker(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer t.ctrl.Close()

	if c.logout {
		if err := t.store.ClearCredential(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.rootCmd.Stdout, "Logged out.")
		return nil
	}

	ring, err := auth.NewKeyRing(t.cfg.AccessKeys)
	if err != nil {
		return err
	}
	key := c.key
	if key == "" {
		key, err = t.store.Credential(ctx)
		if err != nil {
			return err
		}
	}
	if key == "" {
		return fmt.Errorf("no access key, log in with --key")
	}
	tier, err := ring.Lookup(key)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidKey) {
			_ = t.store.ClearCredential(ctx)
		}
		return err
	}
	if err := t.store.SaveCredential(ctx, key); err != nil {
		return err
	}
	logger.Debugf("logged in as %s", tier)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if t.worker != nil {
		g.Go(func() error { return t.worker.Run(ctx) })
	}
	g.Go(func() error {
		defer cancel()
		t.ctrl.Load(ctx)
		return ui.Run(ctx, ui.Config{
			Source:      t.ctrl,
			Engine:      t.engine,
			Preferences: t.store,
			Teams:       t.cfg.Vocabulary.Teams,
			Logger:      logger,
		})
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
