package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"project-tracker/internal/auth"
	"project-tracker/internal/config"
	"project-tracker/internal/handlers"
	"project-tracker/internal/routes"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve the dashboard API.").Default()
	c.Cmd.Flag("listen-address", "Address the HTTP API listens on.").Default(config.Default().ListenAddress).StringVar(&rootCmd.Runtime.ListenAddress)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	t, err := newTracker(ctx, *c.rootCmd)
	if err != nil {
		return err
	}
	defer t.ctrl.Close()

	ring, err := auth.NewKeyRing(t.cfg.AccessKeys)
	if err != nil {
		return err
	}
	if ring.Len() == 0 {
		logger.Warningf("no access keys configured, nobody will be able to log in")
	}

	hcfg := handlers.Config{
		Controller:  t.ctrl,
		Engine:      t.engine,
		Preferences: t.store,
		KeyRing:     ring,
		Hub:         t.hub,
		Master:      t.master,
		Vocabulary:  t.cfg.Vocabulary,
		Operations:  t.queue,
		Kick:        t.kick,
		Logger:      logger,
	}
	if t.client != nil {
		hcfg.Remote = t.client
	}
	h, err := handlers.New(hcfg)
	if err != nil {
		return fmt.Errorf("could not create handlers: %w", err)
	}

	st := t.ctrl.Load(ctx)
	logger.Infof("initial load: %s from %s, %d tasks", st.State, st.Source, st.Count)

	server := &http.Server{
		Addr:              t.cfg.ListenAddress,
		Handler:           routes.SetupRoutes(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group

	// HTTP API.
	{
		g.Add(
			func() error {
				logger.Infof("listening on %s", t.cfg.ListenAddress)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			},
			func(_ error) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(ctx)
			},
		)
	}

	// Outbox worker.
	if t.worker != nil {
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error { return t.worker.Run(ctx) },
			func(_ error) { cancel() },
		)
	}

	// Parent context.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-ctx.Done()
				return nil
			},
			func(_ error) { cancel() },
		)
	}

	return g.Run()
}
