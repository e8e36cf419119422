package commands

import (
	"context"
	"fmt"

	"gorm.io/gorm/logger"

	"project-tracker/internal/config"
	"project-tracker/internal/converter"
	"project-tracker/internal/database"
	"project-tracker/internal/datasource"
	"project-tracker/internal/derived"
	"project-tracker/internal/normalize"
	"project-tracker/internal/outbox"
	"project-tracker/internal/realtime"
	"project-tracker/internal/remote"
	"project-tracker/internal/sheets"
	"project-tracker/internal/store"
	"project-tracker/internal/validation"
)

// tracker holds the services shared by the serve and tui commands.
type tracker struct {
	cfg    config.Config
	store  *store.Store
	queue  *outbox.Queue
	hub    *realtime.Hub
	ctrl   *datasource.Controller
	engine *derived.Engine
	master *remote.MasterDataService
	// client is nil when no remote URL is configured.
	client *remote.Client
	// worker is nil when there is no remote API to push to.
	worker *outbox.Worker
	kick   func()
}

func newTracker(ctx context.Context, root RootCommand) (*tracker, error) {
	cfg, err := root.Config()
	if err != nil {
		return nil, err
	}
	lg := root.Logger

	level := logger.Warn
	if root.Debug {
		level = logger.Info
	}
	db, err := database.Open(cfg.DBPath, level)
	if err != nil {
		return nil, fmt.Errorf("could not open local store: %w", err)
	}

	t := &tracker{
		cfg:    cfg,
		store:  store.New(db),
		queue:  outbox.NewQueue(db),
		hub:    realtime.NewHub(lg),
		engine: derived.NewEngine(cfg.Palette, cfg.Vocabulary.Teams),
	}

	var client *remote.Client
	if cfg.RemoteURL != "" {
		client, err = remote.NewClient(remote.ClientConfig{
			BaseURL: cfg.RemoteURL,
			Timeout: cfg.RemoteTimeout,
			Logger:  lg,
		})
		if err != nil {
			return nil, err
		}
	}

	var source datasource.Source
	switch cfg.Source {
	case config.SourceSheets:
		s, err := sheets.NewSource(ctx, sheets.SourceConfig{
			SpreadsheetID:   cfg.SheetsID,
			CredentialsFile: cfg.SheetsCredentials,
			APIKey:          cfg.SheetsAPIKey,
			Logger:          lg,
		})
		if err != nil {
			return nil, err
		}
		source = s
	default:
		if client != nil {
			source = client
		} else {
			lg.Warningf("no remote URL configured, running on the local backup")
		}
	}

	t.master, err = remote.NewMasterDataService(remote.MasterDataServiceConfig{
		Client:   client,
		Fallback: cfg.Vocabulary,
		TTL:      cfg.MasterDataTTL,
		Logger:   lg,
	})
	if err != nil {
		return nil, err
	}

	// The worker and the controller call each other; the closure breaks the cycle.
	var ctrl *datasource.Controller
	kick := func() {}
	var sink datasource.Outbox
	if client != nil {
		t.worker, err = outbox.NewWorker(outbox.WorkerConfig{
			Queue:       t.queue,
			Sender:      client,
			Interval:    cfg.OutboxInterval,
			MaxAttempts: cfg.OutboxMaxAttempts,
			OnResult:    func(r outbox.Result) { ctrl.HandleSyncResult(r) },
			Logger:      lg,
		})
		if err != nil {
			return nil, err
		}
		kick = t.worker.Kick
		sink = t.queue
	}

	norm := normalize.New(cfg.Location(), nil)
	ctrl, err = datasource.New(datasource.Config{
		Source:         source,
		Converter:      converter.New(norm, cfg.Converter),
		Normalizer:     norm,
		Validator:      validation.New(norm, nil),
		Backups:        t.store,
		Outbox:         sink,
		Kick:           kick,
		Publisher:      t.hub,
		Timeout:        cfg.RemoteTimeout,
		ReconcileDelay: cfg.ReconcileDelay,
		Logger:         lg,
	})
	if err != nil {
		return nil, err
	}
	t.ctrl = ctrl
	t.client = client
	t.kick = kick
	return t, nil
}
