// Package handlers implements the tracker's HTTP API on top of the data source
// controller and the derived-state engine.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/auth"
	"project-tracker/internal/config"
	"project-tracker/internal/datasource"
	"project-tracker/internal/derived"
	"project-tracker/internal/importer"
	"project-tracker/internal/log"
	"project-tracker/internal/models"
	"project-tracker/internal/realtime"
	"project-tracker/internal/remote"
)

// PreferenceStore persists the UI toggles.
type PreferenceStore interface {
	Preferences(ctx context.Context) (models.Preferences, error)
	SavePreferences(ctx context.Context, p models.Preferences) error
}

// MasterData serves the admin-managed vocabularies.
type MasterData interface {
	Get(ctx context.Context, offline bool) remote.MasterData
	Invalidate()
}

// OperationStore exposes the outbox to the settings view.
type OperationStore interface {
	Failed(ctx context.Context) ([]models.Operation, error)
	Retry(ctx context.Context, id string) error
}

// Pinger checks the remote API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config is the configuration of Handler.
type Config struct {
	Controller  *datasource.Controller
	Engine      *derived.Engine
	Preferences PreferenceStore
	KeyRing     *auth.KeyRing
	Hub         *realtime.Hub
	// Master is optional, the configured vocabulary is served without it.
	Master     MasterData
	Vocabulary config.Vocabulary
	// Operations is optional.
	Operations OperationStore
	// Remote is optional, login reports it as unconfigured without it.
	Remote Pinger
	Kick   func()
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Controller == nil {
		return fmt.Errorf("controller is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if c.Preferences == nil {
		return fmt.Errorf("preference store is required")
	}
	if c.KeyRing == nil {
		return fmt.Errorf("key ring is required")
	}
	if c.Hub == nil {
		c.Hub = realtime.NewHub(c.Logger)
	}
	if c.Kick == nil {
		c.Kick = func() {}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "handlers.Handler"})
	return nil
}

// Handler holds the HTTP endpoints.
type Handler struct {
	ctrl       *datasource.Controller
	engine     *derived.Engine
	prefs      PreferenceStore
	keys       *auth.KeyRing
	hub        *realtime.Hub
	master     MasterData
	vocabulary config.Vocabulary
	ops        OperationStore
	remote     Pinger
	kick       func()
	logger     log.Logger
}

// New returns a Handler.
func New(cfg Config) (*Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid handlers config: %w", err)
	}
	return &Handler{
		ctrl:       cfg.Controller,
		engine:     cfg.Engine,
		prefs:      cfg.Preferences,
		keys:       cfg.KeyRing,
		hub:        cfg.Hub,
		master:     cfg.Master,
		vocabulary: cfg.Vocabulary,
		ops:        cfg.Operations,
		remote:     cfg.Remote,
		kick:       cfg.Kick,
		logger:     cfg.Logger,
	}, nil
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps domain errors to status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *datasource.ValidationError
	var ierr *datasource.ImportError
	var perr *importer.ParseError

	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if !verr.Issues.HasBlocking() {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":    err.Error(),
			"errors":   verr.Issues.Blocking().Messages(),
			"warnings": verr.Issues.Warnings().Messages(),
		})
	case errors.As(err, &ierr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "errors": ierr.Errors})
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConfirmationRequired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotValid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.logger.Errorf("request failed: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
