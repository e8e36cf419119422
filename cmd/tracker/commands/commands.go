package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"project-tracker/internal/config"
	"project-tracker/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	Runtime    config.Runtime

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}
	def := config.Default().Runtime

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	app.Flag("db-path", "Path to the local SQLite store.").Default(def.DBPath).StringVar(&c.Runtime.DBPath)
	app.Flag("config", "Settings file (.yaml, .yml or .toml).").StringVar(&c.Runtime.SettingsFile)
	app.Flag("timezone", "Timezone used to compute today.").Default(def.Timezone).StringVar(&c.Runtime.Timezone)
	app.Flag("source", "Where tasks are read from.").Default(def.Source).EnumVar(&c.Runtime.Source, config.SourceAPI, config.SourceSheets)
	app.Flag("remote-url", "Base URL of the spreadsheet API.").StringVar(&c.Runtime.RemoteURL)
	app.Flag("remote-timeout", "Timeout of every remote call.").Default(def.RemoteTimeout.String()).DurationVar(&c.Runtime.RemoteTimeout)
	app.Flag("reconcile-delay", "Delay before re-fetching after a created task is pushed.").Default(def.ReconcileDelay.String()).DurationVar(&c.Runtime.ReconcileDelay)
	app.Flag("outbox-interval", "Interval between outbox flushes.").Default(def.OutboxInterval.String()).DurationVar(&c.Runtime.OutboxInterval)
	app.Flag("outbox-max-attempts", "Delivery attempts before an operation is parked as failed.").Default(fmt.Sprint(def.OutboxMaxAttempts)).IntVar(&c.Runtime.OutboxMaxAttempts)
	app.Flag("master-ttl", "How long master data lists are cached.").Default(def.MasterDataTTL.String()).DurationVar(&c.Runtime.MasterDataTTL)
	app.Flag("sheets-id", "Google Sheets spreadsheet id.").StringVar(&c.Runtime.SheetsID)
	app.Flag("sheets-credentials", "Google service account key file.").StringVar(&c.Runtime.SheetsCredentials)
	app.Flag("sheets-api-key", "Google API key for public sheets.").StringVar(&c.Runtime.SheetsAPIKey)

	return c
}

// Config loads the settings file on top of the defaults.
func (c RootCommand) Config() (config.Config, error) {
	if err := c.Runtime.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid runtime configuration: %w", err)
	}
	settings, err := config.LoadSettingsFile(c.Runtime.SettingsFile)
	if err != nil {
		return config.Config{}, err
	}
	return config.Config{Runtime: c.Runtime, Settings: settings}, nil
}
