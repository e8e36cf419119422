package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"project-tracker/cmd/tracker/commands"
	"project-tracker/internal/log"
	loglogrus "project-tracker/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("tracker", "Project tracking dashboard.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	serveCmd := commands.NewServeCommand(rootCmd, app)
	tuiCmd := commands.NewTUICommand(rootCmd, app)
	importCmd := commands.NewImportCommand(rootCmd, app)
	hashKeyCmd := commands.NewHashKeyCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		serveCmd.Name():   serveCmd,
		tuiCmd.Name():     tuiCmd,
		importCmd.Name():  importCmd,
		hashKeyCmd.Name(): hashKeyCmd,
	}

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Log lines would break the terminal UI and the printed reports.
	quietCommands := map[string]bool{
		"tui":      true,
		"import":   true,
		"hash-key": true,
	}
	if quietCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	rootCmd.Logger = getLogger(*rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func getLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr
	entry := logrus.NewEntry(logrusLog)

	if config.Debug {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		entry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(entry).WithValues(log.Kv{
		"version": Version,
	})
	logger.Debugf("Debug level is enabled")

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
