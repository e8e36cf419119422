package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"project-tracker/internal/converter"
	"project-tracker/internal/importer"
	"project-tracker/internal/normalize"
)

type ImportCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file  string
	apply bool
}

// NewImportCommand returns the import command.
func NewImportCommand(rootCmd *RootCommand, app *kingpin.Application) *ImportCommand {
	c := &ImportCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("import", "Check a spreadsheet or CSV file and optionally load it into the local store.")
	c.Cmd.Arg("file", "File to import (.xlsx, .xls or .csv).").Required().StringVar(&c.file)
	c.Cmd.Flag("apply", "Replace the local collection with the file rows.").BoolVar(&c.apply)

	return c
}

func (c ImportCommand) Name() string { return c.Cmd.FullCommand() }

func (c ImportCommand) Run(ctx context.Context) error {
	f, err := os.Open(c.file)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", c.file, err)
	}
	defer f.Close()
	name := filepath.Base(c.file)

	if c.apply {
		t, err := newTracker(ctx, *c.rootCmd)
		if err != nil {
			return err
		}
		defer t.ctrl.Close()

		res, err := t.ctrl.Import(ctx, name, f)
		c.printReport(res.Stats, res.Errors)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.rootCmd.Stdout, "Loaded %d tasks from %s.\n", res.Stats.Converted, name)
		return nil
	}

	cfg, err := c.rootCmd.Config()
	if err != nil {
		return err
	}
	records, err := importer.Parse(name, f)
	if err != nil {
		return err
	}
	res := converter.New(normalize.New(cfg.Location(), nil), cfg.Converter).ConvertExternalToTask(records)
	c.printReport(res.Stats, res.Errors)
	return nil
}

func (c ImportCommand) printReport(stats converter.Stats, rowErrors []string) {
	out := c.rootCmd.Stdout
	fmt.Fprintf(out, "Rows: %d  Converted: %d  Failed: %d\n", stats.Total, stats.Converted, stats.Failed)
	for _, e := range rowErrors {
		fmt.Fprintf(out, "  %s\n", e)
	}
}
