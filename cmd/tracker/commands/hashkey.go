package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"project-tracker/internal/auth"
)

type HashKeyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	key string
}

// NewHashKeyCommand returns the command that hashes access keys for the settings file.
func NewHashKeyCommand(rootCmd *RootCommand, app *kingpin.Application) *HashKeyCommand {
	c := &HashKeyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("hash-key", "Print the bcrypt hash of an access key.")
	c.Cmd.Arg("key", "Access key to hash.").Required().StringVar(&c.key)

	return c
}

func (c HashKeyCommand) Name() string { return c.Cmd.FullCommand() }

func (c HashKeyCommand) Run(_ context.Context) error {
	h, err := auth.HashKey(c.key)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.rootCmd.Stdout, h)
	return nil
}
