package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/systmms/keyring/cmd/keyring/commands"
	kerrors "github.com/systmms/keyring/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()

	err := run()
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", kerrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	env := &commands.Env{}
	rootCmd := commands.NewRootCommand(env, fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	return rootCmd.Execute()
}
