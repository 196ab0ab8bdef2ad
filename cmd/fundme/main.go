// Command fundme hosts a fundme ledger over HTTP and talks to one.
//
//	fundme serve            run a ledger on a development network
//	fundme fund [-eth 0.1]  contribute from FUNDME_CALLER
//	fundme withdraw         pay the pool to the owner
//	fundme balance <addr>   show a contributor's balance
//	fundme funders          list the funder sequence
//
// Settings are read from the environment, and from a .env file in the
// working directory when present.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Environment variables.
const (
	envNetwork = "FUNDME_NETWORK"
	envOwner   = "FUNDME_OWNER"
	envURL     = "FUNDME_URL"
	envCaller  = "FUNDME_CALLER"

	envJournal    = "FUNDME_JOURNAL"
	envJournalDSN = "FUNDME_JOURNAL_DSN"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("fundme: reading .env failed", "error", err)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&serveCmd{}, "server")
	commander.Register(&fundCmd{}, "client")
	commander.Register(&withdrawCmd{}, "client")
	commander.Register(&balanceCmd{}, "client")
	commander.Register(&fundersCmd{}, "client")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
