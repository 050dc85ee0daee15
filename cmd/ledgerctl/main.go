// Package main provides the entry point for ledgerctl.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/export"
	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/migrate"
	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/project"
	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/root"
	"github.com/sjperalta/debt-ledger/cmd/ledgerctl/run"
)

func main() {
	root.Cmd.AddCommand(migrate.Cmd, run.Cmd, project.Cmd, export.Cmd)
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
