package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ContractForgeEVM/contractforge/internal/app"
	"github.com/ContractForgeEVM/contractforge/internal/cli"
	"github.com/ContractForgeEVM/contractforge/internal/logging"
)

func main() {
	err := app.BuildRoot().Execute()
	logging.Sync()
	if err != nil {
		// precondition failures already printed their JSON on stdout
		if !errors.Is(err, cli.ErrPrecondition) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
