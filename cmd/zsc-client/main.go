// Command zsc-client is a thin demo CLI fronting internal/trade's five
// shielded-payment operations: register, fund, balance, transfer, withdraw.
package main

import (
	"fmt"
	"os"

	"github.com/shieldedcash/zsc-client/internal/cliapp"
)

func main() {
	if err := cliapp.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
