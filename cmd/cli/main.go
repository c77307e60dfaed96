// Command tariffa-cli prices security service requests from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/okian/tariffa/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
