// ./main.go
package main

import (
	"github.com/karavela/qasweep/cmd"
)

// main is the entry point for the qasweep CLI.
func main() {
	// Execute the root command defined in the cmd package. This handles all
	// command-line parsing, configuration, and execution.
	cmd.Execute()
}
