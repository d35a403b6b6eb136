// Command agentdemos runs the demo agents and their tools from the command line.
package main

import (
	"fmt"
	"os"
)

// Version information (set by build flags)
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
