// Command shellconf loads, checks and live-reloads desktop shell layouts.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/shellconf/cmd/shellconf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
