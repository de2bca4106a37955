// Command ttytest runs a command and waits for expected output.
package main

import (
	"os"

	"github.com/Iron-Ham/ttytest/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
