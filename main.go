// Package main is the entry point for the Subsync CLI application.
// It keeps a local session and subscription-entitlement view in sync with
// the Subsync backend.
package main

import (
	"subsync/cli/cmd"
)

// main is the entry point for the Subsync CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
