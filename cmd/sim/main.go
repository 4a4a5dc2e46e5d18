// Package main is the entry point for the sim CLI.
//
// Usage:
//
//	sim [flags] <command> [subcommand] [args]
//
// Commands:
//
//	build      - Build a model file from a YAML scene description
//	info       - Summarize a model file
//	dump       - Print the underlying graph of a model
//	ents       - List entities, optionally navigated from others
//	query      - Select entities by attribute value
//	convert    - Convert between JSON and msgpack model files
//	validate   - Check a model file
//	schema     - Print the JSON schema of model files
//	archive    - Save, list, load and delete archived models
//	config     - Show and change CLI settings
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/design-automation/mobius-sim-go/cmd/sim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
