package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jsondb",
	Short: "jsondb - a small SQL-over-JSON database server",
	Long: `jsondb runs a TCP server that accepts SQL statements over a small
hex-framed wire protocol, optionally end-to-end encrypted, and persists every
table as a JSON document on the local filesystem.`,
}

func main() {
	insertDefaultSubcommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// insertDefaultSubcommand makes "run" the implicit subcommand: `jsondb` and
// `jsondb --config path` both start the server directly, with no subcommand
// required.
func insertDefaultSubcommand() {
	if len(os.Args) < 2 {
		os.Args = append(os.Args, "run")
		return
	}
	first := os.Args[1]
	if first == "run" || first == "adu" || first == "help" || first == "completion" || first == "-h" || first == "--help" {
		return
	}
	if len(first) > 0 && first[0] == '-' {
		os.Args = append([]string{os.Args[0], "run"}, os.Args[1:]...)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Note: commands are registered in their respective files.
	// - run.go: runCmd (default)
	// - adu.go: aduCmd
}
