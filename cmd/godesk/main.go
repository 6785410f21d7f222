package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/godesk-io/godesk-ce/internal/version"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var configFileFlag string

var rootCmd = &cobra.Command{
	Use:   "godesk",
	Short: "GoDesk CLI - helpdesk management tool",
	Long: `GoDesk Command Line Interface

Utilities for operating a GoDesk installation: run escalation sweeps,
reset user passwords and mint access tokens.`,
	Version: version.Full(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFileFlag, "config", "config.yaml", "Path to the configuration file")
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
