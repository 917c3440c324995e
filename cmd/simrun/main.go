package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "simrun",
		Short: "Simrun - supervised simulation engine runner",
		Long: `simrun supervises an external simulation engine process and drives it
over a line-delimited JSON protocol on stdin/stdout.

It validates configurations, runs simulations to completion, and streams
lifecycle events as they happen.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output events as JSON lines")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (error, warn, info, debug)")
	rootCmd.PersistentFlags().String("trace", "", "Append a JSONL session trace to this file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("simrun version %s\n", version)
			}
		},
	}
}
