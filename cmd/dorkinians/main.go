// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command dorkinians is the terminal client for the stats server.
//
// Usage:
//
//	dorkinians ask "Who has scored the most goals?"
//	dorkinians ask --player "Dan Becker" "How many games have I played with Luke Bangs?"
//	dorkinians ask --trace "What is the conversion rate for Ed Mulligan?"
//	dorkinians metrics
//
// The server address comes from --server or STATS_SERVER_URL, defaulting
// to http://localhost:8080.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverURL holds the --server flag value for all subcommands.
var serverURL string

var rootCmd = &cobra.Command{
	Use:   "dorkinians",
	Short: "Ask the Dorkinians stats server questions from the terminal",
	Long: `dorkinians talks to the stats API server.

Ask free-form questions about players, teams, seasons, and honours;
answers come back as tables or single values depending on the question.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server",
		defaultServerURL(), "Stats server base URL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultServerURL() string {
	if url := os.Getenv("STATS_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
