// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bangsluke/Dorkinians-Website-V3-sub008/services/stats"
)

// askPlayer, askTrace, and askJSON hold flag values for the ask command.
var (
	askPlayer string
	askTrace  bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one stats question",
	Args:  cobra.MinimumNArgs(1),
	Run:   runAskCommand,
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the metrics the server can answer about",
	Run:   runMetricsCommand,
}

func init() {
	askCmd.Flags().StringVar(&askPlayer, "player", "", `Who "I" refers to in the question`)
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "Show the pipeline trace")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the raw envelope JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(metricsCmd)
}

func runAskCommand(_ *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	req := stats.AskRequest{
		Question:     question,
		Context:      stats.AskContext{Player: askPlayer},
		IncludeTrace: askTrace,
	}
	body, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(serverURL+"/v1/stats/ask", "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if askJSON {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			fmt.Println(string(raw))
			return
		}
		fmt.Println(pretty.String())
		return
	}

	var env stats.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Fatalf("Error decoding envelope: %v", err)
	}
	printEnvelope(env)
}

func printEnvelope(env stats.Envelope) {
	fmt.Printf("%s\n---\n", env.Question)

	if env.Message != "" {
		fmt.Println(env.Message)
	}

	switch data := env.Data.(type) {
	case map[string]any:
		printSingle(data)
	case []any:
		printRows(data)
	}

	if env.FullData != nil {
		if full, ok := env.FullData.([]any); ok {
			fmt.Printf("(%d more fetched; use --json to see them all)\n",
				len(full)-displayedRows(env.Data))
		}
	}

	if len(env.Trace) > 0 {
		fmt.Println("\nTrace:")
		for _, entry := range env.Trace {
			fmt.Printf("  %-10s %-40s %s\n", entry.Stage, entry.Detail, entry.Elapsed)
			if entry.Statement != "" {
				for _, line := range strings.Split(strings.TrimSpace(entry.Statement), "\n") {
					fmt.Printf("             | %s\n", line)
				}
			}
		}
	}
}

func printSingle(data map[string]any) {
	subject, _ := data["subject"].(string)
	statement, _ := data["statement"].(string)

	switch value := data["value"].(type) {
	case nil:
		// The message has already said why there is no number.
	case float64:
		if statement != "" {
			fmt.Printf("%s: %s %s\n", subject, formatNumber(value), statement)
		} else {
			fmt.Printf("%s: %s\n", subject, formatNumber(value))
		}
	default:
		fmt.Printf("%s: %v\n", subject, value)
	}

	if players, ok := data["players"].([]any); ok {
		names := make([]string, 0, len(players))
		for _, p := range players {
			if s, ok := p.(string); ok {
				names = append(names, s)
			}
		}
		if v, ok := data["value"].(float64); ok {
			fmt.Printf("%s: %s shared games\n", strings.Join(names, " and "), formatNumber(v))
		}
	}
}

func printRows(rows []any) {
	for i, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(row, "player", "teammate", "opposition")
		if value, present := row["value"]; present {
			fmt.Printf("%2d. %-24s %s\n", i+1, name, formatValue(value))
		} else {
			// Listing rows without a ranked value: print what's there.
			fmt.Printf("%2d. %s\n", i+1, flattenRow(row))
		}
	}
}

func displayedRows(data any) int {
	if rows, ok := data.([]any); ok {
		return len(rows)
	}
	return 0
}

func firstString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := row[k].(string); ok {
			return s
		}
	}
	return "?"
}

func flattenRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
	}
	return strings.Join(parts, "  ")
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return formatNumber(f)
	}
	return fmt.Sprintf("%v", v)
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}

func runMetricsCommand(_ *cobra.Command, _ []string) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(serverURL + "/v1/stats/vocabulary/metrics")
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %s", resp.Status)
	}

	var listing struct {
		Metrics []stats.MetricSummary `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	for _, m := range listing.Metrics {
		fmt.Printf("%-22s %-8s %s\n", m.Key, m.Label, m.Statement)
		fmt.Printf("%22s          also: %s\n", "", strings.Join(m.Aliases, ", "))
	}
}
