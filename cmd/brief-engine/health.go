// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/brief-engine/internal/fetch"
	"github.com/pdiddy/brief-engine/internal/history"
	"github.com/pdiddy/brief-engine/internal/llm"
	"github.com/pdiddy/brief-engine/internal/websearch"
	"github.com/pdiddy/brief-engine/internal/workflow"
)

// healthTimeout bounds the combined dependency probes.
const healthTimeout = 30 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the configured backends",
	Long: `Health probes each dependency with a small real call: the language
model, the search backend, and the history store. Exits non-zero if any
check fails.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	searchBackend, err := websearch.New(cfg.Search)
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	eng := workflow.New(
		llm.NewClaudeBackend(cfg.AI),
		searchBackend,
		fetch.NewFetcher(cfg.Fetch),
		store,
		cfg,
		os.Stderr,
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	failed := 0
	for _, status := range eng.Health(ctx) {
		mark := "ok"
		if !status.OK {
			mark = "FAIL"
			failed++
		}
		if status.Detail != "" {
			fmt.Printf("%-8s %-4s %s\n", status.Component, mark, status.Detail)
		} else {
			fmt.Printf("%-8s %s\n", status.Component, mark)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}
