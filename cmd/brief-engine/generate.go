// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"

	"github.com/pdiddy/brief-engine/internal/fetch"
	"github.com/pdiddy/brief-engine/internal/history"
	"github.com/pdiddy/brief-engine/internal/llm"
	"github.com/pdiddy/brief-engine/internal/websearch"
	"github.com/pdiddy/brief-engine/internal/workflow"
	"github.com/pdiddy/brief-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a research brief for a topic",
	Long: `Generate runs the full research pipeline for a topic: planning, web
search, content fetching, synthesis, and post-processing. The finished brief
is printed to stdout and, when a user is given, stored for follow-up requests.

Depth controls how many search queries are planned, from 1 (basic, 1-2
queries) to 5 (comprehensive, 10-12 queries).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("topic", "", "research topic (alternative to the positional argument)")
	generateCmd.Flags().Int("depth", 3, "research depth, 1-5")
	generateCmd.Flags().String("user", "", "user ID for history storage and follow-up context")
	generateCmd.Flags().Bool("follow-up", false, "build on the user's prior briefs")
	generateCmd.Flags().Bool("json", false, "output the brief as JSON instead of Markdown")
	generateCmd.Flags().Bool("yaml", false, "output the brief as YAML instead of Markdown")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if len(args) > 0 {
		topic = args[0]
	}
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("provide a research topic")
	}
	depth, _ := cmd.Flags().GetInt("depth")
	userID, _ := cmd.Flags().GetString("user")
	followUp, _ := cmd.Flags().GetBool("follow-up")
	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	cfg := pipelineConfig()

	searchBackend, err := websearch.New(cfg.Search)
	if err != nil {
		return err
	}

	var store workflow.HistoryStore
	if userID != "" {
		s, err := history.Open(cfg.History)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer s.Close()
		store = s
	}

	eng := workflow.New(
		llm.NewClaudeBackend(cfg.AI),
		searchBackend,
		fetch.NewFetcher(cfg.Fetch),
		store,
		cfg,
		os.Stderr,
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	brief, err := eng.GenerateBrief(ctx, types.BriefRequest{
		Topic:    topic,
		Depth:    depth,
		FollowUp: followUp,
		UserID:   userID,
	})
	if err != nil {
		return err
	}

	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(brief)
	case asYAML:
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(brief)
	default:
		writeMarkdown(os.Stdout, brief)
		return nil
	}
}
