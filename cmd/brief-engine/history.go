// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/brief-engine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's stored research briefs",
	Long: `History lists the briefs stored for a user, most recent first. The
store keeps a bounded number per user; older briefs are pruned as new ones
arrive.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("user", "", "user ID to list briefs for")
	historyCmd.Flags().Bool("json", false, "output briefs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	if userID == "" {
		return fmt.Errorf("provide a user ID with --user")
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg := pipelineConfig()
	store, err := history.Open(cfg.History)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	briefs, err := store.List(cmd.Context(), userID)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(briefs)
	}

	if len(briefs) == 0 {
		fmt.Printf("No briefs stored for %s\n", userID)
		return nil
	}
	for _, b := range briefs {
		fmt.Printf("%s  %s  %s (confidence %.2f, %d sources)\n",
			b.GeneratedAt.Format("2006-01-02 15:04"), b.ID, b.Topic, b.ConfidenceScore, len(b.Sources))
	}
	return nil
}
