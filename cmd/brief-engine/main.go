// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the brief-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/brief-engine/internal/secrets"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the brief-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "brief-engine",
	Short: "AI-driven research brief generation",
	Long: `brief-engine turns a research topic into a structured brief: it plans
search queries with a language model, runs them against a web search backend,
fetches and summarizes the best sources, and synthesizes the findings into an
executive summary with key findings, analysis, and recommendations.

Prior briefs are stored per user so follow-up requests build on earlier
research instead of repeating it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./brief-engine.yaml or ~/.config/brief-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("brief-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "brief-engine"))
		}
	}

	viper.SetEnvPrefix("BRIEF_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig builds the runtime configuration: defaults, overlaid
// with config-file and environment values, with API keys resolved from
// flags, .secrets/, and the environment.
func pipelineConfig() types.PipelineConfig {
	cfg := types.Defaults()

	if v := viper.GetString("ai.model"); v != "" {
		cfg.AI.Model = v
	}
	if v := viper.GetInt("ai.max_tokens"); v > 0 {
		cfg.AI.MaxTokens = v
	}
	if v := viper.GetDuration("ai.timeout"); v > 0 {
		cfg.AI.Timeout = v
	}
	if v := viper.GetString("search.provider"); v != "" {
		cfg.Search.Provider = v
	}
	if v := viper.GetInt("search.max_results"); v > 0 {
		cfg.Search.MaxResults = v
	}
	if v := viper.GetDuration("search.timeout"); v > 0 {
		cfg.Search.Timeout = v
	}
	if v := viper.GetInt("fetch.max_chars"); v > 0 {
		cfg.Fetch.MaxChars = v
	}
	if v := viper.GetInt("fetch.max_sources"); v > 0 {
		cfg.Fetch.MaxSources = v
	}
	if v := viper.GetDuration("fetch.timeout"); v > 0 {
		cfg.Fetch.Timeout = v
	}
	if v := viper.GetString("history.db_path"); v != "" {
		cfg.History.DBPath = v
	}
	if v := viper.GetInt("history.retention"); v > 0 {
		cfg.History.Retention = v
	}
	if viper.IsSet("workflow.max_retries") {
		cfg.Workflow.MaxRetries = viper.GetInt("workflow.max_retries")
	}
	if viper.IsSet("workflow.min_relevance") {
		cfg.Workflow.MinRelevance = viper.GetFloat64("workflow.min_relevance")
	}

	cfg.AI.APIKey = secrets.Value(loadedSecrets, "anthropic-api-key", "ANTHROPIC_API_KEY", viper.GetString("ai.api_key"))
	switch cfg.Search.Provider {
	case "brave":
		cfg.Search.APIKey = secrets.Value(loadedSecrets, "brave-api-key", "BRAVE_API_KEY", viper.GetString("search.api_key"))
	default:
		cfg.Search.APIKey = secrets.Value(loadedSecrets, "serper-api-key", "SERPER_API_KEY", viper.GetString("search.api_key"))
	}
	return cfg
}

// commandTimeout bounds one CLI invocation end to end.
const commandTimeout = 10 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
