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
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aleutian-labs/repowiki/internal/config"
)

// --- Global Command Flags ---
var (
	outputDir      string
	targetLanguage string
	configPath     string
	reportPath     string
	weaviateURL    string
	mmdcPath       string

	rootCmd = &cobra.Command{
		Use:   "repowiki",
		Short: "Generates a Markdown wiki from a source repository",
		Long: `repowiki analyzes a git repository or local working tree and
generates a directory of cross-linked Markdown documentation, using an
LLM to summarize architecture, modules, and history.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				os.Setenv("REPOWIKI_CONFIG", configPath)
			}
			if err := config.Load(); err != nil {
				log.Fatalf("repowiki: loading configuration: %v", err)
			}
			config.ApplyProcessVariables(&config.Global)
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate [repo]",
		Short: "Generate a wiki for the given repository path or URL",
		Args:  cobra.ExactArgs(1),
		Run:   runGenerate, // Defined in generate.go
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("repowiki: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default ~/.repowiki/config.yaml)")

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write generated documents into (overrides config)")
	generateCmd.Flags().StringVar(&targetLanguage, "target-language", "", "Language for generated prose (overrides config)")
	generateCmd.Flags().StringVar(&reportPath, "report", "", "Path to write report.json (empty disables it)")
	generateCmd.Flags().StringVar(&weaviateURL, "weaviate-url", "", "Weaviate endpoint for RAG chunk storage (empty disables RAG storage)")
	generateCmd.Flags().StringVar(&mmdcPath, "mmdc-path", "", "Path to an installed mermaid-cli (mmdc) binary for external Mermaid rendering")
}
