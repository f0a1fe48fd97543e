// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"

	"github.com/aleutian-labs/repowiki/internal/mermaid"
)

// DefaultConfig returns the compiled-in defaults, the lowest-precedence
// layer of spec.md §6.1's configuration contract.
func DefaultConfig() Config {
	mermaidDefaults := mermaid.DefaultConfig()
	return Config{
		Global: GlobalConfig{
			TargetLanguage:        "en",
			OutputDir:             "output",
			ParallelEnabled:       true,
			MaxWorkers:            8,
			MaxConcurrentLLMCalls: 4,
		},
		LLM: LLMConfig{
			Model:           "anthropic/claude",
			MaxTokens:       4096,
			MaxInputTokens:  100_000,
			Temperature:     0.2,
			CacheEnabled:    true,
			CacheTTLSeconds: 7 * 24 * 3600,
			CacheDir:        defaultCacheDir(),
			RatePerSecond:   4,
			RateBurst:       4,
			CircuitBreakerN: 5,
			RetryCount:      3,
		},
		Repo: RepoConfig{
			DefaultBranch:   "main",
			CacheTTLSeconds: 24 * 3600,
			MaxCommits:      500,
			MaxRepoSize:     512 << 20,
		},
		Parse: ParseConfig{
			IgnorePatterns:   []string{".git", "node_modules", "vendor", "dist", "build"},
			BinaryExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".pdf", ".zip", ".exe", ".so", ".dylib", ".dll"},
			MaxFiles:         20_000,
			BatchSize:        150,
		},
		Quality: QualityConfig{
			OverallThreshold:        7.0,
			AutoRegenerate:          true,
			MaxRegenerationAttempts: 2,
		},
		Mermaid: MermaidConfig{
			Enabled:                 mermaidDefaults.Enabled,
			FallbackToRules:         mermaidDefaults.FallbackToRules,
			BackupFiles:             mermaidDefaults.BackupFiles,
			MaxRegenerationAttempts: mermaidDefaults.MaxRegenerationAttempts,
			SupportedChartTypes:     mermaid.SupportedChartTypes,
		},
		ModelOverrides: map[string]string{},
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repowiki-cache"
	}
	return home + "/.repowiki/cache"
}
