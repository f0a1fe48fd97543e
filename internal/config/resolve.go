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
	"time"

	"github.com/aleutian-labs/repowiki/internal/cache"
	"github.com/aleutian-labs/repowiki/internal/content"
	"github.com/aleutian-labs/repowiki/internal/llm"
	"github.com/aleutian-labs/repowiki/internal/mermaid"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

// ApplyProcessVariables overlays spec.md §6.2's process-variable
// surface, the highest-precedence layer: the required LLM API key, and
// one unified base URL (LLM_BASE_URL) preferred over the
// provider-specific overrides kept only for backward compatibility
// (ANTHROPIC_BASE_URL, OPENAI_BASE_URL, OLLAMA_BASE_URL).
func ApplyProcessVariables(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	providerBaseURL := ""
	for _, key := range []string{"ANTHROPIC_BASE_URL", "OPENAI_BASE_URL", "OLLAMA_BASE_URL"} {
		if v := os.Getenv(key); v != "" {
			providerBaseURL = v
		}
	}
	if providerBaseURL != "" {
		cfg.LLM.BaseURL = providerBaseURL
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
}

// ResolveLLMConfig translates the flat option shape into the LLM Call
// Layer's own Config type.
func (c Config) ResolveLLMConfig() llm.Config {
	return llm.Config{
		DefaultModel:   c.LLM.Model,
		NodeOverrides:  c.ModelOverrides,
		MaxInputTokens: c.LLM.MaxInputTokens,
		RetryCount:     c.LLM.RetryCount,
		CacheEnabled:   c.LLM.CacheEnabled,
		CacheTTL:       time.Duration(c.LLM.CacheTTLSeconds) * time.Second,
		RatePerSecond:  c.LLM.RatePerSecond,
		RateBurst:      c.LLM.RateBurst,

		CircuitBreakerThreshold: c.LLM.CircuitBreakerN,
	}
}

// ResolveCacheConfig builds the BadgerDB configuration for the LLM
// response / repo metadata cache rooted at LLM.CacheDir.
func (c Config) ResolveCacheConfig() cache.Config {
	return cache.DefaultConfig(c.LLM.CacheDir)
}

// ResolvePrepareRepoConfig translates the Repo option group into
// PrepareRepoNode's configuration, rooting the on-disk repo cache
// alongside the LLM cache per spec.md §6.4.
func (c Config) ResolvePrepareRepoConfig() repoanalysis.PrepareRepoConfig {
	return repoanalysis.PrepareRepoConfig{
		CacheDir:      c.LLM.CacheDir + "/repo",
		DefaultBranch: c.Repo.DefaultBranch,
		CacheTTL:      time.Duration(c.Repo.CacheTTLSeconds) * time.Second,
		ForceClone:    c.Repo.ForceClone,
		MaxRepoSize:   c.Repo.MaxRepoSize,
	}
}

// ResolveParseCodeConfig translates the Parse option group.
func (c Config) ResolveParseCodeConfig() repoanalysis.ParseCodeConfig {
	return repoanalysis.ParseCodeConfig{
		IgnorePatterns:   c.Parse.IgnorePatterns,
		BinaryExtensions: c.Parse.BinaryExtensions,
		MaxFiles:         c.Parse.MaxFiles,
		BatchSize:        c.Parse.BatchSize,
	}
}

// ResolveQualityConfig translates the Quality option group, converting
// the string-keyed Weights map into content.QualityWeights.
func (c Config) ResolveQualityConfig() content.QualityConfig {
	qc := content.QualityConfig{
		OverallThreshold:        c.Quality.OverallThreshold,
		AutoRegenerate:          c.Quality.AutoRegenerate,
		MaxRegenerationAttempts: c.Quality.MaxRegenerationAttempts,
	}
	if len(c.Quality.Weights) == 0 {
		qc.Weights = content.DefaultQualityWeights()
		return qc
	}
	weights := make(content.QualityWeights, len(c.Quality.Weights))
	for k, v := range c.Quality.Weights {
		weights[content.QualityDimension(k)] = v
	}
	qc.Weights = weights
	return qc
}

// ResolveMermaidConfig translates the Mermaid option group.
func (c Config) ResolveMermaidConfig() mermaid.Config {
	chartTypes := c.Mermaid.SupportedChartTypes
	if len(chartTypes) == 0 {
		chartTypes = mermaid.SupportedChartTypes
	}
	return mermaid.Config{
		Enabled:                    c.Mermaid.Enabled,
		UseExternalRenderer:        c.Mermaid.UseExternalRenderer,
		FallbackToRules:            c.Mermaid.FallbackToRules,
		BackupFiles:                c.Mermaid.BackupFiles,
		MaxRegenerationAttempts:    c.Mermaid.MaxRegenerationAttempts,
		SupportedChartTypes:        chartTypes,
		RegenerationPromptTemplate: c.Mermaid.RegenerationPromptTemplate,
	}
}
