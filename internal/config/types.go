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

// Config is the full layered configuration shape from spec.md §6.1,
// grouped the way the section table groups it (Global, LLM, Repo,
// Parse, Quality, Mermaid) plus the per-node model override map.
type Config struct {
	Global  GlobalConfig  `yaml:"global"`
	LLM     LLMConfig     `yaml:"llm"`
	Repo    RepoConfig    `yaml:"repo"`
	Parse   ParseConfig   `yaml:"parse"`
	Quality QualityConfig `yaml:"quality"`
	Mermaid MermaidConfig `yaml:"mermaid"`

	// ModelOverrides implements spec.md §6.1's `model_<node_name>`
	// entries, keyed by bare node name (without the `model_` prefix).
	ModelOverrides map[string]string `yaml:"model_overrides"`
}

// GlobalConfig covers spec.md §6.1's Global option group.
type GlobalConfig struct {
	TargetLanguage        string `yaml:"target_language"`
	OutputDir             string `yaml:"output_dir"`
	ParallelEnabled       bool   `yaml:"parallel_enabled"`
	MaxWorkers            int    `yaml:"max_workers"`
	MaxConcurrentLLMCalls int    `yaml:"max_concurrent_llm_calls"`
}

// LLMConfig covers spec.md §6.1's LLM option group. APIKey is included
// here for the shape's sake but a caller should prefer supplying it via
// a process variable (§6.2) rather than the on-disk file; createDefault
// only ever marshals DefaultConfig, which leaves APIKey empty.
type LLMConfig struct {
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key,omitempty"`
	BaseURL         string  `yaml:"base_url"`
	MaxTokens       int     `yaml:"max_tokens"`
	MaxInputTokens  int     `yaml:"max_input_tokens"`
	Temperature     float64 `yaml:"temperature"`
	CacheEnabled    bool    `yaml:"cache_enabled"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	CacheDir        string  `yaml:"cache_dir"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	RateBurst       int     `yaml:"rate_burst"`
	CircuitBreakerN int     `yaml:"circuit_breaker_threshold"`
	RetryCount      int     `yaml:"retry_count"`
}

// RepoConfig covers spec.md §6.1's Repo option group.
type RepoConfig struct {
	DefaultBranch   string `yaml:"default_branch"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	ForceClone      bool   `yaml:"force_clone"`
	MaxCommits      int    `yaml:"max_commits"`
	MaxRepoSize     int64  `yaml:"max_repo_size"`
}

// ParseConfig covers spec.md §6.1's Parse option group.
type ParseConfig struct {
	IgnorePatterns   []string `yaml:"ignore_patterns"`
	BinaryExtensions []string `yaml:"binary_extensions"`
	MaxFiles         int      `yaml:"max_files"`
	BatchSize        int      `yaml:"batch_size"`
}

// QualityConfig covers spec.md §6.1's Quality option group. Weights,
// when non-empty, is keyed by the dimension names content.QualityDimension
// declares ("completeness", "accuracy", ...); an empty map defers to
// content.DefaultQualityWeights.
type QualityConfig struct {
	OverallThreshold        float64            `yaml:"overall_threshold"`
	AutoRegenerate          bool               `yaml:"auto_regenerate"`
	MaxRegenerationAttempts int                `yaml:"max_regeneration_attempts"`
	Weights                 map[string]float64 `yaml:"weights"`
}

// MermaidConfig covers spec.md §6.1's Mermaid option group.
type MermaidConfig struct {
	Enabled                    bool     `yaml:"enabled"`
	UseExternalRenderer        bool     `yaml:"use_external_renderer"`
	FallbackToRules            bool     `yaml:"fallback_to_rules"`
	BackupFiles                bool     `yaml:"backup_files"`
	MaxRegenerationAttempts    int      `yaml:"max_regeneration_attempts"`
	SupportedChartTypes        []string `yaml:"supported_chart_types"`
	RegenerationPromptTemplate string   `yaml:"regeneration_prompt_template"`
}
