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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Global holds the process-wide configuration once Load has run.
var Global Config

var loadOnce sync.Once
var loadErr error

// Load resolves the on-disk config file (creating one with compiled-in
// defaults if none exists), overlays REPOWIKI_* environment variables,
// and stores the result in Global. Safe to call more than once; only
// the first call does any work.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadInternal()
	})
	return loadErr
}

func loadInternal() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("config: resolve path: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return fmt.Errorf("config: create default: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnv(&cfg, os.Environ())
	Global = cfg
	return nil
}

func configPath() (string, error) {
	if p := os.Getenv("REPOWIKI_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".repowiki", "config.yaml"), nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// envPrefix is the process-variable namespace from SPEC_FULL.md §4.8.2.
const envPrefix = "REPOWIKI_"

// applyEnv overlays REPOWIKI_<SECTION>_<FIELD> environment variables
// (REPOWIKI_<FIELD> for the Global group) onto cfg, and REPOWIKI_MODEL_<NODE_NAME> onto cfg.ModelOverrides, per
// spec.md §6.1's per-node override and §6.2's process-variable surface.
// Unrecognized or malformed variables are ignored rather than treated
// as fatal, since environment overlays are best-effort by nature.
func applyEnv(cfg *Config, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	setString := func(key string, dst *string) {
		if v, ok := env[key]; ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := env[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setInt64 := func(key string, dst *int64) {
		if v, ok := env[key]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := env[key]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := env[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString(envPrefix+"TARGET_LANGUAGE", &cfg.Global.TargetLanguage)
	setString(envPrefix+"OUTPUT_DIR", &cfg.Global.OutputDir)
	setBool(envPrefix+"PARALLEL_ENABLED", &cfg.Global.ParallelEnabled)
	setInt(envPrefix+"MAX_WORKERS", &cfg.Global.MaxWorkers)
	setInt(envPrefix+"MAX_CONCURRENT_LLM_CALLS", &cfg.Global.MaxConcurrentLLMCalls)

	setString(envPrefix+"LLM_MODEL", &cfg.LLM.Model)
	setString(envPrefix+"LLM_API_KEY", &cfg.LLM.APIKey)
	setString(envPrefix+"LLM_BASE_URL", &cfg.LLM.BaseURL)
	setInt(envPrefix+"LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	setInt(envPrefix+"LLM_MAX_INPUT_TOKENS", &cfg.LLM.MaxInputTokens)
	setFloat(envPrefix+"LLM_TEMPERATURE", &cfg.LLM.Temperature)
	setBool(envPrefix+"LLM_CACHE_ENABLED", &cfg.LLM.CacheEnabled)
	setInt(envPrefix+"LLM_CACHE_TTL_SECONDS", &cfg.LLM.CacheTTLSeconds)
	setString(envPrefix+"LLM_CACHE_DIR", &cfg.LLM.CacheDir)

	setString(envPrefix+"REPO_DEFAULT_BRANCH", &cfg.Repo.DefaultBranch)
	setInt(envPrefix+"REPO_CACHE_TTL_SECONDS", &cfg.Repo.CacheTTLSeconds)
	setBool(envPrefix+"REPO_FORCE_CLONE", &cfg.Repo.ForceClone)
	setInt(envPrefix+"REPO_MAX_COMMITS", &cfg.Repo.MaxCommits)
	setInt64(envPrefix+"REPO_MAX_REPO_SIZE", &cfg.Repo.MaxRepoSize)

	setInt(envPrefix+"PARSE_MAX_FILES", &cfg.Parse.MaxFiles)
	setInt(envPrefix+"PARSE_BATCH_SIZE", &cfg.Parse.BatchSize)

	setFloat(envPrefix+"QUALITY_OVERALL_THRESHOLD", &cfg.Quality.OverallThreshold)
	setBool(envPrefix+"QUALITY_AUTO_REGENERATE", &cfg.Quality.AutoRegenerate)
	setInt(envPrefix+"QUALITY_MAX_REGENERATION_ATTEMPTS", &cfg.Quality.MaxRegenerationAttempts)

	setBool(envPrefix+"MERMAID_ENABLED", &cfg.Mermaid.Enabled)
	setBool(envPrefix+"MERMAID_USE_EXTERNAL_RENDERER", &cfg.Mermaid.UseExternalRenderer)
	setBool(envPrefix+"MERMAID_FALLBACK_TO_RULES", &cfg.Mermaid.FallbackToRules)
	setBool(envPrefix+"MERMAID_BACKUP_FILES", &cfg.Mermaid.BackupFiles)
	setInt(envPrefix+"MERMAID_MAX_REGENERATION_ATTEMPTS", &cfg.Mermaid.MaxRegenerationAttempts)

	const modelPrefix = envPrefix + "MODEL_"
	for key, v := range env {
		if !strings.HasPrefix(key, modelPrefix) {
			continue
		}
		node := strings.ToLower(strings.TrimPrefix(key, modelPrefix))
		if cfg.ModelOverrides == nil {
			cfg.ModelOverrides = map[string]string{}
		}
		cfg.ModelOverrides[node] = v
	}
}
