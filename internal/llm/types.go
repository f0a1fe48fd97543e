// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm is the provider-agnostic LLM call layer: prompt assembly,
// token budgeting, content-hash caching, model selection, retry with
// fallback, and response validation behind one Generate entry point.
package llm

import (
	"fmt"
	"strings"
)

// TaskType selects the default model and temperature policy for a call.
type TaskType string

const (
	TaskSummarize       TaskType = "summarize"
	TaskExplain         TaskType = "explain"
	TaskAnalyze         TaskType = "analyze"
	TaskGenerateContent TaskType = "generate_content"
	TaskRegenerate      TaskType = "regenerate"
	TaskDefault         TaskType = ""
)

// isAnalytical reports whether t uses the low-temperature policy.
func (t TaskType) isAnalytical() bool {
	switch t {
	case TaskSummarize, TaskExplain, TaskAnalyze:
		return true
	default:
		return false
	}
}

const (
	analyticalTemperature = float32(0.2)
	creativeTemperatureLo = float32(0.7)
)

// DefaultTemperature returns the policy temperature for t, absent an
// explicit override.
func (t TaskType) DefaultTemperature() float32 {
	if t.isAnalytical() {
		return analyticalTemperature
	}
	return creativeTemperatureLo
}

// GenerationParams carries the sampling knobs a caller may override; nil
// fields fall back to task-type or provider defaults.
type GenerationParams struct {
	Temperature *float32
	TopP        *float32
	TopK        *int
	MaxTokens   *int
	Stop        []string

	// RequireJSON asks response validation to reject text without a
	// ``` fenced block (```json or any other fence), for tasks whose consumer parses structured
	// output (e.g. AIUnderstandCoreModules).
	RequireJSON bool
	// MinLength rejects suspiciously short responses; 0 disables the
	// check.
	MinLength int
}

// ModelRef is a parsed `provider/model` or `provider/upstream/model`
// string, per spec.md §4.3 point 4.
type ModelRef struct {
	Provider string
	Upstream string // set only for aggregator providers
	Model    string
}

func (m ModelRef) String() string {
	if m.Upstream != "" {
		return fmt.Sprintf("%s/%s/%s", m.Provider, m.Upstream, m.Model)
	}
	return fmt.Sprintf("%s/%s", m.Provider, m.Model)
}

// ParseModelRef splits a model string of the form "provider/model" or
// "provider/upstream/model" (for aggregator providers such as
// openrouter that proxy an upstream vendor's models).
func ParseModelRef(s string) (ModelRef, error) {
	parts := strings.SplitN(s, "/", 3)
	switch len(parts) {
	case 2:
		return ModelRef{Provider: parts[0], Model: parts[1]}, nil
	case 3:
		return ModelRef{Provider: parts[0], Upstream: parts[1], Model: parts[2]}, nil
	default:
		return ModelRef{}, fmt.Errorf("llm: invalid model reference %q, want provider/model", s)
	}
}

// CallMetadata is returned alongside generated text on every call,
// successful or cached.
type CallMetadata struct {
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	LatencyMS     int64   `json:"latency_ms"`
	Attempt       int     `json:"attempt"`
	FromCache     bool    `json:"from_cache"`
	FallbackUsed  bool    `json:"fallback_used"`
	EstimatedCost float64 `json:"estimated_cost_usd,omitempty"`
}
