// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report builds spec.md §6.3's optional report.json: per-section
// quality scores, Mermaid validation findings, per-stage error records,
// and total token usage and estimated cost, assembled from whatever a
// run left on the blackboard plus the LLM client's usage accumulator.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/content"
	"github.com/aleutian-labs/repowiki/internal/llm"
	"github.com/aleutian-labs/repowiki/internal/mermaid"
)

// Report is the top-level shape written to report.json.
type Report struct {
	GeneratedAt  time.Time                       `json:"generated_at"`
	Repo         string                          `json:"repo"`
	Success      bool                            `json:"success"`
	Sections     map[string]content.QualityScore `json:"sections,omitempty"`
	Mermaid      []mermaid.ValidationFinding     `json:"mermaid_findings,omitempty"`
	Errors       []blackboard.ErrorRecord        `json:"errors,omitempty"`
	Usage        llm.UsageSnapshot               `json:"usage"`
	WrittenFiles []string                        `json:"written_files,omitempty"`
}

// Build assembles a Report from the state a completed (or
// partially-completed) run left on state, plus usage totals pulled
// separately since the LLM client, not the blackboard, owns them.
func Build(state *blackboard.Store, usage llm.UsageSnapshot, generatedAt time.Time, success bool) Report {
	r := Report{
		GeneratedAt: generatedAt,
		Repo:        state.GetString(blackboard.KeyLocalRepoPath),
		Success:     success,
		Sections:    map[string]content.QualityScore{},
		Usage:       usage,
		Errors:      state.Errors(),
	}

	const qualityPrefix = "quality_scores."
	for _, k := range state.Keys() {
		if !strings.HasPrefix(k, qualityPrefix) {
			continue
		}
		v, ok := state.Get(k)
		if !ok {
			continue
		}
		score, ok := v.(content.QualityScore)
		if !ok {
			continue
		}
		section := strings.TrimPrefix(k, qualityPrefix)
		r.Sections[section] = score
	}

	if v, ok := state.Get(blackboard.KeyMermaidReport); ok {
		if findings, ok := v.([]mermaid.ValidationFinding); ok {
			r.Mermaid = findings
		}
	}

	if v, ok := state.Get(blackboard.KeyWrittenFiles); ok {
		if files, ok := v.([]string); ok {
			sorted := append([]string(nil), files...)
			sort.Strings(sorted)
			r.WrittenFiles = sorted
		}
	}

	return r
}

// WriteJSON marshals r as indented JSON to path, creating or truncating
// the file. Matches spec.md §6.3's "optional report.json" output.
func WriteJSON(r Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
