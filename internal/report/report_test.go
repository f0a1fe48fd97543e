// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/content"
	"github.com/aleutian-labs/repowiki/internal/llm"
	"github.com/aleutian-labs/repowiki/internal/mermaid"
)

func TestBuild_CollectsSectionsFindingsErrorsAndUsage(t *testing.T) {
	state := blackboard.New()
	state.Set(blackboard.KeyLocalRepoPath, "/tmp/repo")
	state.Set(blackboard.QualityScoreKey("overall_architecture"), content.QualityScore{Overall: 8.5})
	state.Set(blackboard.KeyMermaidReport, []mermaid.ValidationFinding{
		{Section: "overall_architecture", Severity: mermaid.SeverityWarning, Message: "unbalanced brackets"},
	})
	state.Set(blackboard.KeyWrittenFiles, []string{"b.md", "a.md"})
	state.AppendError(blackboard.ErrorRecord{Stage: "AnalyzeHistory", Kind: blackboard.KindWarning, Message: "git log truncated"})

	usage := llm.UsageSnapshot{Calls: 5, InputTokens: 1000, OutputTokens: 500, EstimatedCost: 0.05}
	generatedAt := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	r := Build(state, usage, generatedAt, true)

	require.Contains(t, r.Sections, "overall_architecture")
	assert.Equal(t, 8.5, r.Sections["overall_architecture"].Overall)
	require.Len(t, r.Mermaid, 1)
	assert.Equal(t, mermaid.SeverityWarning, r.Mermaid[0].Severity)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "AnalyzeHistory", r.Errors[0].Stage)
	assert.Equal(t, []string{"a.md", "b.md"}, r.WrittenFiles)
	assert.Equal(t, usage, r.Usage)
	assert.True(t, r.Success)
}

func TestWriteJSON_ProducesValidFile(t *testing.T) {
	r := Report{
		GeneratedAt: time.Now(),
		Repo:        "example",
		Success:     true,
		Sections:    map[string]content.QualityScore{"quick_look": {Overall: 9.0}},
	}
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, WriteJSON(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "example", decoded.Repo)
	assert.Equal(t, 9.0, decoded.Sections["quick_look"].Overall)
}
