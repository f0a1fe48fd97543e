// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assembly

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
)

func sampleDocs() map[string]Document {
	return map[string]Document{
		"index.md":                {Path: "index.md", Title: "widget", Body: "# widget\n\nGenerated docs.\n"},
		"overall_architecture.md": {Path: "overall_architecture.md", Title: "Overall Architecture", Body: "# Overall Architecture\n\n## Layers\n\nText.\n"},
		"overview.md":             {Path: "overview.md", Title: "API", Body: "# API\n\nText.\n"},
		"modules/index.md":        {Path: "modules/index.md", Title: "Modules", Body: "# Modules\n\n- [api](api.md)\n"},
		"modules/api.md":          {Path: "modules/api.md", Title: "api", Body: "# api\n\nHandles requests.\n"},
	}
}

func TestFormatNode_Prepare_RequiresCombinedDocuments(t *testing.T) {
	node := NewFormatNode()
	state := blackboard.New()
	_, err := node.Prepare(context.Background(), state)
	assert.Error(t, err)
}

func TestFormatNode_Execute_AppliesEmojiAndTOCAndFooter(t *testing.T) {
	node := NewFormatNode()
	outDir := t.TempDir()
	prep := formatPrep{repoName: "widget", outputDir: outDir, docs: sampleDocs()}

	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	res := exec.(formatResult)

	assert.Contains(t, res.final["index.md"], "🧭")
	assert.Contains(t, res.final["overall_architecture.md"], "🏗️")
	assert.Contains(t, res.final["overall_architecture.md"], "## Contents")
	assert.Contains(t, res.final["overall_architecture.md"], "[Layers](#layers)")

	// index.md is first: no prev link, has a next link.
	assert.NotContains(t, res.final["index.md"], "←")
	assert.Contains(t, res.final["index.md"], "→")

	// overall_architecture.md is between index.md and overview.md.
	assert.Contains(t, res.final["overall_architecture.md"], "←")
	assert.Contains(t, res.final["overall_architecture.md"], "→")

	require.NotEmpty(t, res.written)
	for _, w := range res.written {
		data, err := os.ReadFile(w)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
	assert.FileExists(t, filepath.Join(outDir, "widget", "index.md"))
	assert.FileExists(t, filepath.Join(outDir, "widget", "modules", "api.md"))
}

func TestFormatNode_Execute_BacksUpExistingFile(t *testing.T) {
	node := NewFormatNode()
	outDir := t.TempDir()
	existing := filepath.Join(outDir, "widget", "index.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("old content"), 0o644))

	prep := formatPrep{repoName: "widget", outputDir: outDir, docs: sampleDocs()}
	_, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)

	backup, err := os.ReadFile(existing + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "old content", string(backup))
}

func TestFormatNode_Post_WritesFinalDocumentsAndWrittenFiles(t *testing.T) {
	node := NewFormatNode()
	state := blackboard.New()
	res := formatResult{
		final:   map[string]string{"index.md": "# widget\n"},
		written: []string{"/tmp/out/widget/index.md"},
	}

	_, err := node.Post(context.Background(), state, nil, res)
	require.NoError(t, err)

	final, ok := state.Get(blackboard.KeyFinalDocuments)
	require.True(t, ok)
	assert.Equal(t, res.final, final)

	written, ok := state.Get(blackboard.KeyWrittenFiles)
	require.True(t, ok)
	assert.Equal(t, res.written, written)
}

func TestAtomicWrite_ProducesReadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "file.md")
	require.NoError(t, atomicWrite(path, []byte("hello"), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file")
}
