// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repoanalysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
)

func TestPrepareRAGDataNode_ChunksTextFiles(t *testing.T) {
	root := t.TempDir()
	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte(content), 0o644))

	node := NewPrepareRAGDataNode(RAGConfig{ChunkSize: 200, ChunkOverlap: 20}, nil, nil)
	state := blackboard.New()
	state.Set(blackboard.KeyLocalRepoPath, root)
	state.Set(blackboard.KeyCodeStructure, []codeparse.FileEntry{{Path: "notes.md", Language: "markdown"}})

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)

	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	chunks := exec.([]Chunk)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.Equal(t, "notes.md", c.SourcePath)
		assert.NotEmpty(t, c.ID)
	}

	_, err = node.Post(context.Background(), state, prep, exec)
	require.NoError(t, err)
	stored, ok := state.Get(blackboard.KeyRAGChunks)
	require.True(t, ok)
	assert.Equal(t, chunks, stored)
}

func TestPrepareRAGDataNode_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	node := NewPrepareRAGDataNode(RAGConfig{}, nil, nil)
	state := blackboard.New()
	state.Set(blackboard.KeyLocalRepoPath, root)
	state.Set(blackboard.KeyCodeStructure, []codeparse.FileEntry{{Path: "image.png", IsBinary: true}})

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)
	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	assert.Empty(t, exec.([]Chunk))
}

func TestPrepareRAGDataNode_SplitterForFileChoosesLanguageSeparators(t *testing.T) {
	node := NewPrepareRAGDataNode(RAGConfig{}, nil, nil)
	assert.NotNil(t, node.splitterFor("README.md"))
	assert.NotNil(t, node.splitterFor("main.py"))
	assert.NotNil(t, node.splitterFor("handler.go"))
	assert.NotNil(t, node.splitterFor("config.yaml"))
}

func TestPrepareRAGDataNode_ShortFileYieldsOneChunk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "short.txt"), []byte("hello world"), 0o644))

	node := NewPrepareRAGDataNode(RAGConfig{ChunkSize: 1000, ChunkOverlap: 100}, nil, nil)
	state := blackboard.New()
	state.Set(blackboard.KeyLocalRepoPath, root)
	state.Set(blackboard.KeyCodeStructure, []codeparse.FileEntry{{Path: "short.txt"}})

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)
	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	chunks := exec.([]Chunk)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Text)
}
