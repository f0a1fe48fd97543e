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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/depgraph"
)

func writeRepoFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app", "main.py"),
		[]byte("import os\nfrom .helpers import format_name\n\ndef main():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app", "helpers.py"),
		[]byte("def format_name(n):\n    return n\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	return root
}

func TestParseCodeBatchNode_WalksAndParsesRepo(t *testing.T) {
	root := writeRepoFixture(t)

	node := NewParseCodeBatchNode(ParseCodeConfig{}, nil, nil)
	state := blackboard.New()
	state.Set(blackboard.KeyLocalRepoPath, root)

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)

	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)

	res := exec.(parseCodeResult)
	assert.Len(t, res.entries, 2)

	_, err = node.Post(context.Background(), state, prep, exec)
	require.NoError(t, err)

	structure, ok := state.Get(blackboard.KeyCodeStructure)
	require.True(t, ok)
	assert.Len(t, structure, 2)

	graph, ok := state.Get(blackboard.KeyDependencies)
	require.True(t, ok)
	assert.IsType(t, &depgraph.Graph{}, graph)
}

func TestParseCodeBatchNode_Prepare_MissingRepoPath(t *testing.T) {
	node := NewParseCodeBatchNode(ParseCodeConfig{}, nil, nil)
	_, err := node.Prepare(context.Background(), blackboard.New())
	assert.Error(t, err)
}

func TestWalkSourceFiles_RespectsMaxFilesAndIgnoresGit(t *testing.T) {
	root := writeRepoFixture(t)

	paths, err := walkSourceFiles(root, nil, 0)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	capped, err := walkSourceFiles(root, nil, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, matchesAny("node_modules/x.js", []string{"node_modules"}))
	assert.True(t, matchesAny("build/out.bin", []string{"*.bin"}))
	assert.False(t, matchesAny("src/main.go", []string{"node_modules", "*.bin"}))
}
