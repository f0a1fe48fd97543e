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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

func newCombineState() *blackboard.Store {
	state := blackboard.New()
	state.Set(blackboard.KeyRepoSource, "https://example.com/acme/widget.git")
	state.Set(blackboard.GeneratedContentKey("overall_architecture"), "# Overall Architecture\n\nThe api module calls the db module.\n")
	state.Set(blackboard.GeneratedContentKey("api_docs"), "# API\n\nSee the api module for handlers.\n")
	state.Set(blackboard.ModuleDetailKey("api"), "# api\n\nHandles HTTP requests. Depends on db.\n")
	state.Set(blackboard.ModuleDetailKey("db"), "# db\n\nData access layer.\n")
	state.Set(blackboard.KeyCoreModules, []repoanalysis.ModuleDescriptor{
		{Name: "api", Path: "src/api", Description: "HTTP layer"},
		{Name: "db", Path: "src/db", Description: "Data access layer"},
	})
	return state
}

func TestCombineNode_PrepareSeparatesSectionsFromModulePages(t *testing.T) {
	node := NewCombineNode()
	state := newCombineState()

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)
	p := prep.(combinePrep)

	assert.Equal(t, "widget.git", p.repoName)
	assert.Len(t, p.sections, 2)
	assert.Len(t, p.modPages, 2)
	assert.Len(t, p.modules, 2)
}

func TestCombineNode_ExecuteBuildsFileTreeWithCrossLinks(t *testing.T) {
	node := NewCombineNode()
	state := newCombineState()

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)

	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	docs := exec.(map[string]Document)

	require.Contains(t, docs, "overall_architecture.md")
	require.Contains(t, docs, "overview.md")
	require.Contains(t, docs, "modules/index.md")
	require.Contains(t, docs, "modules/api.md")
	require.Contains(t, docs, "modules/db.md")
	require.Contains(t, docs, "index.md")

	assert.Contains(t, docs["overall_architecture.md"].Body, "[api](modules/api.md)")
	assert.Contains(t, docs["overall_architecture.md"].Body, "[db](modules/db.md)")
	assert.Contains(t, docs["modules/api.md"].Body, "[db](db.md)")
	assert.Contains(t, docs["modules/index.md"].Body, "[api](api.md)")
	assert.Contains(t, docs["modules/index.md"].Body, "[db](db.md)")
	assert.Contains(t, docs["index.md"].Body, "widget.git")
	assert.Contains(t, docs["index.md"].Body, "[Modules](modules/index.md) (2)")
}

func TestCombineNode_ExecuteWithNoModulesStillProducesIndex(t *testing.T) {
	node := NewCombineNode()
	state := blackboard.New()
	state.Set(blackboard.KeyRepoSource, "widget")
	state.Set(blackboard.GeneratedContentKey("glossary"), "# Glossary\n\nNo cross-links here.\n")

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)

	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	docs := exec.(map[string]Document)

	assert.Contains(t, docs["modules/index.md"].Body, "No modules were identified")
}

func TestCombineNode_Post_StoresCombinedDocuments(t *testing.T) {
	node := NewCombineNode()
	state := blackboard.New()
	docs := map[string]Document{"index.md": {Path: "index.md", Body: "# Widget\n"}}

	_, err := node.Post(context.Background(), state, nil, docs)
	require.NoError(t, err)

	stored, ok := state.Get(blackboard.KeyCombinedDocuments)
	require.True(t, ok)
	assert.Equal(t, docs, stored)
}
