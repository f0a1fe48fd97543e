// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

func TestSectionGeneratorNode_Prepare_GathersBlackboardContext(t *testing.T) {
	pb, err := NewPromptBuilder()
	require.NoError(t, err)
	node := NewSectionGeneratorNode(Sections[0], DefaultQualityConfig(), pb, nil, nil)

	state := blackboard.New()
	state.Set(blackboard.KeyRepoSource, "https://example.com/acme/widget.git")
	state.Set(blackboard.KeyArchitectureSummary, "The api module calls the db module.")
	state.Set(blackboard.KeyCoreModules, []repoanalysis.ModuleDescriptor{{Name: "api", Path: "src/api"}})
	state.Set(blackboard.KeyCodeStructure, []codeparse.FileEntry{{Path: "src/api/handler.go", Language: "go"}})

	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)
	p := prep.(sectionPrep)
	assert.Equal(t, "widget.git", p.repoName)
	assert.Len(t, p.coreModules, 1)
	assert.Len(t, p.codeSample, 1)
}

func TestSectionGeneratorNode_Execute_WithoutLLMProducesPlaceholder(t *testing.T) {
	pb, err := NewPromptBuilder()
	require.NoError(t, err)
	node := NewSectionGeneratorNode(Sections[0], DefaultQualityConfig(), pb, nil, nil)

	state := blackboard.New()
	prep, err := node.Prepare(context.Background(), state)
	require.NoError(t, err)

	exec, err := node.Execute(context.Background(), prep)
	require.NoError(t, err)
	res := exec.(sectionResult)
	assert.Contains(t, res.text, "Content unavailable")

	_, err = node.Post(context.Background(), state, prep, exec)
	require.NoError(t, err)
	content, ok := state.Get(blackboard.GeneratedContentKey(Sections[0].Name))
	require.True(t, ok)
	assert.Equal(t, res.text, content)

	quality, ok := state.Get(blackboard.QualityScoreKey(Sections[0].Name))
	require.True(t, ok)
	assert.IsType(t, QualityScore{}, quality)
}

func TestSectionGeneratorNode_Post_RecordsDiagramShortfallWarning(t *testing.T) {
	pb, err := NewPromptBuilder()
	require.NoError(t, err)
	spec := SectionSpec{Name: "overall_architecture", RequiredDiagrams: 4}
	node := NewSectionGeneratorNode(spec, DefaultQualityConfig(), pb, nil, nil)

	state := blackboard.New()
	exec := sectionResult{text: "# overall_architecture\n\nno diagrams here\n", quality: scoreContent("no diagrams here", 4, nil)}

	_, err = node.Post(context.Background(), state, sectionPrep{}, exec)
	require.NoError(t, err)

	errs := state.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, blackboard.KindWarning, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "Mermaid diagram")
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "widget.git", baseName("https://example.com/acme/widget.git"))
	assert.Equal(t, "widget", baseName("widget"))
}
