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
	"fmt"
	"log/slog"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/llm"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

// SectionGeneratorNode produces one of the six Markdown sections listed
// in Sections (module details come from ModuleDetailsNode). It formats its prompt template with whatever repository
// context is present on the blackboard, calls the LLM with the
// generate_content task type, then runs its ContentQualityCheck inline
// and regenerates with the critique appended as refinement guidance
// when the score falls short, capped at MaxRegenerationAttempts — the
// same single-node internal-retry shape as
// internal/repoanalysis/understand.go's AIUnderstandCoreModulesNode,
// reused here because spec.md §4.5 describes the same
// generate-then-score-then-refine cycle for content that §4.4.4
// describes for code understanding.
type SectionGeneratorNode struct {
	flow.BaseNode
	Section          string
	RequiredDiagrams int
	Quality          QualityConfig

	Prompts *PromptBuilder
	LLM     *llm.Client
	Logger  *slog.Logger
}

// NewSectionGeneratorNode constructs a generator for spec from the
// section table, defaulting Quality to DefaultQualityConfig when zero.
func NewSectionGeneratorNode(spec SectionSpec, quality QualityConfig, prompts *PromptBuilder, client *llm.Client, logger *slog.Logger) *SectionGeneratorNode {
	if logger == nil {
		logger = slog.Default()
	}
	if quality.MaxRegenerationAttempts <= 0 {
		quality = DefaultQualityConfig()
	}
	return &SectionGeneratorNode{
		BaseNode:         flow.BaseNode{NodeName: "GenerateContent." + spec.Name, NodeTimeout: 5 * time.Minute},
		Section:          spec.Name,
		RequiredDiagrams: spec.RequiredDiagrams,
		Quality:          quality,
		Prompts:          prompts,
		LLM:              client,
		Logger:           logger.With(slog.String("node", "generate:"+spec.Name)),
	}
}

type sectionPrep struct {
	repoName            string
	targetLanguage      string
	architectureSummary string
	historySummary      string
	coreModules         []repoanalysis.ModuleDescriptor
	codeSample          []codeparse.FileEntry
}

func (n *SectionGeneratorNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	prep := sectionPrep{
		repoName:       repoNameFrom(state),
		targetLanguage: state.GetString(blackboard.KeyTargetLanguage),
	}
	prep.architectureSummary = state.GetString(blackboard.KeyArchitectureSummary)
	prep.historySummary = state.GetString(blackboard.KeyHistorySummary)

	if raw, ok := state.Get(blackboard.KeyCoreModules); ok {
		prep.coreModules, _ = raw.([]repoanalysis.ModuleDescriptor)
	}
	if raw, ok := state.Get(blackboard.KeyCodeStructure); ok {
		files, _ := raw.([]codeparse.FileEntry)
		if len(files) > 30 {
			files = files[:30]
		}
		prep.codeSample = files
	}
	return prep, nil
}

type sectionResult struct {
	text     string
	quality  QualityScore
	attempts int
}

func (n *SectionGeneratorNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(sectionPrep)

	if n.LLM == nil {
		text := fmt.Sprintf("# %s\n\n_Content unavailable: no LLM configured._\n", n.Section)
		return sectionResult{text: text, quality: scoreContent(text, n.RequiredDiagrams, n.Quality.Weights), attempts: 0}, nil
	}

	data := PromptData{
		RepoName:            p.repoName,
		Section:             n.Section,
		TargetLanguage:      p.targetLanguage,
		RequiredDiagrams:    n.RequiredDiagrams,
		ArchitectureSummary: p.architectureSummary,
		HistorySummary:      p.historySummary,
		CoreModules:         p.coreModules,
		CodeStructureSample: p.codeSample,
	}

	maxAttempts := n.Quality.MaxRegenerationAttempts
	if !n.Quality.AutoRegenerate {
		maxAttempts = 0
	}

	var best sectionResult
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		data.Critique = ""
		if attempt > 0 {
			data.Critique = best.quality.Critique
		}
		prompt, err := n.Prompts.BuildSectionPrompt(data)
		if err != nil {
			return nil, fmt.Errorf("content: rendering %s prompt: %w", n.Section, err)
		}

		taskType := llm.TaskGenerateContent
		if attempt > 0 {
			taskType = llm.TaskRegenerate
		}
		text, _, err := n.LLM.Generate(ctx, llm.GenerateRequest{
			Prompt:         fmt.Sprintf("Write the %s documentation section.", n.Section),
			Context:        prompt,
			TaskType:       taskType,
			NodeName:       n.Name(),
			TargetLanguage: p.targetLanguage,
			Params:         llm.GenerationParams{MinLength: 40},
		})
		if err != nil {
			n.Logger.Warn("content generation call failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			continue
		}

		score := scoreContent(text, n.RequiredDiagrams, n.Quality.Weights)
		if score.Overall > best.quality.Overall || best.text == "" {
			best = sectionResult{text: text, quality: score, attempts: attempt + 1}
		}
		if score.Overall >= n.Quality.OverallThreshold {
			return best, nil
		}
	}

	if best.text == "" {
		text := fmt.Sprintf("# %s\n\n_Content generation failed after %d attempt(s)._\n", n.Section, maxAttempts+1)
		best = sectionResult{text: text, quality: scoreContent(text, n.RequiredDiagrams, n.Quality.Weights)}
	}
	return best, nil
}

func (n *SectionGeneratorNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(sectionResult)
	state.Set(blackboard.GeneratedContentKey(n.Section), res.text)
	state.Set(blackboard.QualityScoreKey(n.Section), res.quality)

	if res.quality.Diagrams < n.RequiredDiagrams {
		state.AppendError(blackboard.ErrorRecord{
			Stage:     n.Name(),
			Kind:      blackboard.KindWarning,
			Message:   fmt.Sprintf("section %q has %d Mermaid diagram(s), wanted at least %d", n.Section, res.quality.Diagrams, n.RequiredDiagrams),
			Timestamp: time.Now(),
			Recovered: true,
		})
	}
	return flow.ActionDefault, nil
}

func repoNameFrom(state *blackboard.Store) string {
	if name := state.GetString("repo_name"); name != "" {
		return name
	}
	source := state.GetString(blackboard.KeyRepoSource)
	return baseName(source)
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
