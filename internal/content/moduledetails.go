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
	"os"
	"path/filepath"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/depgraph"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/llm"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

// ModuleDetailsConfig configures the module details batch, per spec.md
// §4.5's "Batch size caps at max_modules_per_batch".
type ModuleDetailsConfig struct {
	MaxModulesPerBatch int
	MaxFileBytes       int
	Parallel           bool
	Width              int
	Quality            QualityConfig
}

// ModuleDetailsNode generates one detail page per core module from the
// module's own file contents plus its immediate dependency
// neighborhood, run as a flow.RunBatch batch (internal/flow's generic
// batch runner, already relied on by
// internal/repoanalysis/parse_code.go for the same
// prepare-then-fan-out shape) rather than one node per module, so the
// batch width and fail-fast policy are configured once.
type ModuleDetailsNode struct {
	flow.BaseNode
	Config  ModuleDetailsConfig
	Prompts *PromptBuilder
	LLM     *llm.Client
	Logger  *slog.Logger
}

// NewModuleDetailsNode constructs the node with the "ModuleDetails" name.
func NewModuleDetailsNode(cfg ModuleDetailsConfig, prompts *PromptBuilder, client *llm.Client, logger *slog.Logger) *ModuleDetailsNode {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxModulesPerBatch <= 0 {
		cfg.MaxModulesPerBatch = 20
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 8000
	}
	if cfg.Quality.MaxRegenerationAttempts <= 0 {
		cfg.Quality = DefaultQualityConfig()
	}
	return &ModuleDetailsNode{
		BaseNode: flow.BaseNode{NodeName: "ModuleDetails", NodeTimeout: 10 * time.Minute},
		Config:   cfg,
		Prompts:  prompts,
		LLM:      client,
		Logger:   logger.With(slog.String("node", "ModuleDetails")),
	}
}

type moduleDetailsPrep struct {
	repoName       string
	targetLanguage string
	root           string
	modules        []repoanalysis.ModuleDescriptor
	graph          *depgraph.Graph
}

func (n *ModuleDetailsNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	raw, ok := state.Get(blackboard.KeyCoreModules)
	if !ok {
		return nil, fmt.Errorf("content: %s missing from blackboard", blackboard.KeyCoreModules)
	}
	modules, _ := raw.([]repoanalysis.ModuleDescriptor)
	if len(modules) > n.Config.MaxModulesPerBatch {
		n.Logger.Warn("truncating module details batch", slog.Int("modules", len(modules)), slog.Int("cap", n.Config.MaxModulesPerBatch))
		modules = modules[:n.Config.MaxModulesPerBatch]
	}

	var graph *depgraph.Graph
	if rawGraph, ok := state.Get(blackboard.KeyDependencies); ok {
		graph, _ = rawGraph.(*depgraph.Graph)
	}

	return moduleDetailsPrep{
		repoName:       repoNameFrom(state),
		targetLanguage: state.GetString(blackboard.KeyTargetLanguage),
		root:           state.GetString(blackboard.KeyLocalRepoPath),
		modules:        modules,
		graph:          graph,
	}, nil
}

type moduleDetailResult struct {
	module repoanalysis.ModuleDescriptor
	text   string
	score  QualityScore
}

func (n *ModuleDetailsNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(moduleDetailsPrep)

	results, _ := flow.RunBatch(ctx, p.modules, n.Config.Parallel, n.Config.Width, false,
		func(ctx context.Context, m repoanalysis.ModuleDescriptor) (moduleDetailResult, error) {
			return n.generateOne(ctx, p, m)
		})

	out := make([]moduleDetailResult, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			n.Logger.Warn("module detail generation failed", slog.String("error", r.Err.Error()))
			continue
		}
		out = append(out, r.Value)
	}
	return out, nil
}

func (n *ModuleDetailsNode) generateOne(ctx context.Context, p moduleDetailsPrep, m repoanalysis.ModuleDescriptor) (moduleDetailResult, error) {
	fileContents := n.readModuleFiles(p.root, m)
	neighbors := neighborPaths(p.graph, m.Path)

	if n.LLM == nil {
		text := fmt.Sprintf("# %s\n\n%s\n", m.Name, m.Description)
		return moduleDetailResult{module: m, text: text, score: scoreContent(text, 0, n.Config.Quality.Weights)}, nil
	}

	data := ModuleDetailData{
		RepoName:       p.repoName,
		TargetLanguage: p.targetLanguage,
		Module:         m,
		FileContents:   fileContents,
		NeighborPaths:  neighbors,
	}

	maxAttempts := n.Config.Quality.MaxRegenerationAttempts
	if !n.Config.Quality.AutoRegenerate {
		maxAttempts = 0
	}

	var best moduleDetailResult
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		data.Critique = ""
		if attempt > 0 {
			data.Critique = best.score.Critique
		}
		prompt, err := n.Prompts.BuildModuleDetailPrompt(data)
		if err != nil {
			return moduleDetailResult{}, fmt.Errorf("content: rendering module detail prompt for %s: %w", m.Name, err)
		}

		taskType := llm.TaskGenerateContent
		if attempt > 0 {
			taskType = llm.TaskRegenerate
		}
		text, _, err := n.LLM.Generate(ctx, llm.GenerateRequest{
			Prompt:         fmt.Sprintf("Write the detail page for module %s.", m.Name),
			Context:        prompt,
			TaskType:       taskType,
			NodeName:       n.Name(),
			TargetLanguage: p.targetLanguage,
			Params:         llm.GenerationParams{MinLength: 20},
		})
		if err != nil {
			continue
		}
		score := scoreContent(text, 0, n.Config.Quality.Weights)
		if score.Overall > best.score.Overall || best.text == "" {
			best = moduleDetailResult{module: m, text: text, score: score}
		}
		if score.Overall >= n.Config.Quality.OverallThreshold {
			return best, nil
		}
	}
	if best.text == "" {
		text := fmt.Sprintf("# %s\n\n%s\n", m.Name, m.Description)
		best = moduleDetailResult{module: m, text: text, score: scoreContent(text, 0, n.Config.Quality.Weights)}
	}
	return best, nil
}

// readModuleFiles reads up to Config.MaxFileBytes of each file under the
// module's path, truncating oversized files to stay within the model's
// input budget per spec.md §4.5's "to ≤ the model's input budget".
func (n *ModuleDetailsNode) readModuleFiles(root string, m repoanalysis.ModuleDescriptor) map[string]string {
	if root == "" {
		return nil
	}
	full := filepath.Join(root, m.Path)
	info, err := os.Stat(full)
	if err != nil {
		return nil
	}

	contents := make(map[string]string)
	if !info.IsDir() {
		if b, err := os.ReadFile(full); err == nil {
			contents[m.Path] = truncateBytes(string(b), n.Config.MaxFileBytes)
		}
		return contents
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(m.Path, e.Name())
		b, err := os.ReadFile(filepath.Join(root, p))
		if err != nil {
			continue
		}
		contents[p] = truncateBytes(string(b), n.Config.MaxFileBytes)
	}
	return contents
}

func truncateBytes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}

// neighborPaths resolves a module's immediate dependency neighborhood
// (the paths its own node directly depends on) from the module
// dependency graph, per spec.md §4.5's "immediate dependency
// neighborhood".
func neighborPaths(g *depgraph.Graph, path string) []string {
	if g == nil {
		return nil
	}
	id, ok := g.IDForPath(path)
	if !ok {
		return nil
	}
	var out []string
	for _, dep := range g.Dependencies(id) {
		if p, ok := g.PathForID(dep); ok {
			out = append(out, p)
		}
	}
	return out
}

func (n *ModuleDetailsNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	results := exec.([]moduleDetailResult)
	for _, r := range results {
		state.Set(blackboard.ModuleDetailKey(r.module.Name), r.text)
		state.Set(blackboard.QualityScoreKey("module_details."+r.module.Name), r.score)
	}
	if len(results) == 0 {
		state.AppendError(blackboard.ErrorRecord{
			Stage:     n.Name(),
			Kind:      blackboard.KindWarning,
			Message:   "no module detail pages were generated",
			Timestamp: time.Now(),
			Recovered: true,
		})
	}
	return flow.ActionDefault, nil
}
