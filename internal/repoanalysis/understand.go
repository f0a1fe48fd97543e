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
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/depgraph"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/llm"
)

// DegradedQuality is the composite score written when every parsing
// attempt of the LLM's response fails and AIUnderstandCoreModules falls
// back to a structure-only description, per spec.md §9's Open Question
// resolution: harmonized to 0.4 everywhere a degraded path writes a
// quality score.
const DegradedQuality = 0.4

// QualityThreshold is the composite score AIUnderstandCoreModules must
// clear before accepting the LLM's understanding of the codebase.
const QualityThreshold = 0.6

// UnderstandConfig configures AIUnderstandCoreModules.
type UnderstandConfig struct {
	RetryCount int // default 2
	MaxFiles   int // how many FileEntry summaries to include in the prompt
}

// AIUnderstandCoreModulesNode sends the pruned code structure and
// dependency graph to the LLM with the "understand code" task type,
// parses the result into ModuleDescriptor list plus an architecture
// summary, and re-invokes with a refined prompt when a composite
// quality score falls below threshold, per spec.md §4.4.4. The
// completeness/structure/relational-vocabulary scoring and the
// JSON-then-YAML-then-Markdown-then-heuristic parser cascade are this
// core's own design, directly following spec.md §4.4.4's wording since
// no corpus file implements an equivalent response parser; the
// degraded structure-only fallback is grounded on
// services/code_buddy/graph/builder.go's directory-is-a-package
// convention, reused here to enumerate candidate module directories
// when the LLM produces nothing usable.
type AIUnderstandCoreModulesNode struct {
	flow.BaseNode
	Config UnderstandConfig
	LLM    *llm.Client
	Logger *slog.Logger
}

// NewAIUnderstandCoreModulesNode constructs the node with the
// "AIUnderstandCoreModules" name.
func NewAIUnderstandCoreModulesNode(cfg UnderstandConfig, client *llm.Client, logger *slog.Logger) *AIUnderstandCoreModulesNode {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 2
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 200
	}
	return &AIUnderstandCoreModulesNode{
		BaseNode: flow.BaseNode{NodeName: "AIUnderstandCoreModules", NodeTimeout: 5 * time.Minute},
		Config:   cfg,
		LLM:      client,
		Logger:   logger.With(slog.String("node", "AIUnderstandCoreModules")),
	}
}

type understandPrep struct {
	files []codeparse.FileEntry
	graph *depgraph.Graph
}

func (n *AIUnderstandCoreModulesNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	raw, ok := state.Get(blackboard.KeyCodeStructure)
	if !ok {
		return nil, fmt.Errorf("repoanalysis: %s missing from blackboard", blackboard.KeyCodeStructure)
	}
	files, _ := raw.([]codeparse.FileEntry)

	var graph *depgraph.Graph
	if rawGraph, ok := state.Get(blackboard.KeyDependencies); ok {
		graph, _ = rawGraph.(*depgraph.Graph)
	}

	if len(files) > n.Config.MaxFiles {
		files = files[:n.Config.MaxFiles]
	}
	return understandPrep{files: files, graph: graph}, nil
}

type understandResult struct {
	modules []ModuleDescriptor
	summary string
	quality float64
	prompt  string
}

func (n *AIUnderstandCoreModulesNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(understandPrep)
	prompt := buildUnderstandPrompt(p.files, p.graph)

	if n.LLM == nil {
		return n.degradedFallback(p.files), nil
	}

	var best understandResult
	for attempt := 0; attempt <= n.Config.RetryCount; attempt++ {
		text, _, err := n.LLM.Generate(ctx, llm.GenerateRequest{
			Prompt:   describeUnderstandTask(attempt, best),
			Context:  prompt,
			TaskType: llm.TaskAnalyze,
			NodeName: n.Name(),
			Params:   llm.GenerationParams{RequireJSON: false, MinLength: 20},
		})
		if err != nil {
			n.Logger.Warn("understand-code LLM call failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			continue
		}

		modules, summary, ok := parseUnderstandResponse(text)
		if !ok {
			continue
		}
		modules = filterKnownModules(modules, p.files)
		quality := scoreUnderstanding(modules, summary)
		if quality > best.quality {
			best = understandResult{modules: modules, summary: summary, quality: quality}
		}
		if quality >= QualityThreshold {
			return best, nil
		}
	}

	if best.quality > 0 {
		return best, nil
	}
	return n.degradedFallback(p.files), nil
}

func describeUnderstandTask(attempt int, prior understandResult) string {
	if attempt == 0 {
		return "Identify the core modules of this codebase and describe the architecture. " +
			"Respond as JSON: {\"modules\": [{\"name\":..,\"path\":..,\"description\":..,\"importance\":1-10,\"depends_on\":[..]}], \"architecture_summary\": \"...\"}."
	}
	return fmt.Sprintf(
		"Your previous answer scored %.2f against a completeness/structure/relational-vocabulary rubric. "+
			"Provide a more complete answer: name every major module with a concrete path, a substantive description, "+
			"and explicit depends_on relationships. Respond as JSON in the same shape as before.", prior.quality)
}

func (n *AIUnderstandCoreModulesNode) degradedFallback(files []codeparse.FileEntry) understandResult {
	modules := degradedModuleDescriptors(files)
	summary := degradedArchitectureSummary(files)
	return understandResult{modules: modules, summary: summary, quality: DegradedQuality}
}

func (n *AIUnderstandCoreModulesNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(understandResult)

	pFiles := prep.(understandPrep).files
	valid, dropped := validateDescriptors(res.modules, pFiles)
	for _, d := range dropped {
		state.AppendError(blackboard.ErrorRecord{
			Stage:     n.Name(),
			Kind:      blackboard.KindWarning,
			Message:   fmt.Sprintf("module descriptor %q references unknown path %q, dropped", d.Name, d.Path),
			Timestamp: time.Now(),
			Recovered: true,
		})
	}

	state.Set(blackboard.KeyCoreModules, valid)
	state.Set(blackboard.KeyArchitectureSummary, res.summary)
	state.Set(blackboard.KeyCoreModulesQuality, res.quality)
	return flow.ActionDefault, nil
}

// validateDescriptors enforces spec.md §3.2's invariant: "Every
// ModuleDescriptor.path resolves to an entry in code_structure (checked;
// otherwise the descriptor is dropped with a warning)."
func validateDescriptors(modules []ModuleDescriptor, files []codeparse.FileEntry) (valid, dropped []ModuleDescriptor) {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}
	for _, m := range modules {
		if known[m.Path] || isKnownPrefix(m.Path, known) {
			valid = append(valid, m)
		} else {
			dropped = append(dropped, m)
		}
	}
	return valid, dropped
}

func isKnownPrefix(dir string, known map[string]bool) bool {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for path := range known {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func filterKnownModules(modules []ModuleDescriptor, files []codeparse.FileEntry) []ModuleDescriptor {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}
	out := modules[:0:0]
	names := make(map[string]bool, 2*len(modules))
	for _, m := range modules {
		names[m.Name] = true
		names[m.Path] = true
	}
	for _, m := range modules {
		if m.Name == "" {
			continue
		}
		// Unknown dependency targets are coerced to a synthetic "external"
		// node rather than dropped, per spec.md §3.2's second invariant.
		deps := make([]string, len(m.DependsOn))
		for i, d := range m.DependsOn {
			if names[d] {
				deps[i] = d
			} else {
				deps[i] = "external"
			}
		}
		m.DependsOn = deps
		out = append(out, m)
	}
	return out
}

func buildUnderstandPrompt(files []codeparse.FileEntry, graph *depgraph.Graph) string {
	var b strings.Builder
	b.WriteString("Repository files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%s)", f.Path, f.Language)
		if f.ASTSummary != "" {
			fmt.Fprintf(&b, ": %s", f.ASTSummary)
		}
		if len(f.ExportedSymbols) > 0 {
			fmt.Fprintf(&b, " [exports: %s]", strings.Join(f.ExportedSymbols, ", "))
		}
		b.WriteString("\n")
	}
	if graph != nil && graph.EdgeCount() > 0 {
		b.WriteString("\nDependency edges:\n")
		for _, e := range graph.Edges() {
			from, _ := graph.PathForID(e.From)
			to, _ := graph.PathForID(e.To)
			fmt.Fprintf(&b, "- %s -> %s\n", from, to)
		}
	}
	return b.String()
}

// --- Response parsing cascade: JSON, then YAML, then structured
// Markdown sections, then a heuristic bullet-list extractor. ---

type understandPayload struct {
	Modules             []ModuleDescriptor `json:"modules" yaml:"modules"`
	ArchitectureSummary string             `json:"architecture_summary" yaml:"architecture_summary"`
}

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

func parseUnderstandResponse(text string) ([]ModuleDescriptor, string, bool) {
	if modules, summary, ok := parseJSONResponse(text); ok {
		return modules, summary, true
	}
	if modules, summary, ok := parseYAMLResponse(text); ok {
		return modules, summary, true
	}
	if modules, summary, ok := parseMarkdownResponse(text); ok {
		return modules, summary, true
	}
	return parseHeuristicResponse(text)
}

func parseJSONResponse(text string) ([]ModuleDescriptor, string, bool) {
	candidate := text
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	var payload understandPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &payload); err != nil {
		return nil, "", false
	}
	if len(payload.Modules) == 0 {
		return nil, "", false
	}
	return payload.Modules, payload.ArchitectureSummary, true
}

func parseYAMLResponse(text string) ([]ModuleDescriptor, string, bool) {
	candidate := text
	if idx := strings.Index(text, "```yaml"); idx >= 0 {
		rest := text[idx+len("```yaml"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate = rest[:end]
		}
	}
	var payload understandPayload
	if err := yaml.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, "", false
	}
	if len(payload.Modules) == 0 {
		return nil, "", false
	}
	return payload.Modules, payload.ArchitectureSummary, true
}

var (
	mdModuleHeadingRe = regexp.MustCompile(`(?m)^#{2,4}\s*(?:Module:\s*)?(.+?)\s*(?:\((.+?)\))?\s*$`)
	mdImportanceRe    = regexp.MustCompile(`(?i)importance\s*[:=]\s*(\d+)`)
	mdDependsOnRe     = regexp.MustCompile(`(?i)depends[_ ]on\s*[:=]\s*(.+)`)
)

// parseMarkdownResponse handles a "structured Markdown sections" reply:
// one heading per module, optionally naming its path in parentheses,
// with importance/depends_on lines in the section body.
func parseMarkdownResponse(text string) ([]ModuleDescriptor, string, bool) {
	sections := strings.Split(text, "\n#")
	if len(sections) < 2 {
		return nil, "", false
	}

	var modules []ModuleDescriptor
	var summary string
	for i, section := range sections {
		if i > 0 {
			section = "#" + section
		}
		heading := mdModuleHeadingRe.FindStringSubmatch(section)
		if heading == nil {
			if strings.Contains(strings.ToLower(section), "architecture") {
				summary = firstParagraph(section)
			}
			continue
		}
		name := strings.TrimSpace(heading[1])
		path := strings.TrimSpace(heading[2])
		if strings.EqualFold(name, "architecture summary") || strings.EqualFold(name, "architecture") {
			summary = firstParagraph(section)
			continue
		}
		m := ModuleDescriptor{Name: name, Path: path, Description: firstParagraph(section), Importance: 5}
		if im := mdImportanceRe.FindStringSubmatch(section); im != nil {
			if v, err := strconv.Atoi(im[1]); err == nil {
				m.Importance = v
			}
		}
		if dm := mdDependsOnRe.FindStringSubmatch(section); dm != nil {
			for _, d := range strings.Split(dm[1], ",") {
				if d = strings.TrimSpace(d); d != "" {
					m.DependsOn = append(m.DependsOn, d)
				}
			}
		}
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		return nil, "", false
	}
	return modules, summary, true
}

func firstParagraph(section string) string {
	lines := strings.Split(section, "\n")
	var b strings.Builder
	for _, l := range lines[1:] {
		l = strings.TrimSpace(l)
		if l == "" {
			if b.Len() > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(l, "#") {
			break
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(l)
	}
	return b.String()
}

var bulletModuleRe = regexp.MustCompile(`(?m)^\s*[-*]\s*\*{0,2}([\w./-]+)\*{0,2}\s*[:\-–]\s*(.+)$`)

// parseHeuristicResponse is the last-resort extractor: a regex over
// bullet lists ("- name: description"), per spec.md §4.4.4's explicit
// fallback description.
func parseHeuristicResponse(text string) ([]ModuleDescriptor, string, bool) {
	matches := bulletModuleRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, "", false
	}
	modules := make([]ModuleDescriptor, 0, len(matches))
	for _, m := range matches {
		modules = append(modules, ModuleDescriptor{
			Name:        m[1],
			Path:        m[1],
			Description: strings.TrimSpace(m[2]),
			Importance:  5,
		})
	}
	return modules, firstParagraph("#\n" + text), true
}

// --- Quality scoring ---

var relationalWords = []string{"depends on", "calls", "uses", "imports", "implements", "extends", "wraps", "orchestrates", "composes"}

// scoreUnderstanding computes the composite score from spec.md §4.4.4:
// (completeness × 0.4) + (structure indicators × 0.4) + (relational
// vocabulary × 0.2).
func scoreUnderstanding(modules []ModuleDescriptor, summary string) float64 {
	completeness := completenessScore(modules)
	structure := structureScore(modules, summary)
	relational := relationalScore(summary)
	return completeness*0.4 + structure*0.4 + relational*0.2
}

func completenessScore(modules []ModuleDescriptor) float64 {
	if len(modules) == 0 {
		return 0
	}
	filled := 0
	for _, m := range modules {
		if m.Name != "" && m.Path != "" && len(m.Description) > 10 {
			filled++
		}
	}
	score := float64(filled) / float64(len(modules))
	if len(modules) >= 3 {
		score = score*0.8 + 0.2
	}
	return clamp01(score)
}

func structureScore(modules []ModuleDescriptor, summary string) float64 {
	score := 0.0
	if len(summary) > 40 {
		score += 0.5
	}
	withDeps := 0
	for _, m := range modules {
		if len(m.DependsOn) > 0 {
			withDeps++
		}
	}
	if len(modules) > 0 {
		score += 0.5 * float64(withDeps) / float64(len(modules))
	}
	return clamp01(score)
}

func relationalScore(summary string) float64 {
	lower := strings.ToLower(summary)
	hits := 0
	for _, w := range relationalWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return clamp01(float64(hits) / 3.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// --- Degraded fallback: structure-only description ---

// degradedModuleDescriptors enumerates directories containing a
// package-marker file (an __init__-style marker or a main-named entry
// file), per spec.md §4.4.4's degraded-path description. Grounded on
// services/code_buddy/graph/builder.go's directory-is-a-package
// resolution convention, reused here to decide which directories count
// as modules absent any LLM input.
func degradedModuleDescriptors(files []codeparse.FileEntry) []ModuleDescriptor {
	dirs := make(map[string][]codeparse.FileEntry)
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		dirs[dir] = append(dirs[dir], f)
	}

	var modules []ModuleDescriptor
	for dir, entries := range dirs {
		if !looksLikePackageDir(entries) {
			continue
		}
		langs := make(map[string]int)
		for _, e := range entries {
			langs[e.Language]++
		}
		modules = append(modules, ModuleDescriptor{
			Name:        filepath.Base(dir),
			Path:        dir,
			Description: fmt.Sprintf("Directory with %d files (%s).", len(entries), describeLanguageMix(langs)),
			Importance:  5,
		})
	}
	return modules
}

func looksLikePackageDir(entries []codeparse.FileEntry) bool {
	for _, e := range entries {
		base := strings.ToLower(filepath.Base(e.Path))
		if base == "__init__.py" || strings.HasPrefix(base, "main.") || base == "index.ts" || base == "index.js" {
			return true
		}
	}
	return false
}

func describeLanguageMix(langs map[string]int) string {
	parts := make([]string, 0, len(langs))
	for lang, count := range langs {
		parts = append(parts, fmt.Sprintf("%d %s", count, lang))
	}
	return strings.Join(parts, ", ")
}

func degradedArchitectureSummary(files []codeparse.FileEntry) string {
	langs := make(map[string]int)
	for _, f := range files {
		langs[f.Language]++
	}
	return fmt.Sprintf("Structure-only summary (LLM analysis unavailable): %d files across %d languages (%s).",
		len(files), len(langs), describeLanguageMix(langs))
}
