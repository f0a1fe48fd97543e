// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mermaid

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/llm"
)

const contentKeyPrefix = "generated_content."

// ValidationNode implements spec.md §4.6's Mermaid Validation Engine as a
// single flow.Node: it scans every generated_content.* blackboard value,
// extracts fenced ```mermaid``` blocks, validates each one, and
// regenerates the ones that fail with a dedicated prompt carrying the
// bad chart and its errors, up to Config.MaxRegenerationAttempts.
type ValidationNode struct {
	flow.BaseNode
	Config   Config
	Renderer ExternalRenderer
	LLM      *llm.Client
	Logger   *slog.Logger
}

func NewValidationNode(cfg Config, renderer ExternalRenderer, client *llm.Client, logger *slog.Logger) *ValidationNode {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRegenerationAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return &ValidationNode{
		BaseNode: flow.BaseNode{NodeName: "MermaidValidation", NodeTimeout: 5 * time.Minute},
		Config:   cfg,
		Renderer: renderer,
		LLM:      client,
		Logger:   logger.With(slog.String("node", "mermaid_validation")),
	}
}

type contentEntry struct {
	key  string
	name string
	text string
}

func (n *ValidationNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	var entries []contentEntry
	keys := state.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, contentKeyPrefix) {
			continue
		}
		v, ok := state.Get(k)
		if !ok {
			continue
		}
		text, ok := v.(string)
		if !ok {
			continue
		}
		entries = append(entries, contentEntry{
			key:  k,
			name: strings.TrimPrefix(k, contentKeyPrefix),
			text: text,
		})
	}
	return entries, nil
}

func (n *ValidationNode) Execute(ctx context.Context, prep any) (any, error) {
	entries := prep.([]contentEntry)
	if !n.Config.Enabled {
		return entries, nil
	}

	var findings []ValidationFinding
	out := make([]contentEntry, len(entries))
	for i, e := range entries {
		text := e.text
		blocks := ExtractBlocks(text)
		// Walk back-to-front so earlier substitutions don't invalidate
		// the byte offsets of blocks not yet processed.
		for bi := len(blocks) - 1; bi >= 0; bi-- {
			block := blocks[bi]
			finding, newBody, ok := n.checkAndRepair(ctx, e.name, bi, block.Body)
			findings = append(findings, finding)
			if ok {
				text = Substitute(text, block, newBody)
			}
		}
		out[i] = contentEntry{key: e.key, name: e.name, text: text}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Section != findings[j].Section {
			return findings[i].Section < findings[j].Section
		}
		return findings[i].BlockIndex < findings[j].BlockIndex
	})

	return execResult{entries: out, findings: findings}, nil
}

type execResult struct {
	entries  []contentEntry
	findings []ValidationFinding
}

// checkAndRepair validates one block and, if it fails, attempts
// regeneration up to MaxRegenerationAttempts. It returns the finding to
// record, the replacement body (only meaningful when ok is true), and
// whether the caller should substitute it back into the document.
func (n *ValidationNode) checkAndRepair(ctx context.Context, section string, index int, body string) (ValidationFinding, string, bool) {
	chartType, errs := n.validateOne(body)
	if len(errs) == 0 {
		return ValidationFinding{Section: section, BlockIndex: index, ChartType: chartType, Severity: SeverityWarning}, "", false
	}

	if n.LLM == nil {
		return ValidationFinding{
			Section: section, BlockIndex: index, ChartType: chartType,
			Severity: SeverityWarning, Message: strings.Join(errs, "; "),
		}, "", false
	}

	current := body
	currentErrs := errs
	for attempt := 0; attempt < n.Config.MaxRegenerationAttempts; attempt++ {
		prompt := regenerationPrompt(section, chartType, current, currentErrs)
		text, _, err := n.LLM.Generate(ctx, llm.GenerateRequest{
			Prompt:   "Fix the invalid Mermaid diagram.",
			Context:  prompt,
			TaskType: llm.TaskRegenerate,
			NodeName: n.Name(),
			Params:   llm.GenerationParams{MinLength: 10},
		})
		if err != nil {
			n.Logger.Warn("mermaid regeneration call failed", slog.String("section", section), slog.Int("attempt", attempt+1), slog.Any("error", err))
			continue
		}
		candidate := extractChartBody(text)
		ct, verrs := n.validateOne(candidate)
		if len(verrs) == 0 {
			return ValidationFinding{
				Section: section, BlockIndex: index, ChartType: ct,
				Severity: SeverityWarning, Regenerated: true,
			}, candidate, true
		}
		current, currentErrs, chartType = candidate, verrs, ct
	}

	return ValidationFinding{
		Section: section, BlockIndex: index, ChartType: chartType,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("unresolved after %d regeneration attempt(s): %s", n.Config.MaxRegenerationAttempts, strings.Join(currentErrs, "; ")),
	}, "", false
}

// validateOne prefers the external renderer when configured, falling
// back to the rule-based checks in Validate when no renderer is wired
// or when the renderer rejects the chart and FallbackToRules is set.
func (n *ValidationNode) validateOne(body string) (string, []string) {
	if n.Config.UseExternalRenderer && n.Renderer != nil {
		if err := n.Renderer.Render(body); err != nil {
			if !n.Config.FallbackToRules {
				return declaredChartType(firstNonBlank(body)), []string{err.Error()}
			}
		} else {
			return declaredChartType(firstNonBlank(body)), nil
		}
	}
	return Validate(body)
}

func firstNonBlank(body string) string {
	for _, l := range strings.Split(body, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			return t
		}
	}
	return ""
}

// extractChartBody strips a fenced block wrapper from an LLM response
// that may or may not have included the ```mermaid fences.
func extractChartBody(text string) string {
	if blocks := ExtractBlocks(text); len(blocks) > 0 {
		return blocks[0].Body
	}
	return strings.TrimSpace(text)
}

func regenerationPrompt(section, chartType string, body string, errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following Mermaid diagram from the %q documentation section failed validation.\n\n", section)
	if chartType != "" {
		fmt.Fprintf(&b, "Declared chart type: %s\n\n", chartType)
	}
	b.WriteString("Current chart:\n```mermaid\n")
	b.WriteString(body)
	b.WriteString("\n```\n\n")
	b.WriteString("Validation errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	b.WriteString("\nRewrite the diagram so it fixes every error above. Respond with a single fenced ```mermaid``` block and nothing else.")
	return b.String()
}

func (n *ValidationNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(execResult)
	for _, e := range res.entries {
		state.Set(e.key, e.text)
	}
	state.Set(blackboard.KeyMermaidReport, res.findings)
	for _, f := range res.findings {
		if f.Message == "" {
			continue
		}
		state.AppendError(blackboard.ErrorRecord{
			Stage:     n.Name(),
			Kind:      blackboard.KindWarning,
			Message:   fmt.Sprintf("%s block %d (%s): %s", f.Section, f.BlockIndex, f.ChartType, f.Message),
			Timestamp: time.Now(),
			Recovered: f.Regenerated,
		})
	}
	return flow.ActionDefault, nil
}
