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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

const (
	moduleDetailPrefix = "generated_content.module_details."
	contentPrefix      = "generated_content."
)

// CombineNode implements the Combine half of spec.md §4.7's Assembly
// stage: it walks generated_content and module_details, normalizes
// heading levels, cross-links module name mentions to their detail
// page, and lays out the file tree described in the spec.
type CombineNode struct {
	flow.BaseNode
}

func NewCombineNode() *CombineNode {
	return &CombineNode{BaseNode: flow.BaseNode{NodeName: "Combine", NodeTimeout: time.Minute}}
}

type combinePrep struct {
	repoName string
	sections map[string]string
	modules  []repoanalysis.ModuleDescriptor
	modPages map[string]string
}

func (n *CombineNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	p := combinePrep{
		repoName: repoNameFrom(state),
		sections: map[string]string{},
		modPages: map[string]string{},
	}
	for _, k := range state.Keys() {
		if !strings.HasPrefix(k, contentPrefix) {
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
		if strings.HasPrefix(k, moduleDetailPrefix) {
			p.modPages[strings.TrimPrefix(k, moduleDetailPrefix)] = text
			continue
		}
		p.sections[strings.TrimPrefix(k, contentPrefix)] = text
	}
	if v, ok := state.Get(blackboard.KeyCoreModules); ok {
		if modules, ok := v.([]repoanalysis.ModuleDescriptor); ok {
			p.modules = modules
		}
	}
	return p, nil
}

func (n *CombineNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(combinePrep)

	slugOf := make(map[string]string, len(p.modules))
	for _, m := range p.modules {
		slugOf[m.Name] = Slugify(m.Name)
	}

	docs := make(map[string]Document)

	for section, text := range p.sections {
		file, ok := sectionFile[section]
		if !ok {
			file = Slugify(section) + ".md"
		}
		body := normalizeHeadings(text)
		body = crossLinkModules(body, slugOf, func(slug string) string { return "modules/" + slug + ".md" })
		docs[file] = Document{Path: file, Title: titleOf(body, section), Body: body}
	}

	for name, text := range p.modPages {
		slug := slugOf[name]
		if slug == "" {
			slug = Slugify(name)
		}
		body := normalizeHeadings(text)
		body = crossLinkModules(body, slugOf, func(s string) string { return s + ".md" })
		path := "modules/" + slug + ".md"
		docs[path] = Document{Path: path, Title: titleOf(body, name), Body: body}
	}

	docs["modules/index.md"] = Document{
		Path:  "modules/index.md",
		Title: "Modules",
		Body:  moduleIndexBody(p.modules, slugOf),
	}

	docs["index.md"] = Document{
		Path:  "index.md",
		Title: p.repoName,
		Body:  indexBody(p.repoName, p.sections, len(p.modules)),
	}

	return docs, nil
}

func moduleIndexBody(modules []repoanalysis.ModuleDescriptor, slugOf map[string]string) string {
	sorted := append([]repoanalysis.ModuleDescriptor(nil), modules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("# Modules\n\n")
	if len(sorted) == 0 {
		b.WriteString("No modules were identified for this repository.\n")
		return b.String()
	}
	for _, m := range sorted {
		slug := slugOf[m.Name]
		fmt.Fprintf(&b, "- [%s](%s.md) — %s\n", m.Name, slug, m.Description)
	}
	return b.String()
}

// sectionOrder is the canonical listing order for index.md, matching
// internal/content.Sections.
var sectionOrder = []string{"overall_architecture", "api_docs", "dependency", "timeline", "glossary", "quick_look"}

func indexBody(repoName string, sections map[string]string, moduleCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", repoName)
	b.WriteString("Generated documentation for this repository.\n\n")
	b.WriteString("## Sections\n\n")
	for _, section := range sectionOrder {
		if _, ok := sections[section]; !ok {
			continue
		}
		file := sectionFile[section]
		fmt.Fprintf(&b, "- [%s](%s)\n", titleize(strings.TrimSuffix(file, ".md")), file)
	}
	fmt.Fprintf(&b, "- [Modules](modules/index.md) (%d)\n", moduleCount)
	return b.String()
}

func titleize(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (n *CombineNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	docs := exec.(map[string]Document)
	state.Set(blackboard.KeyCombinedDocuments, docs)
	return flow.ActionDefault, nil
}

func repoNameFrom(state *blackboard.Store) string {
	if name := state.GetString("repo_name"); name != "" {
		return name
	}
	return baseName(state.GetString(blackboard.KeyRepoSource))
}

func baseName(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
