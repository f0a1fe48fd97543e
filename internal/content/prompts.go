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
	"bytes"
	"strings"
	"text/template"

	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
)

// PromptBuilder renders section and module-detail prompts from a shared
// text/template, grounded on
// services/code_buddy/agent/routing/prompt.go's PromptBuilder: a single
// parsed *template.Template plus a small FuncMap, executed against a
// per-call data struct rather than string concatenation.
type PromptBuilder struct {
	section *template.Template
	module  *template.Template
}

// PromptData is the data rendered into the section prompt template.
type PromptData struct {
	RepoName            string
	Section             string
	TargetLanguage      string
	RequiredDiagrams    int
	ArchitectureSummary string
	HistorySummary      string
	CoreModules         []repoanalysis.ModuleDescriptor
	CodeStructureSample []codeparse.FileEntry
	Critique            string
}

// ModuleDetailData is the data rendered into the module detail prompt
// template.
type ModuleDetailData struct {
	RepoName       string
	TargetLanguage string
	Module         repoanalysis.ModuleDescriptor
	FileContents   map[string]string
	NeighborPaths  []string
	Critique       string
}

const sectionPromptTemplate = `Generate the "{{.Section}}" documentation section for the repository {{.RepoName}}.
{{- if .TargetLanguage}}
Write in {{.TargetLanguage}}.
{{- end}}
Include at least {{.RequiredDiagrams}} Mermaid diagram(s) in fenced ` + "```mermaid``` " + `blocks appropriate to this section.

{{- if .ArchitectureSummary}}

## Architecture summary
{{.ArchitectureSummary}}
{{- end}}

{{- if .HistorySummary}}

## History summary
{{.HistorySummary}}
{{- end}}

{{- if .CoreModules}}

## Core modules
{{- range .CoreModules}}
- {{.Name}} ({{.Path}}, importance {{.Importance}}): {{.Description}}
{{- if .DependsOn}} depends on: {{join .DependsOn ", "}}{{- end}}
{{- end}}
{{- end}}

{{- if .CodeStructureSample}}

## Representative files
{{- range .CodeStructureSample}}
- {{.Path}} ({{.Language}})
{{- end}}
{{- end}}

{{- if .Critique}}

## Revision guidance
Your previous attempt at this section had the following issues; address them directly:
{{.Critique}}
{{- end}}

Respond with Markdown only, starting at a top-level heading for this section.`

const moduleDetailPromptTemplate = `Generate a detail page for the module {{.Module.Name}} ({{.Module.Path}}) of the repository {{.RepoName}}.
{{- if .TargetLanguage}}
Write in {{.TargetLanguage}}.
{{- end}}

## Description
{{.Module.Description}}

{{- if .NeighborPaths}}

## Immediate dependency neighborhood
{{- range .NeighborPaths}}
- {{.}}
{{- end}}
{{- end}}

{{- if .FileContents}}

## File contents
{{- range $path, $body := .FileContents}}

### {{$path}}
` + "```" + `
{{$body}}
` + "```" + `
{{- end}}
{{- end}}

{{- if .Critique}}

## Revision guidance
Your previous attempt at this module page had the following issues; address them directly:
{{.Critique}}
{{- end}}

Respond with Markdown only, starting at a top-level heading naming the module.`

// NewPromptBuilder parses the section and module-detail templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	funcMap := template.FuncMap{"join": strings.Join}

	sectionTmpl, err := template.New("section").Funcs(funcMap).Parse(sectionPromptTemplate)
	if err != nil {
		return nil, err
	}
	moduleTmpl, err := template.New("module").Funcs(funcMap).Parse(moduleDetailPromptTemplate)
	if err != nil {
		return nil, err
	}
	return &PromptBuilder{section: sectionTmpl, module: moduleTmpl}, nil
}

// BuildSectionPrompt renders the section prompt template.
func (b *PromptBuilder) BuildSectionPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := b.section.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildModuleDetailPrompt renders the module detail prompt template.
func (b *PromptBuilder) BuildModuleDetailPrompt(data ModuleDetailData) (string, error) {
	var buf bytes.Buffer
	if err := b.module.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
