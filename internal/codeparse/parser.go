// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package codeparse

import (
	"context"
	"fmt"
)

// ParseFunc parses a single file's content into a ParseResult.
type ParseFunc func(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

// defaultParsers maps a canonical language name (as returned by
// DetectLanguage) to the ParseFunc that handles it. JavaScript is
// routed through ParseTypeScript, the same approximation
// services/code_buddy/ast/typescript_parser.go's TypeScriptParser
// makes for .js/.jsx content since a TypeScript grammar parses plain
// JavaScript too.
var defaultParsers = map[string]ParseFunc{
	"go":         ParseGo,
	"python":     ParsePython,
	"typescript": ParseTypeScript,
	"javascript": ParseTypeScript,
	"bash":       ParseBash,
	"yaml":       ParseYAML,
	"sql":        ParseSQL,
	"html":       ParseHTML,
	"markdown":   ParseMarkdown,
	"css":        ParseCSS,
	"dockerfile": ParseDockerfile,
}

// Registry dispatches Parse calls to a language-specific ParseFunc.
// Grounded on services/code_buddy/format/formatter.go's FormatRegistry,
// collapsed here to a single map lookup since every language in this
// package already commits to the ParseResult shape rather than needing
// per-parser configuration structs.
type Registry struct {
	parsers map[string]ParseFunc
}

// NewDefaultRegistry returns a Registry wired to every language this
// package supports.
func NewDefaultRegistry() *Registry {
	parsers := make(map[string]ParseFunc, len(defaultParsers))
	for lang, fn := range defaultParsers {
		parsers[lang] = fn
	}
	return &Registry{parsers: parsers}
}

// Languages reports the canonical language names this registry can parse.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.parsers))
	for lang := range r.parsers {
		langs = append(langs, lang)
	}
	return langs
}

// Supports reports whether the registry has a parser for language.
func (r *Registry) Supports(language string) bool {
	_, ok := r.parsers[language]
	return ok
}

// Parse dispatches to the ParseFunc registered for language. Returns
// an error if no parser is registered.
func (r *Registry) Parse(ctx context.Context, language string, content []byte, filePath string) (*ParseResult, error) {
	fn, ok := r.parsers[language]
	if !ok {
		return nil, fmt.Errorf("codeparse: no parser registered for language %q", language)
	}
	return fn(ctx, content, filePath)
}

// ParseFile detects filePath's language from its name and shebang and
// parses it, returning ("", nil, nil) if the language cannot be
// determined or has no registered parser — callers treat this as
// "leave FileEntry.ASTSummary empty" rather than a hard error, since an
// unrecognized language is routine in a real repository tree.
func (r *Registry) ParseFile(ctx context.Context, content []byte, filePath string) (string, *ParseResult, error) {
	lang, ok := DetectLanguage(filePath, content)
	if !ok || !r.Supports(lang) {
		return "", nil, nil
	}
	result, err := r.Parse(ctx, lang, content, filePath)
	if err != nil {
		return lang, nil, err
	}
	return lang, result, nil
}
