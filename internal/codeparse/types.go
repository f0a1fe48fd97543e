// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package codeparse extracts language-agnostic symbols, imports, and
// summaries from source files using tree-sitter, feeding the module
// dependency graph and the code-understanding stages of a repository
// analysis run.
package codeparse

import (
	"fmt"
	"time"
)

// SymbolKind classifies a top-level declaration extracted from source.
type SymbolKind int

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindPackage
	SymbolKindFunction
	SymbolKindMethod
	SymbolKindInterface
	SymbolKindStruct
	SymbolKindClass
	SymbolKindType
	SymbolKindVariable
	SymbolKindConstant
	SymbolKindEnum
	SymbolKindImport
	SymbolKindHeading
	SymbolKindInstruction
)

var symbolKindNames = map[SymbolKind]string{
	SymbolKindUnknown:     "unknown",
	SymbolKindPackage:     "package",
	SymbolKindFunction:    "function",
	SymbolKindMethod:      "method",
	SymbolKindInterface:   "interface",
	SymbolKindStruct:      "struct",
	SymbolKindClass:       "class",
	SymbolKindType:        "type",
	SymbolKindVariable:    "variable",
	SymbolKindConstant:    "constant",
	SymbolKindEnum:        "enum",
	SymbolKindImport:      "import",
	SymbolKindHeading:     "heading",
	SymbolKindInstruction: "instruction",
}

func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Location is a 1-indexed line range within a source file.
type Location struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Symbol is a single top-level declaration extracted from a source file.
type Symbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	Location   Location   `json:"location"`
	DocComment string     `json:"doc_comment,omitempty"`
	Exported   bool       `json:"exported"`
	Signature  string     `json:"signature,omitempty"`
}

// Import is a single import/require/source statement found in a file.
type Import struct {
	Path     string `json:"path"`
	Alias    string `json:"alias,omitempty"`
	Location Location
}

// ParseResult is the raw output of parsing a single file, before it is
// folded into a FileEntry.
type ParseResult struct {
	FilePath        string   `json:"file_path"`
	Language        string   `json:"language"`
	Symbols         []Symbol `json:"symbols"`
	Imports         []Import `json:"imports"`
	Package         string   `json:"package,omitempty"`
	LeadingComment  string   `json:"leading_comment,omitempty"`
	ParsedAtMilli   int64    `json:"parsed_at_milli"`
	ParseDurationMs int64    `json:"parse_duration_ms"`
	Errors          []string `json:"errors,omitempty"`
}

func (r *ParseResult) setParsedNow(start time.Time) {
	r.ParsedAtMilli = time.Now().UnixMilli()
	r.ParseDurationMs = time.Since(start).Milliseconds()
}

// FileEntry is a single file's place in the repository's code structure
// artifact, per spec.md §3: path, language, size, binary flag, an
// optional AST summary, its imports, and its exported symbol names.
type FileEntry struct {
	Path            string   `json:"path"`
	Language        string   `json:"language"`
	SizeBytes       int64    `json:"size_bytes"`
	IsBinary        bool     `json:"is_binary"`
	ASTSummary      string   `json:"ast_summary,omitempty"`
	Imports         []Import `json:"imports,omitempty"`
	ExportedSymbols []string `json:"exported_symbols,omitempty"`
}

// String implements fmt.Stringer for debug logging of a FileEntry.
func (f FileEntry) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", f.Path, f.Language, f.SizeBytes)
}
