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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
)

// ParseBash parses a shell script, extracting top-level function
// definitions, variable assignments (exported ones treated as this
// file's public surface), and source/. statements as imports.
// Grounded on services/code_buddy/ast/bash_parser.go's BashParser,
// recursive extractSymbols walk.
func ParseBash(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return runSitterParse(ctx, bash.GetLanguage(), content, filePath, "bash", extractBash)
}

func extractBash(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	walkBash(root, content, result)
}

func walkBash(node *sitter.Node, content []byte, result *ParseResult) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_definition":
		extractBashFunction(node, content, result)
		return
	case "variable_assignment":
		extractBashVariable(node, content, result, false, false)
		return
	case "declaration_command":
		extractBashDeclaration(node, content, result)
		return
	case "command":
		extractBashSource(node, content, result)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkBash(node.Child(i), content, result)
	}
}

func extractBashFunction(node *sitter.Node, content []byte, result *ParseResult) {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "word" {
			name = text(child, content)
			break
		}
	}
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       SymbolKindFunction,
		Location:   loc(node),
		Exported:   true,
		Signature:  name + "()",
		DocComment: precedingComment(node, content),
	})
}

func extractBashVariable(node *sitter.Node, content []byte, result *ParseResult, isExported, isReadonly bool) {
	var name, value string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "variable_name":
			name = text(child, content)
		case "string", "raw_string", "number", "concatenation", "word":
			value = text(child, content)
		}
	}
	if name == "" {
		return
	}
	kind := SymbolKindVariable
	if isReadonly {
		kind = SymbolKindConstant
	}
	signature := name
	if value != "" {
		signature += "=" + value
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:      name,
		Kind:      kind,
		Location:  loc(node),
		Exported:  isExported,
		Signature: signature,
	})
}

func extractBashDeclaration(node *sitter.Node, content []byte, result *ParseResult) {
	isExported, isReadonly, isLocal := false, false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "export":
			isExported = true
		case "readonly":
			isReadonly = true
		case "local":
			isLocal = true
		case "variable_assignment":
			if !isLocal {
				extractBashVariable(child, content, result, isExported, isReadonly)
			}
		}
	}
}

func extractBashSource(node *sitter.Node, content []byte, result *ParseResult) {
	isSource := false
	var sourcePath string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "command_name" {
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "word" {
					cmd := text(gc, content)
					if cmd == "source" || cmd == "." {
						isSource = true
					}
				}
			}
		} else if isSource && (child.Type() == "word" || child.Type() == "string") {
			sourcePath = strings.Trim(text(child, content), "\"'")
		}
	}
	if !isSource || sourcePath == "" {
		return
	}
	result.Imports = append(result.Imports, Import{Path: sourcePath, Location: loc(node)})
}
