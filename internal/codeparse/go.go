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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// ParseGo parses Go source, extracting the package clause, imports,
// top-level functions and methods, type declarations (struct,
// interface, alias), and top-level var/const specs. Grounded on
// services/code_buddy/ast/go_parser.go's GoParser.Parse, trimmed to
// this package's lighter Symbol model.
func ParseGo(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return runSitterParse(ctx, golang.GetLanguage(), content, filePath, "go", extractGo)
}

func extractGo(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "package_clause":
			extractGoPackage(root, child, content, result)
		case "import_declaration":
			processGoImportDecl(child, content, result)
		case "function_declaration":
			processGoFuncDecl(root, child, content, result, SymbolKindFunction)
		case "method_declaration":
			processGoFuncDecl(root, child, content, result, SymbolKindMethod)
		case "type_declaration":
			processGoTypeDecl(root, child, content, result)
		case "var_declaration":
			processGoVarDecl(root, child, content, result, SymbolKindVariable)
		case "const_declaration":
			processGoVarDecl(root, child, content, result, SymbolKindConstant)
		}
	}
}

func extractGoPackage(root, clause *sitter.Node, content []byte, result *ParseResult) {
	for j := 0; j < int(clause.ChildCount()); j++ {
		nameNode := clause.Child(j)
		if nameNode.Type() != "package_identifier" {
			continue
		}
		name := text(nameNode, content)
		result.Package = name
		result.Symbols = append(result.Symbols, Symbol{
			Name:       name,
			Kind:       SymbolKindPackage,
			Location:   loc(nameNode),
			Exported:   true,
			DocComment: precedingComment(clause, content),
		})
		return
	}
}

func processGoImportDecl(node *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import_spec":
			processGoImportSpec(child, content, result)
		case "import_spec_list":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() == "import_spec" {
					processGoImportSpec(spec, content, result)
				}
			}
		}
	}
}

func processGoImportSpec(node *sitter.Node, content []byte, result *ParseResult) {
	var alias, path string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "package_identifier", "blank_identifier", "dot":
			alias = text(child, content)
		case "interpreted_string_literal":
			path = strings.Trim(text(child, content), "\"")
		}
	}
	if path == "" {
		return
	}
	result.Imports = append(result.Imports, Import{Path: path, Alias: alias, Location: loc(node)})
}

func processGoFuncDecl(root, node *sitter.Node, content []byte, result *ParseResult, kind SymbolKind) {
	var name, receiver, params, returns string
	seenReceiver := kind == SymbolKindMethod
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = text(child, content)
		case "field_identifier":
			name = text(child, content)
		case "parameter_list":
			plist := text(child, content)
			switch {
			case seenReceiver && receiver == "":
				receiver = plist
			case params == "":
				params = plist
			default:
				returns = plist
			}
		case "type_identifier", "pointer_type", "slice_type", "map_type", "channel_type",
			"qualified_type", "interface_type", "struct_type", "function_type":
			returns = text(child, content)
		}
	}
	if name == "" {
		return
	}

	var signature string
	if kind == SymbolKindMethod {
		signature = fmt.Sprintf("func %s %s%s", receiver, name, params)
	} else {
		signature = fmt.Sprintf("func %s%s", name, params)
	}
	if returns != "" {
		signature += " " + returns
	}

	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       kind,
		Location:   loc(node),
		Exported:   isGoExported(name),
		Signature:  signature,
		DocComment: precedingComment(node, content),
	})
}

func processGoTypeDecl(root, node *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_spec" {
			processGoTypeSpec(root, child, node, content, result)
		}
	}
}

func processGoTypeSpec(root, node, parentDecl *sitter.Node, content []byte, result *ParseResult) {
	var name string
	kind := SymbolKindType
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			name = text(child, content)
		case "struct_type":
			kind = SymbolKindStruct
		case "interface_type":
			kind = SymbolKindInterface
		}
	}
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       kind,
		Location:   loc(node),
		Exported:   isGoExported(name),
		DocComment: precedingComment(parentDecl, content),
	})
}

func processGoVarDecl(root, node *sitter.Node, content []byte, result *ParseResult, kind SymbolKind) {
	specType := "var_spec"
	listType := "var_spec_list"
	if kind == SymbolKindConstant {
		specType = "const_spec"
		listType = "const_spec_list"
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case specType:
			processGoVarSpec(child, node, content, result, kind)
		case listType:
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() == specType {
					processGoVarSpec(spec, node, content, result, kind)
				}
			}
		}
	}
}

func processGoVarSpec(node, parentDecl *sitter.Node, content []byte, result *ParseResult, kind SymbolKind) {
	var names []string
	var typeStr string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			names = append(names, text(child, content))
		case "type_identifier", "pointer_type", "slice_type", "map_type", "channel_type", "qualified_type":
			typeStr = text(child, content)
		}
	}
	for _, name := range names {
		result.Symbols = append(result.Symbols, Symbol{
			Name:       name,
			Kind:       kind,
			Location:   loc(node),
			Exported:   isGoExported(name),
			Signature:  typeStr,
			DocComment: precedingComment(parentDecl, content),
		})
	}
}

func isGoExported(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}
