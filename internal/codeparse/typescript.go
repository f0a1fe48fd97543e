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
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ParseTypeScript parses TypeScript (and, as an approximation, plain
// JavaScript/JSX) source, extracting import statements and top-level
// functions, classes, interfaces, type aliases, enums, and
// const/let/var declarations. Grounded on
// services/code_buddy/ast/typescript_parser.go's TypeScriptParser,
// selecting the tsx grammar for .tsx/.jsx files the way the teacher
// does for .tsx.
func ParseTypeScript(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	grammar := typescript.GetLanguage()
	if strings.HasSuffix(filePath, ".tsx") || strings.HasSuffix(filePath, ".jsx") {
		grammar = tsx.GetLanguage()
	}
	return runSitterParse(ctx, grammar, content, filePath, "typescript", extractTypeScript)
}

func extractTypeScript(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			processTsImportStatement(child, content, result)
		case "lexical_declaration":
			processTsCommonJSRequire(child, content, result)
			processTsLexicalDeclaration(child, content, result, false)
		case "variable_declaration":
			processTsVariableDeclaration(child, content, result, false)
		case "export_statement":
			processTsExportStatement(child, content, result)
		case "function_declaration":
			if fn := processTsFunction(child, content, false); fn != nil {
				result.Symbols = append(result.Symbols, *fn)
			}
		case "class_declaration":
			processTsClass(child, content, result, false)
		case "interface_declaration":
			processTsInterface(child, content, result, false)
		case "type_alias_declaration":
			if ta := processTsTypeAlias(child, content, false); ta != nil {
				result.Symbols = append(result.Symbols, *ta)
			}
		case "enum_declaration":
			processTsEnum(child, content, result, false)
		}
	}
}

func processTsImportStatement(node *sitter.Node, content []byte, result *ParseResult) {
	var modulePath string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string" {
			modulePath = tsStringContent(child, content)
		}
	}
	if modulePath == "" {
		return
	}
	result.Imports = append(result.Imports, Import{Path: modulePath, Location: loc(node)})
}

func processTsCommonJSRequire(node *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		var name, modulePath string
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "identifier":
				name = text(gc, content)
			case "call_expression":
				modulePath = tsRequireCall(gc, content)
			}
		}
		if modulePath != "" {
			result.Imports = append(result.Imports, Import{Path: modulePath, Alias: name, Location: loc(node)})
		}
	}
}

func tsRequireCall(node *sitter.Node, content []byte) string {
	var funcName, modulePath string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			funcName = text(child, content)
		case "arguments":
			for j := 0; j < int(child.ChildCount()); j++ {
				arg := child.Child(j)
				if arg.Type() == "string" {
					modulePath = tsStringContent(arg, content)
				}
			}
		}
	}
	if funcName == "require" {
		return modulePath
	}
	return ""
}

func processTsExportStatement(node *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_declaration":
			if fn := processTsFunction(child, content, true); fn != nil {
				result.Symbols = append(result.Symbols, *fn)
			}
		case "class_declaration", "abstract_class_declaration":
			processTsClass(child, content, result, true)
		case "interface_declaration":
			processTsInterface(child, content, result, true)
		case "type_alias_declaration":
			if ta := processTsTypeAlias(child, content, true); ta != nil {
				result.Symbols = append(result.Symbols, *ta)
			}
		case "enum_declaration":
			processTsEnum(child, content, result, true)
		case "lexical_declaration":
			processTsLexicalDeclaration(child, content, result, true)
		}
	}
}

func processTsFunction(node *sitter.Node, content []byte, exported bool) *Symbol {
	var name, params, returnType string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = text(child, content)
		case "formal_parameters":
			params = text(child, content)
		case "type_annotation":
			returnType = tsTypeAnnotation(child, content)
		}
	}
	if name == "" {
		return nil
	}
	signature := "function " + name + params
	if returnType != "" {
		signature += ": " + returnType
	}
	return &Symbol{
		Name:       name,
		Kind:       SymbolKindFunction,
		Location:   loc(node),
		Exported:   exported,
		Signature:  signature,
		DocComment: precedingComment(node, content),
	}
}

func processTsClass(node *sitter.Node, content []byte, result *ParseResult, exported bool) {
	var name string
	var bodyNode *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			name = text(child, content)
		case "class_body":
			bodyNode = child
		}
	}
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       SymbolKindClass,
		Location:   loc(node),
		Exported:   exported,
		DocComment: precedingComment(node, content),
	})
	if bodyNode != nil {
		extractTsClassMembers(bodyNode, content, result)
	}
}

func extractTsClassMembers(body *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child.Type() != "method_definition" {
			continue
		}
		if method := processTsMethod(child, content); method != nil {
			result.Symbols = append(result.Symbols, *method)
		}
	}
}

func processTsMethod(node *sitter.Node, content []byte) *Symbol {
	var name, params, returnType, accessModifier string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "accessibility_modifier":
			accessModifier = text(child, content)
		case "property_identifier":
			name = text(child, content)
		case "formal_parameters":
			params = text(child, content)
		case "type_annotation":
			returnType = tsTypeAnnotation(child, content)
		}
	}
	if name == "" {
		return nil
	}
	signature := name + params
	if returnType != "" {
		signature += ": " + returnType
	}
	return &Symbol{
		Name:      name,
		Kind:      SymbolKindMethod,
		Location:  loc(node),
		Exported:  accessModifier != "private",
		Signature: signature,
	}
}

func processTsInterface(node *sitter.Node, content []byte, result *ParseResult, exported bool) {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_identifier" {
			name = text(child, content)
			break
		}
	}
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       SymbolKindInterface,
		Location:   loc(node),
		Exported:   exported,
		DocComment: precedingComment(node, content),
	})
}

func processTsTypeAlias(node *sitter.Node, content []byte, exported bool) *Symbol {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_identifier" {
			name = text(child, content)
			break
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		Name:       name,
		Kind:       SymbolKindType,
		Location:   loc(node),
		Exported:   exported,
		Signature:  "type " + name,
		DocComment: precedingComment(node, content),
	}
}

func processTsEnum(node *sitter.Node, content []byte, result *ParseResult, exported bool) {
	var name string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			name = text(child, content)
			break
		}
	}
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       SymbolKindEnum,
		Location:   loc(node),
		Exported:   exported,
		DocComment: precedingComment(node, content),
	})
}

func processTsLexicalDeclaration(node *sitter.Node, content []byte, result *ParseResult, exported bool) {
	var declKind string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "const", "let":
			declKind = child.Type()
		case "variable_declarator":
			if v := processTsVariableDeclarator(child, content, declKind, exported); v != nil {
				result.Symbols = append(result.Symbols, *v)
			}
		}
	}
}

func processTsVariableDeclaration(node *sitter.Node, content []byte, result *ParseResult, exported bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "variable_declarator" {
			if v := processTsVariableDeclarator(child, content, "var", exported); v != nil {
				result.Symbols = append(result.Symbols, *v)
			}
		}
	}
}

func processTsVariableDeclarator(node *sitter.Node, content []byte, declKind string, exported bool) *Symbol {
	var name, typeStr string
	var hasArrow bool
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = text(child, content)
		case "type_annotation":
			typeStr = tsTypeAnnotation(child, content)
		case "arrow_function":
			hasArrow = true
		}
	}
	if name == "" {
		return nil
	}
	kind := SymbolKindVariable
	if declKind == "const" {
		kind = SymbolKindConstant
	}
	if hasArrow {
		kind = SymbolKindFunction
	}
	signature := declKind + " " + name
	if typeStr != "" {
		signature += ": " + typeStr
	}
	return &Symbol{
		Name:      name,
		Kind:      kind,
		Location:  loc(node),
		Exported:  exported,
		Signature: signature,
	}
}

func tsTypeAnnotation(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != ":" {
			return text(child, content)
		}
	}
	return ""
}

func tsStringContent(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string_fragment" {
			return text(child, content)
		}
	}
	return strings.Trim(text(node, content), `"'`)
}
