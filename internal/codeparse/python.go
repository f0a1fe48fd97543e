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
	"github.com/smacker/go-tree-sitter/python"
)

// ParsePython parses Python source, extracting import statements,
// top-level classes (with their methods as nested symbols folded into
// the top-level list), and top-level functions. Grounded on
// services/code_buddy/ast/python_parser.go's PythonParser, trimmed to
// this package's flat Symbol model (methods are reported alongside
// functions rather than nested under their class).
func ParsePython(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return runSitterParse(ctx, python.GetLanguage(), content, filePath, "python", extractPython)
}

func extractPython(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			processPyImportStatement(child, content, result)
		case "import_from_statement":
			processPyImportFromStatement(child, content, result)
		case "class_definition":
			processPyClass(child, content, result, nil)
		case "function_definition":
			if fn := processPyFunction(child, content, nil, ""); fn != nil {
				result.Symbols = append(result.Symbols, *fn)
			}
		case "decorated_definition":
			processPyDecoratedDefinition(child, content, result)
		}
	}
}

func processPyImportStatement(node *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			result.Imports = append(result.Imports, Import{Path: text(child, content), Location: loc(node)})
		case "aliased_import":
			var path, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				switch grandchild.Type() {
				case "dotted_name":
					path = text(grandchild, content)
				case "identifier":
					alias = text(grandchild, content)
				}
			}
			if path != "" {
				result.Imports = append(result.Imports, Import{Path: path, Alias: alias, Location: loc(node)})
			}
		}
	}
}

func processPyImportFromStatement(node *sitter.Node, content []byte, result *ParseResult) {
	var modulePath string
	var isRelative bool
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "relative_import":
			isRelative = true
			var prefix, name string
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				switch grandchild.Type() {
				case "import_prefix":
					prefix = text(grandchild, content)
				case "dotted_name":
					name = text(grandchild, content)
				}
			}
			modulePath = prefix + name
		case "dotted_name":
			if modulePath == "" {
				modulePath = text(child, content)
			}
		}
	}
	if modulePath == "" && isRelative {
		modulePath = "."
	}
	if modulePath != "" {
		result.Imports = append(result.Imports, Import{Path: modulePath, Location: loc(node)})
	}
}

func processPyClass(node *sitter.Node, content []byte, result *ParseResult, decorators []string) {
	var name string
	var bodyNode *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = text(child, content)
		case "block":
			bodyNode = child
		}
	}
	if name == "" {
		return
	}

	var docstring string
	if bodyNode != nil {
		docstring = pyDocstring(bodyNode, content)
	}

	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       SymbolKindClass,
		Location:   loc(node),
		Exported:   isPyExported(name),
		DocComment: docstring,
	})

	if bodyNode != nil {
		extractPyClassMembers(bodyNode, content, result, name)
	}
}

func extractPyClassMembers(body *sitter.Node, content []byte, result *ParseResult, className string) {
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "function_definition":
			if method := processPyFunction(child, content, nil, className); method != nil {
				result.Symbols = append(result.Symbols, *method)
			}
		case "decorated_definition":
			decorators := pyDecorators(child, content)
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				if grandchild.Type() == "function_definition" {
					if method := processPyFunction(grandchild, content, decorators, className); method != nil {
						result.Symbols = append(result.Symbols, *method)
					}
					break
				}
			}
		}
	}
}

func processPyDecoratedDefinition(node *sitter.Node, content []byte, result *ParseResult) {
	decorators := pyDecorators(node, content)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "class_definition":
			processPyClass(child, content, result, decorators)
		case "function_definition":
			if fn := processPyFunction(child, content, decorators, ""); fn != nil {
				result.Symbols = append(result.Symbols, *fn)
			}
		}
	}
}

func processPyFunction(node *sitter.Node, content []byte, decorators []string, className string) *Symbol {
	var name, params, returnType, docstring string
	var isAsync bool
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "async":
			isAsync = true
		case "identifier":
			name = text(child, content)
		case "parameters":
			params = text(child, content)
		case "type":
			returnType = text(child, content)
		case "block":
			docstring = pyDocstring(child, content)
		}
	}
	if name == "" {
		return nil
	}

	kind := SymbolKindFunction
	if className != "" {
		kind = SymbolKindMethod
	}
	for _, dec := range decorators {
		if dec == "property" {
			kind = SymbolKindConstant
		}
	}

	var signature string
	if isAsync {
		signature = fmt.Sprintf("async def %s%s", name, params)
	} else {
		signature = fmt.Sprintf("def %s%s", name, params)
	}
	if returnType != "" {
		signature += " -> " + returnType
	}

	return &Symbol{
		Name:       name,
		Kind:       kind,
		Location:   loc(node),
		Exported:   isPyExported(name),
		Signature:  signature,
		DocComment: docstring,
	}
}

func pyDecorators(node *sitter.Node, content []byte) []string {
	var decorators []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "decorator" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			grandchild := child.Child(j)
			switch grandchild.Type() {
			case "identifier", "attribute":
				decorators = append(decorators, text(grandchild, content))
			case "call":
				for k := 0; k < int(grandchild.ChildCount()); k++ {
					ggchild := grandchild.Child(k)
					if ggchild.Type() == "identifier" || ggchild.Type() == "attribute" {
						decorators = append(decorators, text(ggchild, content))
						break
					}
				}
			}
		}
	}
	return decorators
}

func pyDocstring(block *sitter.Node, content []byte) string {
	if block.ChildCount() == 0 {
		return ""
	}
	first := block.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	strNode := first.Child(0)
	if strNode.Type() != "string" {
		return ""
	}
	return strings.Trim(strings.TrimSpace(text(strNode, content)), "\"'")
}

func isPyExported(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return !strings.HasPrefix(name, "_")
}
