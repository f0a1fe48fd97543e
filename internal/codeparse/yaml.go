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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/yaml"
)

// maxYAMLKeyDepth bounds how deep into nested mappings key extraction
// descends, matching services/code_buddy/ast/yaml_parser.go's default.
const maxYAMLKeyDepth = 3

// ParseYAML parses a YAML document, extracting mapping keys up to
// maxYAMLKeyDepth as symbols. Grounded on
// services/code_buddy/ast/yaml_parser.go's YAMLParser, trimmed to
// mapping keys only (no anchors or multi-document bookkeeping).
func ParseYAML(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return runSitterParse(ctx, yaml.GetLanguage(), content, filePath, "yaml", extractYAML)
}

func extractYAML(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	walkYAML(root, content, result, "", 0)
}

func walkYAML(node *sitter.Node, content []byte, result *ParseResult, keyPath string, depth int) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "block_mapping_pair", "flow_pair":
		extractYAMLPair(node, content, result, keyPath, depth)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkYAML(node.Child(i), content, result, keyPath, depth)
	}
}

func extractYAMLPair(node *sitter.Node, content []byte, result *ParseResult, parentPath string, depth int) {
	if depth > maxYAMLKeyDepth {
		return
	}
	var keyNode, valueNode *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "flow_node" || child.Type() == "block_node" {
			if keyNode == nil {
				keyNode = child
			} else {
				valueNode = child
			}
		}
	}
	if keyNode == nil {
		return
	}
	keyName := yamlScalarValue(keyNode, content)
	if keyName == "" {
		return
	}
	fullPath := keyName
	if parentPath != "" {
		fullPath = parentPath + "." + keyName
	}

	result.Symbols = append(result.Symbols, Symbol{
		Name:     keyName,
		Kind:     SymbolKindVariable,
		Location: loc(node),
		Exported: true,
	})

	if valueNode != nil {
		for i := 0; i < int(valueNode.ChildCount()); i++ {
			walkYAML(valueNode.Child(i), content, result, fullPath, depth+1)
		}
	}
}

func yamlScalarValue(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "plain_scalar":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "string_scalar", "integer_scalar", "float_scalar", "boolean_scalar", "null_scalar":
				return text(child, content)
			}
		}
	case "double_quote_scalar", "single_quote_scalar":
		raw := text(node, content)
		if len(raw) >= 2 {
			return raw[1 : len(raw)-1]
		}
		return raw
	case "string_scalar", "integer_scalar", "float_scalar", "boolean_scalar", "null_scalar":
		return text(node, content)
	case "flow_node", "block_node":
		for i := 0; i < int(node.ChildCount()); i++ {
			if v := yamlScalarValue(node.Child(i), content); v != "" {
				return v
			}
		}
	}
	return ""
}
