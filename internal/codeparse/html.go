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
	"github.com/smacker/go-tree-sitter/html"
)

// ParseHTML parses an HTML document, extracting elements with an id
// attribute, named forms, custom elements (tag names containing a
// hyphen), stylesheet <link> hrefs, and external <script src> imports.
// Grounded on services/code_buddy/ast/html_parser.go's HTMLParser,
// dropping its delegation into inline JavaScript/CSS parsers since
// this package does not carry separate parsers for those.
func ParseHTML(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return runSitterParse(ctx, html.GetLanguage(), content, filePath, "html", extractHTML)
}

func extractHTML(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	walkHTML(root, content, result)
}

func walkHTML(node *sitter.Node, content []byte, result *ParseResult) {
	if node == nil {
		return
	}
	if node.Type() == "element" || node.Type() == "script_element" {
		extractHTMLElement(node, content, result)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkHTML(node.Child(i), content, result)
	}
}

func extractHTMLElement(node *sitter.Node, content []byte, result *ParseResult) {
	var tagName, id, name, href, rel, src string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "start_tag" || child.Type() == "self_closing_tag" {
			tagName, id, name, href, rel, src = htmlTagInfo(child, content)
			break
		}
	}

	if id != "" {
		result.Symbols = append(result.Symbols, Symbol{
			Name:      id,
			Kind:      SymbolKindVariable,
			Location:  loc(node),
			Exported:  true,
			Signature: fmt.Sprintf("<%s id=%q>", tagName, id),
		})
	}
	if tagName == "form" && name != "" {
		result.Symbols = append(result.Symbols, Symbol{
			Name:      name,
			Kind:      SymbolKindVariable,
			Location:  loc(node),
			Exported:  true,
			Signature: fmt.Sprintf("<form name=%q>", name),
		})
	}
	if tagName != "" && strings.Contains(tagName, "-") {
		result.Symbols = append(result.Symbols, Symbol{
			Name:      tagName,
			Kind:      SymbolKindClass,
			Location:  loc(node),
			Exported:  true,
			Signature: fmt.Sprintf("<%s>", tagName),
		})
	}
	if tagName == "link" && rel == "stylesheet" && href != "" {
		result.Imports = append(result.Imports, Import{Path: href, Location: loc(node)})
	}
	if tagName == "script" && src != "" {
		result.Imports = append(result.Imports, Import{Path: src, Location: loc(node)})
	}
}

func htmlTagInfo(node *sitter.Node, content []byte) (tagName, id, name, href, rel, src string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "tag_name":
			tagName = text(child, content)
		case "attribute":
			attrName, attrValue := htmlAttribute(child, content)
			switch attrName {
			case "id":
				id = attrValue
			case "name":
				name = attrValue
			case "href":
				href = attrValue
			case "rel":
				rel = attrValue
			case "src":
				src = attrValue
			}
		}
	}
	return
}

func htmlAttribute(node *sitter.Node, content []byte) (name, value string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "attribute_name":
			name = text(child, content)
		case "quoted_attribute_value":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "attribute_value" {
					value = text(gc, content)
				}
			}
		case "attribute_value":
			value = text(child, content)
		}
	}
	return
}
