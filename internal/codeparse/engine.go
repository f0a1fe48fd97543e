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
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultMaxFileSize bounds how large a file this package will hand to
// tree-sitter; larger files are reported unparsed rather than risking a
// slow or memory-heavy parse.
const DefaultMaxFileSize = 10 * 1024 * 1024

// fileTooLargeError is returned when content exceeds DefaultMaxFileSize.
type fileTooLargeError struct{ size int }

func (e fileTooLargeError) Error() string {
	return fmt.Sprintf("codeparse: file size %d exceeds limit %d", e.size, DefaultMaxFileSize)
}

// extractFunc fills result's Symbols, Imports, and Package from a
// parsed tree-sitter root node. Each language file in this package
// supplies one.
type extractFunc func(root *sitter.Node, content []byte, filePath string, result *ParseResult)

// runSitterParse is the shared parse scaffold every tree-sitter-backed
// language in this package uses: validate, parse, check for syntax
// errors, then hand the tree to the language's own extractor. Grounded
// on services/code_buddy/ast/go_parser.go's Parse method, generalized
// so each language only needs to supply its own extractFunc instead of
// repeating this boilerplate.
func runSitterParse(ctx context.Context, grammar *sitter.Language, content []byte, filePath, language string, extract extractFunc) (*ParseResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("codeparse: parse canceled before start: %w", err)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fileTooLargeError{size: len(content)}
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("codeparse: content is not valid UTF-8")
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("codeparse: tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	result := &ParseResult{FilePath: filePath, Language: language}

	root := tree.RootNode()
	if root == nil {
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		result.setParsedNow(start)
		return result, nil
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	extract(root, content, filePath, result)
	result.LeadingComment = firstLeadingComment(root, content)
	result.setParsedNow(start)
	return result, nil
}

// text returns node's source slice.
func text(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func loc(node *sitter.Node) Location {
	return Location{
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}
}

// precedingComment returns the text of a "comment" node immediately
// before node, checking node's own previous sibling and, if node sits
// inside a wrapper (an export/decorated statement), the wrapper's
// previous sibling too. Grounded on
// services/code_buddy/ast/typescript_parser.go's getPrecedingComment.
func precedingComment(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	if prev := node.PrevSibling(); prev != nil && prev.Type() == "comment" {
		return text(prev, content)
	}
	if parent := node.Parent(); parent != nil {
		if prev := parent.PrevSibling(); prev != nil && prev.Type() == "comment" {
			return text(prev, content)
		}
	}
	return ""
}

// firstLeadingComment returns the first top-level "comment" node's text,
// used as a file's short textual summary per spec.md §4.4.2 when no
// language-specific docstring convention applies.
func firstLeadingComment(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "comment" {
			return text(child, content)
		}
		// Leading comments only count if they precede all real content;
		// the first non-comment child ends the search.
		return ""
	}
	return ""
}
