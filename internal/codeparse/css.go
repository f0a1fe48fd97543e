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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ParseCSS extracts class selectors, ID selectors, custom properties
// (--name), and @import/@keyframes at-rules from a stylesheet.
// Grounded on services/code_buddy/ast/css_queries.go, the node-type
// documentation left behind after CSSParser's source itself did not
// survive retrieval; since only the node-type map and AST diagram
// remain, extraction here is done with regular expressions over the
// same selector and at-rule shapes that file documents, rather than
// guessing at a tree-sitter traversal this package cannot ground.
func ParseCSS(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("css parse canceled before start: %w", err)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fileTooLargeError{size: len(content)}
	}

	result := &ParseResult{
		FilePath: filePath,
		Language: "css",
		Symbols:  []Symbol{},
		Imports:  []Import{},
	}

	seenClass := map[string]bool{}
	seenID := map[string]bool{}
	seenVar := map[string]bool{}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		loc := Location{StartLine: lineNo, EndLine: lineNo}

		if m := cssImportRe.FindStringSubmatch(line); m != nil {
			dest := strings.Trim(m[1], `"'()`)
			result.Imports = append(result.Imports, Import{Path: dest, Location: loc})
			continue
		}

		if m := cssKeyframesRe.FindStringSubmatch(line); m != nil {
			result.Symbols = append(result.Symbols, Symbol{
				Name:      m[1],
				Kind:      SymbolKindType,
				Location:  loc,
				Exported:  true,
				Signature: "@keyframes " + m[1],
			})
			continue
		}

		for _, m := range cssClassSelectorRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if !seenClass[name] {
				seenClass[name] = true
				result.Symbols = append(result.Symbols, Symbol{
					Name:      name,
					Kind:      SymbolKindClass,
					Location:  loc,
					Exported:  true,
					Signature: "." + name,
				})
			}
		}

		for _, m := range cssIDSelectorRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if !seenID[name] {
				seenID[name] = true
				result.Symbols = append(result.Symbols, Symbol{
					Name:      name,
					Kind:      SymbolKindVariable,
					Location:  loc,
					Exported:  true,
					Signature: "#" + name,
				})
			}
		}

		for _, m := range cssCustomPropRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if !seenVar[name] {
				seenVar[name] = true
				result.Symbols = append(result.Symbols, Symbol{
					Name:      "--" + name,
					Kind:      SymbolKindConstant,
					Location:  loc,
					Exported:  true,
					Signature: "--" + name + ": " + strings.TrimSpace(m[2]),
				})
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("css parse canceled: %w", err)
	}
	return result, nil
}

var (
	cssImportRe        = regexp.MustCompile(`@import\s+(?:url\()?["']?([^"');]+)["']?\)?`)
	cssKeyframesRe     = regexp.MustCompile(`@(?:-webkit-|-moz-|-o-)?keyframes\s+([A-Za-z0-9_-]+)`)
	cssClassSelectorRe = regexp.MustCompile(`\.([A-Za-z_-][A-Za-z0-9_-]*)`)
	cssIDSelectorRe    = regexp.MustCompile(`#([A-Za-z_-][A-Za-z0-9_-]*)`)
	cssCustomPropRe    = regexp.MustCompile(`--([A-Za-z0-9_-]+)\s*:\s*([^;]+);?`)
)
