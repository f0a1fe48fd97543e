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

// ParseMarkdown extracts headings, fenced code blocks, and link
// reference definitions from a Markdown document. Grounded on
// services/code_buddy/ast/markdown_parser.go's MarkdownParser, which
// walks a tree-sitter-markdown AST for the same three constructs;
// Markdown's line-oriented block grammar (ATX headings, fences,
// bracketed link definitions) is regular enough that a line scan finds
// them without a parser dependency this package doesn't otherwise need
// for any other consumer.
func ParseMarkdown(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("markdown parse canceled before start: %w", err)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fileTooLargeError{size: len(content)}
	}

	result := &ParseResult{
		FilePath: filePath,
		Language: "markdown",
		Symbols:  []Symbol{},
		Imports:  []Import{},
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	inFence := false
	var fenceMarker string
	fenceStart := 0
	var fenceLang string
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if inFence {
			if strings.HasPrefix(trimmed, fenceMarker) {
				name := "code_block"
				if fenceLang != "" {
					name = fenceLang + "_block"
				}
				result.Symbols = append(result.Symbols, Symbol{
					Name:      name,
					Kind:      SymbolKindConstant,
					Location:  Location{StartLine: fenceStart, EndLine: lineNo},
					Exported:  true,
					Signature: "```" + fenceLang,
				})
				inFence = false
			}
			continue
		}

		if m := mdFenceOpenRe.FindStringSubmatch(trimmed); m != nil {
			inFence = true
			fenceMarker = m[1][:1]
			fenceMarker = strings.Repeat(fenceMarker, len(m[1]))
			fenceStart = lineNo
			fenceLang = strings.TrimSpace(m[2])
			continue
		}

		if m := mdHeadingRe.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			heading := strings.TrimRight(strings.TrimSpace(m[2]), "#")
			heading = strings.TrimSpace(heading)
			if heading != "" {
				result.Symbols = append(result.Symbols, Symbol{
					Name:      heading,
					Kind:      SymbolKindHeading,
					Location:  Location{StartLine: lineNo, EndLine: lineNo},
					Exported:  true,
					Signature: strings.Repeat("#", level) + " " + heading,
				})
			}
			continue
		}

		if m := mdLinkRefRe.FindStringSubmatch(line); m != nil {
			label := strings.TrimSpace(m[1])
			dest := strings.TrimSpace(m[2])
			if label != "" && dest != "" {
				result.Imports = append(result.Imports, Import{
					Path:     dest,
					Alias:    label,
					Location: Location{StartLine: lineNo, EndLine: lineNo},
				})
			}
			continue
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("markdown parse canceled: %w", err)
	}
	return result, nil
}

var (
	mdFenceOpenRe = regexp.MustCompile("^(```+|~~~+)\\s*([A-Za-z0-9_+-]*)")
	mdHeadingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	mdLinkRefRe   = regexp.MustCompile(`^\s{0,3}\[([^\]]+)\]:\s*(\S+)`)
)
