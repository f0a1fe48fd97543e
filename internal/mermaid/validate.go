// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mermaid

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var bracketLabelRe = regexp.MustCompile(`\[([^\[\]]*)\]`)

// chartArrows maps each supported chart type to the arrow tokens its
// syntax accepts, per spec.md §4.6's arrow-syntax-per-chart-type rule.
var chartArrows = map[string][]string{
	"graph":           {"-->", "---", "-.->", "==>", "--x", "--o"},
	"flowchart":       {"-->", "---", "-.->", "==>", "--x", "--o"},
	"sequenceDiagram": {"->>", "-->>", "->", "-->", "-x", "--x"},
	"classDiagram":    {"<|--", "*--", "o--", "-->", "--", "..>", "..|>"},
	"stateDiagram":    {"-->"},
	"erDiagram":       {"||--o{", "||--|{", "}o--o{", "||--||", "}|--|{"},
}

// chartsWithoutEdges never declare node-to-node arrows; their body is
// validated only for balanced labels.
var chartsWithoutEdges = map[string]bool{
	"pie": true, "timeline": true, "gitgraph": true, "mindmap": true,
}

// Validate applies spec.md §4.6's rule-based checks to a single
// extracted block body: a chart-type declaration from
// SupportedChartTypes on the first non-blank line, node identifiers
// matching [A-Za-z_][A-Za-z0-9_]*, balanced label brackets/quotes, no
// unescaped parenthesis/brace inside a `[...]` label, and (for chart
// types that declare edges) at least one arrow token drawn from that
// chart type's allowed set. It returns the declared chart type and any
// errors found; an empty error slice means the block is well-formed.
func Validate(body string) (chartType string, errs []string) {
	lines := strings.Split(body, "\n")
	firstLine := ""
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			firstLine = t
			break
		}
	}
	if firstLine == "" {
		return "", []string{"chart body is empty"}
	}

	chartType = declaredChartType(firstLine)
	if chartType == "" {
		errs = append(errs, fmt.Sprintf("first line %q does not declare a supported chart type (expected one of %s)",
			firstLine, strings.Join(SupportedChartTypes, ", ")))
	}

	if err := checkBalance(body); err != "" {
		errs = append(errs, err)
	}

	if err := checkLabelContent(body); err != "" {
		errs = append(errs, err)
	}

	if chartType != "" && !chartsWithoutEdges[chartType] {
		if err := checkArrows(body, chartType); err != "" {
			errs = append(errs, err)
		}
		if err := checkIdentifiers(body, chartType); err != "" {
			errs = append(errs, err)
		}
	}

	return chartType, errs
}

func declaredChartType(firstLine string) string {
	for _, ct := range SupportedChartTypes {
		if strings.HasPrefix(firstLine, ct) {
			return ct
		}
	}
	// graph/flowchart declarations carry a direction suffix, e.g. "graph TD".
	fields := strings.Fields(firstLine)
	if len(fields) > 0 {
		for _, ct := range SupportedChartTypes {
			if fields[0] == ct {
				return ct
			}
		}
	}
	return ""
}

func checkBalance(body string) string {
	pairs := map[rune]rune{'[': ']', '(': ')', '{': '}'}
	closers := map[rune]rune{']': '[', ')': '(', '}': '{'}
	var stack []rune
	inQuote := false
	for _, r := range body {
		if r == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if _, open := pairs[r]; open {
			stack = append(stack, r)
			continue
		}
		if want, close := closers[r]; close {
			if len(stack) == 0 || stack[len(stack)-1] != want {
				return fmt.Sprintf("unbalanced %q in chart body", string(r))
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inQuote {
		return "unbalanced quote in chart body"
	}
	if len(stack) > 0 {
		return fmt.Sprintf("unbalanced %q in chart body", string(stack[len(stack)-1]))
	}
	return ""
}

// checkLabelContent finds every `[...]` node label in body and flags
// one containing an unescaped parenthesis, brace, or unbalanced quote.
// A label wrapped start-to-end in a single pair of quotes is treated as
// escaped, so its interior punctuation is left alone.
func checkLabelContent(body string) string {
	for _, m := range bracketLabelRe.FindAllStringSubmatch(body, -1) {
		if err := checkLabelText(m[1]); err != "" {
			return err
		}
	}
	return ""
}

func checkLabelText(label string) string {
	if strings.HasPrefix(label, `"`) && strings.HasSuffix(label, `"`) && len(label) >= 2 {
		inner := label[1 : len(label)-1]
		if strings.Contains(inner, `"`) {
			return fmt.Sprintf("node label %q has an unbalanced quote", label)
		}
		return ""
	}
	if strings.ContainsAny(label, "()") {
		return fmt.Sprintf("node label %q contains an unescaped parenthesis (wrap the label in quotes to allow one)", label)
	}
	if strings.Count(label, `"`)%2 != 0 {
		return fmt.Sprintf("node label %q has an unbalanced quote", label)
	}
	if strings.ContainsAny(label, "{}") {
		return fmt.Sprintf("node label %q contains an unescaped brace", label)
	}
	return ""
}

func checkArrows(body, chartType string) string {
	allowed := chartArrows[chartType]
	if len(allowed) == 0 {
		return ""
	}
	for _, l := range strings.Split(body, "\n") {
		for _, tok := range allowed {
			if strings.Contains(l, tok) {
				return ""
			}
		}
	}
	return fmt.Sprintf("no recognized %s arrow token found (expected one of %s)", chartType, strings.Join(allowed, ", "))
}

// checkIdentifiers spot-checks that the bare node reference immediately
// preceding a line's first arrow looks like a valid Mermaid identifier
// rather than stray punctuation. Only the leftmost arrow match per line
// is considered, since shorter allowed tokens can be substrings of
// longer ones (e.g. "->" within "-->>") and matching every token
// independently would slice into the middle of one arrow.
func checkIdentifiers(body, chartType string) string {
	allowed := chartArrows[chartType]

	for _, l := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			continue
		}
		idx := -1
		for _, tok := range allowed {
			if i := strings.Index(trimmed, tok); i >= 0 && (idx == -1 || i < idx) {
				idx = i
			}
		}
		if idx <= 0 {
			continue
		}
		left := strings.TrimSpace(trimmed[:idx])
		if b := strings.IndexAny(left, "[({\""); b >= 0 {
			left = left[:b]
		}
		fields := strings.Fields(left)
		if len(fields) == 0 {
			continue
		}
		id := fields[len(fields)-1]
		if !identifierRe.MatchString(id) {
			return fmt.Sprintf("node identifier %q does not match [A-Za-z_][A-Za-z0-9_]*", id)
		}
	}
	return ""
}
