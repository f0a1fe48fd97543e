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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_WellFormedGraphPasses(t *testing.T) {
	chartType, errs := Validate("graph TD\nA[Start] --> B(Process)\nB --> C{Done?}\n")
	assert.Equal(t, "graph", chartType)
	assert.Empty(t, errs)
}

func TestValidate_WellFormedSequenceDiagramPasses(t *testing.T) {
	chartType, errs := Validate("sequenceDiagram\nAlice->>Bob: hello\nBob-->>Alice: hi\n")
	assert.Equal(t, "sequenceDiagram", chartType)
	assert.Empty(t, errs)
}

func TestValidate_PieChartHasNoEdgeRequirement(t *testing.T) {
	chartType, errs := Validate("pie title Distribution\n\"A\" : 40\n\"B\" : 60\n")
	assert.Equal(t, "pie", chartType)
	assert.Empty(t, errs)
}

func TestValidate_UnknownChartTypeFails(t *testing.T) {
	_, errs := Validate("bogusChart\nA --> B\n")
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "does not declare a supported chart type")
}

func TestValidate_UnbalancedBracketsFail(t *testing.T) {
	_, errs := Validate("graph TD\nA[Start --> B\n")
	found := false
	for _, e := range errs {
		if e == "unbalanced \"[\" in chart body" {
			found = true
		}
	}
	assert.True(t, found, "expected unbalanced bracket error, got %v", errs)
}

func TestValidate_MissingArrowTokenFails(t *testing.T) {
	_, errs := Validate("graph TD\nA\nB\n")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "no recognized graph arrow token") {
			found = true
		}
	}
	assert.True(t, found, "expected missing-arrow error, got %v", errs)
}

func TestValidate_BadNodeIdentifierFails(t *testing.T) {
	_, errs := Validate("graph TD\n1bad-name --> B\n")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "does not match") {
			found = true
		}
	}
	assert.True(t, found, "expected identifier error, got %v", errs)
}

func TestValidate_EmptyBodyFails(t *testing.T) {
	_, errs := Validate("   \n\n  ")
	assert.Equal(t, []string{"chart body is empty"}, errs)
}

func TestValidate_UnescapedParenInLabelFails(t *testing.T) {
	_, errs := Validate("graph TD\nA[foo(bar)] --> B\n")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "unescaped parenthesis") {
			found = true
		}
	}
	assert.True(t, found, "expected unescaped-parenthesis error, got %v", errs)
}

func TestValidate_QuotedLabelWithParensPasses(t *testing.T) {
	_, errs := Validate("graph TD\nA[\"foo(bar)\"] --> B\n")
	for _, e := range errs {
		assert.NotContains(t, e, "unescaped parenthesis")
	}
}

func TestValidate_UnescapedBraceInLabelFails(t *testing.T) {
	_, errs := Validate("graph TD\nA[foo{bar}] --> B\n")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "unescaped brace") {
			found = true
		}
	}
	assert.True(t, found, "expected unescaped-brace error, got %v", errs)
}

func TestValidate_UnbalancedQuoteInLabelFails(t *testing.T) {
	_, errs := Validate("graph TD\nA[foo\"bar] --> B\n")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "unbalanced quote") {
			found = true
		}
	}
	assert.True(t, found, "expected unbalanced-quote error, got %v", errs)
}
