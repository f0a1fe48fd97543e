// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens_NonEmptyTextHasPositiveCount(t *testing.T) {
	n := CountTokens("The quick brown fox jumps over the lazy dog.")
	assert.Greater(t, n, 0)
}

func TestCountTokens_LongerTextCountsMore(t *testing.T) {
	short := CountTokens("hello")
	long := CountTokens(strings.Repeat("hello world ", 50))
	assert.Greater(t, long, short)
}

func TestTruncateContextToFit_NoTruncationWhenUnderBudget(t *testing.T) {
	text, truncated := TruncateContextToFit("instruction", "short context", 1000)
	assert.False(t, truncated)
	assert.Equal(t, "short context", text)
}

func TestTruncateContextToFit_DropsTailParagraphsFirst(t *testing.T) {
	context := strings.Repeat("paragraph one with several words in it.\n\n", 40)
	instruction := "summarize"

	full := CountTokens(instruction + context)
	budget := full / 2

	trimmed, truncated := TruncateContextToFit(instruction, context, budget)
	assert.True(t, truncated)
	assert.True(t, strings.HasPrefix(context, trimmed[:min(len(trimmed), 20)]))
	assert.LessOrEqual(t, CountTokens(instruction)+CountTokens(trimmed), budget)
}

func TestTruncateContextToFit_HardCutsSingleOverlongParagraph(t *testing.T) {
	context := strings.Repeat("word ", 2000)
	trimmed, truncated := TruncateContextToFit("go", context, 50)
	assert.True(t, truncated)
	assert.LessOrEqual(t, CountTokens("go")+CountTokens(trimmed), 50)
}

func TestTruncateContextToFit_ZeroBudgetReturnsUnmodified(t *testing.T) {
	text, truncated := TruncateContextToFit("instruction", "context", 0)
	assert.False(t, truncated)
	assert.Equal(t, "context", text)
}
