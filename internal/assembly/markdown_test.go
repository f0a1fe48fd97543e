// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeadings_PromotesToH1(t *testing.T) {
	body := "### Overview\n\nSome text.\n\n#### Details\n\nMore.\n"
	got := normalizeHeadings(body)
	assert.Contains(t, got, "# Overview")
	assert.Contains(t, got, "## Details")
}

func TestNormalizeHeadings_LeavesH1Alone(t *testing.T) {
	body := "# Overview\n\n## Details\n"
	assert.Equal(t, body, normalizeHeadings(body))
}

func TestTitleOf_ReturnsH1Text(t *testing.T) {
	assert.Equal(t, "Overview", titleOf("# Overview\n\nbody", "fallback"))
	assert.Equal(t, "fallback", titleOf("no heading here", "fallback"))
}

func TestInjectTOC_AddsContentsAfterTitle(t *testing.T) {
	body := "# Title\n\nIntro.\n\n## Section A\n\nSome text.\n\n## Section B\n\nMore text.\n"
	got := injectTOC(body)
	assert.Contains(t, got, "## Contents")
	assert.Contains(t, got, "[Section A](#section-a)")
	assert.Contains(t, got, "[Section B](#section-b)")
	// Title still appears before the TOC.
	assert.True(t, indexOfSubstr(got, "# Title") < indexOfSubstr(got, "## Contents"))
}

func TestInjectTOC_NoHeadingsReturnsUnchanged(t *testing.T) {
	body := "# Title\n\nJust one heading.\n"
	assert.Equal(t, body, injectTOC(body))
}

func TestEmojiHeading_PrefixesTitleOnce(t *testing.T) {
	emojis := map[string]string{"overview": "📖"}
	body := "# Overview\n\nSome text.\n"
	got := emojiHeading(body, "overview", emojis)
	assert.Contains(t, got, "# 📖 Overview")

	again := emojiHeading(got, "overview", emojis)
	assert.Equal(t, got, again)
}

func TestCrossLinkModules_RewritesWholeWordMentions(t *testing.T) {
	body := "The api module talks to the db module.\n"
	modules := map[string]string{"api": "api", "db": "db"}
	got := crossLinkModules(body, modules, func(slug string) string { return "modules/" + slug + ".md" })
	assert.Contains(t, got, "[api](modules/api.md)")
	assert.Contains(t, got, "[db](modules/db.md)")
}

func TestCrossLinkModules_SkipsHeadingsAndCodeFences(t *testing.T) {
	body := "# api overview\n\n```\napi\n```\n\nThe api module is central.\n"
	modules := map[string]string{"api": "api"}
	got := crossLinkModules(body, modules, func(slug string) string { return "modules/" + slug + ".md" })
	assert.Equal(t, "# api overview", firstLine(got))
	assert.Contains(t, got, "```\napi\n```")
	assert.Contains(t, got, "[api](modules/api.md) module is central")
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

func indexOfSubstr(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
