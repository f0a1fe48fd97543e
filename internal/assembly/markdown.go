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
	"fmt"
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// titleOf returns a document's H1 heading text, or a fallback if none
// is present.
func titleOf(body, fallback string) string {
	for _, l := range strings.Split(body, "\n") {
		if m := headingRe.FindStringSubmatch(l); m != nil && len(m[1]) == 1 {
			return strings.TrimSpace(m[2])
		}
	}
	return fallback
}

// normalizeHeadings ensures a section's Markdown starts at H1: if the
// first heading is deeper than H1, every heading is promoted by the
// same amount so the document's outline stays internally consistent.
func normalizeHeadings(body string) string {
	lines := strings.Split(body, "\n")
	shift := 0
	for _, l := range lines {
		if m := headingRe.FindStringSubmatch(l); m != nil {
			shift = len(m[1]) - 1
			break
		}
	}
	if shift <= 0 {
		return body
	}
	for i, l := range lines {
		if m := headingRe.FindStringSubmatch(l); m != nil {
			level := len(m[1]) - shift
			if level < 1 {
				level = 1
			}
			lines[i] = strings.Repeat("#", level) + " " + m[2]
		}
	}
	return strings.Join(lines, "\n")
}

// tableOfContents builds a nested list of every heading at level 2 or
// deeper, linked to GitHub-style anchor slugs, for injection under a
// document's title.
func tableOfContents(body string) string {
	var b strings.Builder
	found := false
	for _, l := range strings.Split(body, "\n") {
		m := headingRe.FindStringSubmatch(l)
		if m == nil || len(m[1]) < 2 {
			continue
		}
		level := len(m[1])
		text := strings.TrimSpace(m[2])
		indent := strings.Repeat("  ", level-2)
		fmt.Fprintf(&b, "%s- [%s](#%s)\n", indent, text, anchorSlug(text))
		found = true
	}
	if !found {
		return ""
	}
	return "## Contents\n\n" + b.String()
}

func anchorSlug(text string) string {
	s := strings.ToLower(text)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	return dashCollapseRe.ReplaceAllString(s, "-")
}

// injectTOC inserts a table of contents immediately after the
// document's H1 title line.
func injectTOC(body string) string {
	toc := tableOfContents(body)
	if toc == "" {
		return body
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if m := headingRe.FindStringSubmatch(l); m != nil && len(m[1]) == 1 {
			head := append([]string{}, lines[:i+1]...)
			tail := append([]string{}, lines[i+1:]...)
			merged := append(head, "", toc)
			merged = append(merged, tail...)
			return strings.Join(merged, "\n")
		}
	}
	return toc + "\n" + body
}

// emojiHeading prefixes a document's H1 title with emoji, if one is
// mapped for key.
func emojiHeading(body, key string, emojiMap map[string]string) string {
	emoji, ok := emojiMap[key]
	if !ok {
		return body
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if m := headingRe.FindStringSubmatch(l); m != nil && len(m[1]) == 1 {
			if strings.HasPrefix(strings.TrimSpace(m[2]), emoji) {
				return body
			}
			lines[i] = "# " + emoji + " " + strings.TrimSpace(m[2])
			return strings.Join(lines, "\n")
		}
	}
	return body
}

// crossLinkModules rewrites bare mentions of module names in prose
// lines into relative Markdown links to their detail page, per
// spec.md §4.7. linkFor builds the relative path to a module's page
// given its slug, letting callers at different tree depths (top-level
// sections vs. module pages themselves) produce correct relative
// links. Headings, existing links, and fenced code blocks are left
// untouched so diagrams and headings are never mangled.
func crossLinkModules(body string, modules map[string]string, linkFor func(slug string) string) string {
	if len(modules) == 0 {
		return body
	}
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	// Longest names first, so "HTTP Server" is matched before "Server".
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}

	lines := strings.Split(body, "\n")
	inFence := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			inFence = !inFence
			continue
		}
		if inFence || headingRe.MatchString(l) || strings.Contains(l, "](") {
			continue
		}
		for _, name := range names {
			link := fmt.Sprintf("[%s](%s)", name, linkFor(modules[name]))
			lines[i] = replaceWholeWord(lines[i], name, link)
		}
	}
	return strings.Join(lines, "\n")
}

// replaceWholeWord substitutes every whole-word, case-sensitive
// occurrence of old in s with replacement, leaving partial-word matches
// (e.g. "db" inside "adbc") untouched.
func replaceWholeWord(s, old, replacement string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)
	escaped := strings.ReplaceAll(replacement, "$", "$$")
	return re.ReplaceAllString(s, escaped)
}
