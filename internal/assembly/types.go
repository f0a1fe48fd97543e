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

// Document is one page of the assembled site, keyed by its path
// relative to the repo's output directory (e.g. "overview.md",
// "modules/api.md").
type Document struct {
	Path  string
	Title string
	Body  string
}

// sectionFile names the output file each generated_content section
// lands in, per spec.md §4.7's file tree. api_docs renders to
// overview.md; every other section's file matches its section name.
var sectionFile = map[string]string{
	"overall_architecture": "overall_architecture.md",
	"api_docs":             "overview.md",
	"dependency":           "dependency.md",
	"timeline":             "timeline.md",
	"glossary":             "glossary.md",
	"quick_look":           "quick_look.md",
}

// navOrder is the declared file-tree order Format derives prev/next
// navigation footers from. Module pages are not part of it: Format
// writes them after the declared pages, in sorted path order, without a
// navigation footer.
var navOrder = []string{
	"index.md",
	"overall_architecture.md",
	"overview.md",
	"dependency.md",
	"glossary.md",
	"timeline.md",
	"quick_look.md",
	"modules/index.md",
}

// sectionEmoji maps a page's base name (without extension, "/" kept for
// module pages) to the emoji Format inserts before its title heading.
var sectionEmoji = map[string]string{
	"index":                "🧭",
	"overall_architecture": "🏗️",
	"overview":             "📖",
	"dependency":           "🔗",
	"glossary":             "📚",
	"timeline":             "🕒",
	"quick_look":           "⚡",
	"modules/index":        "🧩",
}

const modulePageEmoji = "🧱"
