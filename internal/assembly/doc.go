// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assembly implements the Combine and Format stages that turn
// generated documentation sections and module detail pages into a
// navigable Markdown site: heading normalization, cross-linking module
// names to their detail pages, table-of-contents injection, emoji
// headings, prev/next navigation footers, and atomic per-file writes
// under the configured output directory.
package assembly
