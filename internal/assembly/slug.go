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
	"regexp"
	"strings"
)

var (
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
	dashCollapseRe    = regexp.MustCompile(`-+`)
)

// Slugify implements spec.md §4.7's slug rule: lower-case the module
// name, replace runs of non-alphanumeric characters with a single "-",
// and trim leading/trailing dashes.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	s = dashCollapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
