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

import "regexp"

var blockRe = regexp.MustCompile("(?s)```mermaid\\s*\\n(.*?)```")

// ExtractBlocks locates every fenced ```mermaid``` block in text,
// per spec.md §4.6's Extraction step: located by fence markers, with
// byte offsets preserved to enable in-place substitution.
func ExtractBlocks(text string) []ExtractedBlock {
	matches := blockRe.FindAllStringSubmatchIndex(text, -1)
	blocks := make([]ExtractedBlock, 0, len(matches))
	for _, m := range matches {
		// m[0], m[1] bound the whole match; m[2], m[3] bound the body.
		blocks = append(blocks, ExtractedBlock{
			Start: m[0],
			End:   m[1],
			Body:  text[m[2]:m[3]],
		})
	}
	return blocks
}

// Substitute rebuilds text with block's fenced region (identified by
// its Start/End offsets, as returned by ExtractBlocks against the
// same text) replaced by newBody.
func Substitute(text string, block ExtractedBlock, newBody string) string {
	replacement := "```mermaid\n" + newBody
	if len(newBody) == 0 || newBody[len(newBody)-1] != '\n' {
		replacement += "\n"
	}
	replacement += "```"
	return text[:block.Start] + replacement + text[block.End:]
}
