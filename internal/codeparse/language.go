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
	"bytes"
	"path/filepath"
	"strings"
)

// extensionLanguages maps a lowercased file extension (including the
// leading dot) to a canonical language name.
var extensionLanguages = map[string]string{
	".go":       "go",
	".py":       "python",
	".pyi":      "python",
	".ts":       "typescript",
	".tsx":      "typescript",
	".js":       "javascript",
	".jsx":      "javascript",
	".mjs":      "javascript",
	".cjs":      "javascript",
	".yaml":     "yaml",
	".yml":      "yaml",
	".sh":       "bash",
	".bash":     "bash",
	".zsh":      "bash",
	".html":     "html",
	".htm":      "html",
	".md":       "markdown",
	".markdown": "markdown",
	".sql":      "sql",
	".css":      "css",
	".scss":     "css",
}

// filenameLanguages maps a full lowercased base filename (no extension
// stripping) to a canonical language name, for files identified by name
// rather than suffix.
var filenameLanguages = map[string]string{
	"dockerfile": "dockerfile",
}

// shebangLanguages maps an interpreter name found on a shebang line's
// final path segment to a canonical language name.
var shebangLanguages = map[string]string{
	"python":  "python",
	"python3": "python",
	"bash":    "bash",
	"sh":      "bash",
	"zsh":     "bash",
	"node":    "javascript",
}

// DetectLanguage identifies path's language from its extension, its
// filename (for extensionless conventions like Dockerfile), or a
// leading shebang line, per spec.md §4.4.2's "detect language by
// extension + shebang + sniff". Returns ("", false) when unknown.
func DetectLanguage(path string, content []byte) (string, bool) {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(base, "dockerfile") {
		return "dockerfile", true
	}
	if lang, ok := filenameLanguages[base]; ok {
		return lang, true
	}

	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang, true
	}

	if lang, ok := detectShebang(content); ok {
		return lang, true
	}
	return "", false
}

func detectShebang(content []byte) (string, bool) {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return "", false
	}
	end := bytes.IndexByte(content, '\n')
	if end < 0 {
		end = len(content)
	}
	line := string(content[2:end])
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	// "#!/usr/bin/env python3" puts the interpreter in fields[1]; a bare
	// "#!/bin/bash" puts it as the last path segment of fields[0].
	interpreter := filepath.Base(fields[0])
	if interpreter == "env" && len(fields) > 1 {
		interpreter = filepath.Base(fields[1])
	}
	lang, ok := shebangLanguages[interpreter]
	return lang, ok
}

// sniffWindow is how many leading bytes IsBinary inspects; matches the
// convention used by git and most editors for binary detection.
const sniffWindow = 8000

// IsBinary reports whether content looks like binary data: any NUL byte
// within the first sniffWindow bytes marks it as binary, the same
// heuristic git itself uses.
func IsBinary(content []byte) bool {
	window := content
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	return bytes.IndexByte(window, 0) >= 0
}
