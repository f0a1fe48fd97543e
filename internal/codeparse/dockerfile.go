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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// ParseDockerfile extracts build stages (FROM ... AS name), FROM base
// images as imports, and ARG/ENV/LABEL/EXPOSE/VOLUME instructions as
// symbols. Grounded on services/code_buddy/ast/dockerfile_parser_test.go,
// the only surviving trace of DockerfileParser's line-oriented
// instruction dispatch; a Dockerfile has no nested expression grammar
// worth a tree-sitter dependency, so this follows the same one-
// instruction-per-line scan the teacher's parser test implies.
func ParseDockerfile(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dockerfile parse canceled before start: %w", err)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fileTooLargeError{size: len(content)}
	}

	result := &ParseResult{
		FilePath: filePath,
		Language: "dockerfile",
		Symbols:  []Symbol{},
		Imports:  []Import{},
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		instruction := strings.ToUpper(fields[0])
		rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

		switch instruction {
		case "FROM":
			extractDockerfileFrom(rest, lineNo, result)
		case "ARG":
			extractDockerfileKeyValue(rest, lineNo, SymbolKindConstant, "ARG", result)
		case "ENV":
			extractDockerfileEnv(rest, lineNo, result)
		case "LABEL":
			extractDockerfileKeyValue(rest, lineNo, SymbolKindVariable, "LABEL", result)
		case "EXPOSE":
			extractDockerfilePorts(rest, lineNo, result)
		case "VOLUME":
			extractDockerfileVolumes(rest, lineNo, result)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dockerfile parse canceled: %w", err)
	}
	return result, nil
}

func extractDockerfileFrom(rest string, lineNo int, result *ParseResult) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	image := fields[0]
	result.Imports = append(result.Imports, Import{
		Path:     image,
		Location: Location{StartLine: lineNo, EndLine: lineNo},
	})

	if len(fields) >= 3 && strings.EqualFold(fields[1], "AS") {
		stage := fields[2]
		result.Symbols = append(result.Symbols, Symbol{
			Name:      stage,
			Kind:      SymbolKindClass,
			Location:  Location{StartLine: lineNo, EndLine: lineNo},
			Exported:  true,
			Signature: "FROM " + image + " AS " + stage,
		})
	}
}

func extractDockerfileKeyValue(rest string, lineNo int, kind SymbolKind, instruction string, result *ParseResult) {
	for _, entry := range dockerfileSplitAssignments(rest) {
		key, value := dockerfileSplitKV(entry)
		if key == "" {
			continue
		}
		signature := instruction + " " + key
		if value != "" {
			signature += "=" + value
		}
		result.Symbols = append(result.Symbols, Symbol{
			Name:      key,
			Kind:      kind,
			Location:  Location{StartLine: lineNo, EndLine: lineNo},
			Exported:  true,
			Signature: signature,
		})
	}
}

func extractDockerfileEnv(rest string, lineNo int, result *ParseResult) {
	extractDockerfileKeyValue(rest, lineNo, SymbolKindVariable, "ENV", result)
}

func extractDockerfilePorts(rest string, lineNo int, result *ParseResult) {
	for _, field := range strings.Fields(rest) {
		port := strings.SplitN(field, "/", 2)[0]
		if port == "" {
			continue
		}
		result.Symbols = append(result.Symbols, Symbol{
			Name:      port,
			Kind:      SymbolKindConstant,
			Location:  Location{StartLine: lineNo, EndLine: lineNo},
			Exported:  true,
			Signature: "EXPOSE " + field,
		})
	}
}

func extractDockerfileVolumes(rest string, lineNo int, result *ParseResult) {
	rest = strings.Trim(rest, "[]")
	for _, part := range strings.Split(rest, ",") {
		vol := strings.Trim(strings.TrimSpace(part), `"'`)
		if vol == "" {
			continue
		}
		result.Symbols = append(result.Symbols, Symbol{
			Name:      vol,
			Kind:      SymbolKindConstant,
			Location:  Location{StartLine: lineNo, EndLine: lineNo},
			Exported:  true,
			Signature: "VOLUME " + vol,
		})
	}
}

// dockerfileSplitAssignments splits a LABEL/ARG/ENV instruction's
// remainder into individual "key=value" or bare "key" entries,
// respecting double-quoted values that may themselves contain spaces.
func dockerfileSplitAssignments(rest string) []string {
	var entries []string
	var current strings.Builder
	inQuotes := false
	for _, r := range rest {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				entries = append(entries, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		entries = append(entries, current.String())
	}
	return entries
}

func dockerfileSplitKV(entry string) (key, value string) {
	idx := strings.Index(entry, "=")
	if idx < 0 {
		return strings.TrimSpace(entry), ""
	}
	key = strings.TrimSpace(entry[:idx])
	value = strings.Trim(strings.TrimSpace(entry[idx+1:]), `"'`)
	return key, value
}
