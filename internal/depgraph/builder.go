// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import (
	"fmt"
	"strings"

	"github.com/aleutian-labs/repowiki/internal/codeparse"
)

// BuildStats summarizes a Build call, mirroring the counters
// services/code_buddy/graph/builder.go's BuildResult.Stats tracks.
type BuildStats struct {
	FilesProcessed   int
	NodesCreated     int
	EdgesCreated     int
	PlaceholderNodes int
	CyclesFound      int
}

// Builder aggregates a set of FileEntry import lists into a Graph.
// Grounded on services/code_buddy/graph/builder.go's Builder: a
// collect phase that adds every file as a node, followed by an edge
// phase that resolves each import to either a known file (a local
// dependency) or a placeholder node (an external package), the same
// two-phase shape as the teacher's collectPhase/extractEdgesPhase,
// trimmed of the teacher's symbol-level RECEIVES/RETURNS/IMPLEMENTS/
// EMBEDS edges since this graph operates at file/module granularity,
// not per-symbol.
type Builder struct {
	// ModuleRoot is stripped as a prefix from local import paths before
	// resolution, mirroring go.mod's module path for Go-style imports.
	ModuleRoot string
}

// NewBuilder returns a Builder for module root moduleRoot (may be "").
func NewBuilder(moduleRoot string) *Builder {
	return &Builder{ModuleRoot: moduleRoot}
}

// Build constructs a Graph from files, aggregating every file's
// imports into edges and running cycle detection before returning.
func (b *Builder) Build(files []codeparse.FileEntry) (*Graph, BuildStats) {
	g := NewGraph()
	stats := BuildStats{}

	// Phase 1: collect every file as a node.
	for _, f := range files {
		g.AddNode(f.Path, f.Language)
		stats.NodesCreated++
	}

	placeholders := make(map[string]NodeID)

	// Phase 2: resolve imports into edges.
	for _, f := range files {
		fromID, ok := g.IDForPath(f.Path)
		if !ok {
			continue
		}
		for _, imp := range f.Imports {
			toID, isPlaceholder := b.resolveImport(g, placeholders, f.Path, imp.Path)
			if isPlaceholder {
				stats.PlaceholderNodes++
			}
			if err := g.AddEdge(fromID, toID, imp.Path); err != nil {
				continue
			}
			stats.EdgesCreated++
		}
		stats.FilesProcessed++
	}

	cycles := g.DetectCycles()
	stats.CyclesFound = len(cycles)

	return g, stats
}

// resolveImport finds the NodeID an import path refers to: an exact
// path match, a file under the package directory left after stripping
// ModuleRoot, a relative import resolved against fromPath (also trying
// common source extensions), or (failing all) a stable placeholder node
// representing an external dependency. Grounded on
// services/code_buddy/graph/builder.go's getOrCreatePlaceholder, using
// a plain map instead of a mutex-guarded one since Build runs
// single-threaded per call.
func (b *Builder) resolveImport(g *Graph, placeholders map[string]NodeID, fromPath, importPath string) (NodeID, bool) {
	if id, ok := g.IDForPath(importPath); ok {
		return id, false
	}

	if b.ModuleRoot != "" && strings.HasPrefix(importPath, b.ModuleRoot) {
		rel := strings.TrimPrefix(strings.TrimPrefix(importPath, b.ModuleRoot), "/")
		if id, ok := matchLocalPackage(g, rel); ok {
			return id, false
		}
	}

	if resolved := resolveRelativeImport(fromPath, importPath); resolved != "" {
		if id, ok := g.IDForPath(resolved); ok {
			return id, false
		}
		if id, ok := matchLocalFile(g, resolved); ok {
			return id, false
		}
	}

	key := "external:" + importPath
	if id, ok := placeholders[key]; ok {
		return id, true
	}
	id := g.AddNode(key, "external")
	placeholders[key] = id
	return id, true
}

// matchLocalPackage finds a node whose path lies under directory rel,
// approximating Go's package-is-a-directory import resolution.
func matchLocalPackage(g *Graph, rel string) (NodeID, bool) {
	prefix := rel + "/"
	for _, n := range g.Nodes() {
		if n.Path == rel || strings.HasPrefix(n.Path, prefix) {
			return n.ID, true
		}
	}
	return 0, false
}

// relativeImportExtensions are the source suffixes tried when a
// relative import path (which conventionally omits its extension)
// doesn't match a known file exactly.
var relativeImportExtensions = []string{".py", ".ts", ".tsx", ".js", ".jsx", ".sh", ".go"}

// matchLocalFile finds a node whose path equals resolved plus one of
// relativeImportExtensions, or resolved itself as a package directory.
func matchLocalFile(g *Graph, resolved string) (NodeID, bool) {
	for _, ext := range relativeImportExtensions {
		if id, ok := g.IDForPath(resolved + ext); ok {
			return id, true
		}
	}
	return matchLocalPackage(g, resolved)
}

// resolveRelativeImport joins a "./" or "../" style import path
// (Python, TypeScript, bash source, HTML/CSS references) against the
// importing file's own directory.
func resolveRelativeImport(fromPath, importPath string) string {
	if !strings.HasPrefix(importPath, ".") {
		return ""
	}
	dir := ""
	if idx := strings.LastIndex(fromPath, "/"); idx >= 0 {
		dir = fromPath[:idx]
	}
	parts := strings.Split(dir, "/")
	if dir == "" {
		parts = nil
	}
	for _, seg := range strings.Split(importPath, "/") {
		switch seg {
		case ".", "":
			continue
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}

// String renders a Cycle as a human-readable dependency chain, for
// logging and for the architecture-summary section content generators
// annotate cycles into.
func (c Cycle) String(g *Graph) string {
	names := make([]string, 0, len(c.Nodes)+1)
	for _, id := range c.Nodes {
		if n := g.Node(id); n != nil {
			names = append(names, n.Path)
		} else {
			names = append(names, fmt.Sprintf("#%d", id))
		}
	}
	if len(names) > 0 {
		names = append(names, names[0])
	}
	return strings.Join(names, " -> ")
}
