// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repoanalysis

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/depgraph"
	"github.com/aleutian-labs/repowiki/internal/flow"
)

// ParseCodeConfig configures the ParseCodeBatch node, sourced from the
// parse.* keys in spec.md §6.1.
type ParseCodeConfig struct {
	IgnorePatterns   []string
	BinaryExtensions []string
	MaxFiles         int
	BatchSize        int // default 150
	MaxWorkers       int // 0 means runtime.NumCPU(), per §4.10
	ModuleRoot       string
}

const defaultBatchSize = 150

// ParseCodeBatchNode walks the working tree, batches files, and parses
// each one in parallel via codeparse.Registry, aggregating import edges
// into a module dependency graph via internal/depgraph. Grounded on
// services/code_buddy/graph/builder.go's worker-count convention
// (DefaultWorkerCount 0 meaning runtime.NumCPU()) and on
// internal/flow.RunBatch for the parallel batch mechanics themselves,
// which is this core's own generalized BatchNode rather than a
// bespoke worker pool.
type ParseCodeBatchNode struct {
	flow.BaseNode
	Config   ParseCodeConfig
	Registry *codeparse.Registry
	Logger   *slog.Logger
}

// NewParseCodeBatchNode constructs the node with the "ParseCodeBatch" name.
func NewParseCodeBatchNode(cfg ParseCodeConfig, registry *codeparse.Registry, logger *slog.Logger) *ParseCodeBatchNode {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = codeparse.NewDefaultRegistry()
	}
	return &ParseCodeBatchNode{
		BaseNode: flow.BaseNode{NodeName: "ParseCodeBatch", NodeTimeout: 10 * time.Minute},
		Config:   cfg,
		Registry: registry,
		Logger:   logger.With(slog.String("node", "ParseCodeBatch")),
	}
}

type parseCodePrep struct {
	root  string
	paths []string
}

func (n *ParseCodeBatchNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	root := state.GetString(blackboard.KeyLocalRepoPath)
	if root == "" {
		return nil, fmt.Errorf("repoanalysis: %s missing from blackboard", blackboard.KeyLocalRepoPath)
	}
	paths, err := walkSourceFiles(root, n.Config.IgnorePatterns, n.Config.MaxFiles)
	if err != nil {
		return nil, err
	}
	return parseCodePrep{root: root, paths: paths}, nil
}

func (n *ParseCodeBatchNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(parseCodePrep)
	paths := p.paths
	width := n.Config.MaxWorkers
	if width <= 0 {
		width = runtime.NumCPU()
	}
	batchSize := n.Config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	entries := make([]codeparse.FileEntry, 0, len(paths))
	for start := 0; start < len(paths); start += batchSize {
		end := start + batchSize
		if end > len(paths) {
			end = len(paths)
		}
		batch := paths[start:end]

		results, err := flow.RunBatch(ctx, batch, true, width, false, func(ctx context.Context, path string) (codeparse.FileEntry, error) {
			return n.parseOne(ctx, p.root, path)
		})
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.Err != nil {
				n.Logger.Warn("failed to parse file, skipping", slog.String("error", r.Err.Error()))
				continue
			}
			entries = append(entries, r.Value)
		}
	}

	builder := depgraph.NewBuilder(n.Config.ModuleRoot)
	graph, stats := builder.Build(entries)

	return parseCodeResult{entries: entries, graph: graph, stats: stats}, nil
}

func (n *ParseCodeBatchNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(parseCodeResult)
	state.Set(blackboard.KeyCodeStructure, res.entries)
	state.Set(blackboard.KeyDependencies, res.graph)
	if res.stats.CyclesFound > 0 {
		for _, c := range res.graph.Cycles() {
			state.AppendError(blackboard.ErrorRecord{
				Stage:     n.Name(),
				Kind:      blackboard.KindWarning,
				Message:   "dependency cycle: " + c.String(res.graph),
				Timestamp: time.Now(),
				Recovered: true,
			})
		}
	}
	return flow.ActionDefault, nil
}

type parseCodeResult struct {
	entries []codeparse.FileEntry
	graph   *depgraph.Graph
	stats   depgraph.BuildStats
}

// parseOne detects a file's language and binary-ness, parses it if it
// is recognized source, and folds the ParseResult into a FileEntry,
// per spec.md §4.4.2: "detect language by extension + shebang + sniff;
// skip if language unknown or binary."
func (n *ParseCodeBatchNode) parseOne(ctx context.Context, root, path string) (codeparse.FileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return codeparse.FileEntry{}, err
	}

	relPath := path
	if rel, err := filepath.Rel(root, path); err == nil {
		relPath = rel
	}
	sniffLen := int64(4096)
	if info.Size() < sniffLen {
		sniffLen = info.Size()
	}
	head, err := readHead(path, sniffLen)
	if err != nil {
		return codeparse.FileEntry{}, err
	}

	if codeparse.IsBinary(head) || hasBinaryExtension(path, n.Config.BinaryExtensions) {
		return codeparse.FileEntry{Path: relPath, SizeBytes: info.Size(), IsBinary: true}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return codeparse.FileEntry{}, err
	}

	lang, result, err := n.Registry.ParseFile(ctx, content, path)
	if err != nil {
		n.Logger.Warn("parse error, keeping bare FileEntry", slog.String("path", path), slog.String("error", err.Error()))
	}

	entry := codeparse.FileEntry{
		Path:      relPath,
		Language:  lang,
		SizeBytes: info.Size(),
	}
	if result != nil {
		entry.Imports = result.Imports
		entry.ASTSummary = summaryFromResult(result)
		entry.ExportedSymbols = exportedNames(result)
	}
	return entry, nil
}

func readHead(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	r := bufio.NewReader(f)
	read, err := r.Read(buf)
	if err != nil && read == 0 {
		return nil, nil
	}
	return buf[:read], nil
}

func summaryFromResult(r *codeparse.ParseResult) string {
	if r.LeadingComment != "" {
		return r.LeadingComment
	}
	for _, sym := range r.Symbols {
		if sym.DocComment != "" {
			return sym.DocComment
		}
	}
	return ""
}

func exportedNames(r *codeparse.ParseResult) []string {
	var names []string
	for _, sym := range r.Symbols {
		if sym.Exported {
			names = append(names, sym.Name)
		}
	}
	return names
}

func hasBinaryExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// walkSourceFiles collects every regular file under root not excluded by
// ignorePatterns, capped at maxFiles (0 means unbounded).
func walkSourceFiles(root string, ignorePatterns []string, maxFiles int) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if d.Name() == ".git" || matchesAny(rel, ignorePatterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(rel, ignorePatterns) {
			return nil
		}
		paths = append(paths, path)
		if maxFiles > 0 && len(paths) >= maxFiles {
			return errStopWalk
		}
		return nil
	})
	if err != nil && err != errStopWalk {
		return nil, err
	}
	return paths, nil
}

var errStopWalk = fmt.Errorf("repoanalysis: max_files reached")

func matchesAny(rel string, patterns []string) bool {
	base := filepath.Base(rel)
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, rel); ok {
			return true
		}
		if strings.Contains(rel, pat) {
			return true
		}
	}
	return false
}
