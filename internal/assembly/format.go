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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/flow"
)

// FormatNode implements the Format half of spec.md §4.7's Assembly
// stage: emoji headings, table-of-contents injection, prev/next
// navigation footers derived from the file tree's declared order, and
// atomic per-file writes (temp file + rename, grounded on
// services/trace/dag/checkpoint.go's SaveCheckpoint) under
// output_dir/<repo>/.
type FormatNode struct {
	flow.BaseNode
	// InjectTOC controls whether a table of contents is inserted after
	// each document's title. Defaults to true.
	InjectTOC bool
	// BackupFiles mirrors mermaid.Config.BackupFiles: when true, an
	// existing document at a target path is copied to a sibling .bak
	// before it is overwritten, per spec.md §4.6's "optionally back up
	// the document ... before writing modifications". The mermaid
	// engine itself only ever rewrites in-memory blackboard content, so
	// this is where a document as a filesystem artifact actually gets
	// overwritten, and where the backup belongs.
	BackupFiles bool
}

func NewFormatNode() *FormatNode {
	return &FormatNode{
		BaseNode:    flow.BaseNode{NodeName: "Format", NodeTimeout: 2 * time.Minute},
		InjectTOC:   true,
		BackupFiles: true,
	}
}

type formatPrep struct {
	repoName  string
	outputDir string
	docs      map[string]Document
}

func (n *FormatNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	v, ok := state.Get(blackboard.KeyCombinedDocuments)
	if !ok {
		return nil, fmt.Errorf("assembly: %s not set, run Combine first", blackboard.KeyCombinedDocuments)
	}
	docs, ok := v.(map[string]Document)
	if !ok {
		return nil, fmt.Errorf("assembly: %s has unexpected type %T", blackboard.KeyCombinedDocuments, v)
	}
	return formatPrep{
		repoName:  repoNameFrom(state),
		outputDir: state.GetStringOr(blackboard.KeyOutputDir, "output"),
		docs:      docs,
	}, nil
}

type formatResult struct {
	final   map[string]string
	written []string
}

func (n *FormatNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(formatPrep)

	order := navPageOrder(p.docs)

	final := make(map[string]string, len(p.docs))
	for path, doc := range p.docs {
		body := doc.Body
		if n.InjectTOC {
			body = injectTOC(body)
		}
		body = emojiHeading(body, strings.TrimSuffix(path, ".md"), emojiFor(path))
		body = appendNavFooter(body, path, order)
		final[path] = body
	}

	root := filepath.Join(p.outputDir, p.repoName)
	written := make([]string, 0, len(final))
	for _, path := range order {
		body, ok := final[path]
		if !ok {
			continue
		}
		fullPath := filepath.Join(root, filepath.FromSlash(path))
		if err := atomicWrite(fullPath, []byte(body), n.BackupFiles); err != nil {
			return nil, fmt.Errorf("assembly: writing %s: %w", path, err)
		}
		written = append(written, fullPath)
	}
	// Module detail pages aren't in navOrder; write them after the
	// declared pages, in stable slug order.
	for _, path := range modulePagePaths(p.docs) {
		body := final[path]
		fullPath := filepath.Join(root, filepath.FromSlash(path))
		if err := atomicWrite(fullPath, []byte(body), n.BackupFiles); err != nil {
			return nil, fmt.Errorf("assembly: writing %s: %w", path, err)
		}
		written = append(written, fullPath)
	}

	return formatResult{final: final, written: written}, nil
}

// emojiFor returns the emoji lookup table appropriate for path: module
// pages all share modulePageEmoji, everything else uses sectionEmoji.
func emojiFor(path string) map[string]string {
	if strings.HasPrefix(path, "modules/") && path != "modules/index.md" {
		return map[string]string{strings.TrimSuffix(path, ".md"): modulePageEmoji}
	}
	return sectionEmoji
}

// navPageOrder returns navOrder filtered to pages actually present in
// docs, preserving declared order.
func navPageOrder(docs map[string]Document) []string {
	order := make([]string, 0, len(navOrder))
	for _, p := range navOrder {
		if _, ok := docs[p]; ok {
			order = append(order, p)
		}
	}
	return order
}

func modulePagePaths(docs map[string]Document) []string {
	var paths []string
	for p := range docs {
		if strings.HasPrefix(p, "modules/") && p != "modules/index.md" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// appendNavFooter writes a prev/next navigation footer, deriving
// neighbors from order (the declared top-level file-tree order); path
// not found in order (module detail pages) gets no footer since their
// natural neighbors are each other, not the top-level flow.
func appendNavFooter(body, path string, order []string) string {
	idx := -1
	for i, p := range order {
		if p == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return body
	}
	var footer strings.Builder
	footer.WriteString("\n\n---\n\n")
	if idx > 0 {
		fmt.Fprintf(&footer, "[← %s](%s) ", titleize(pageBase(order[idx-1])), relLink(path, order[idx-1]))
	}
	if idx < len(order)-1 {
		fmt.Fprintf(&footer, "[%s →](%s)", titleize(pageBase(order[idx+1])), relLink(path, order[idx+1]))
	}
	return body + footer.String()
}

func pageBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".md")
}

// relLink returns target relative to the directory containing from,
// both given as slash-separated paths rooted at the site root.
func relLink(from, target string) string {
	fromDir := filepath.Dir(filepath.FromSlash(from))
	rel, err := filepath.Rel(fromDir, filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

// atomicWrite writes data to path via a temp file in the same
// directory followed by a rename, so a reader never observes a
// partially written document. When backup is true and a file already
// exists at path, it is copied to path+".bak" first.
func atomicWrite(path string, data []byte, backup bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if backup {
		if existing, err := os.ReadFile(path); err == nil {
			if err := os.WriteFile(path+".bak", existing, 0o644); err != nil {
				return fmt.Errorf("backup existing file: %w", err)
			}
		}
	}

	tmp, err := os.CreateTemp(dir, ".assembly-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	success = true
	return nil
}

func (n *FormatNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(formatResult)
	state.Set(blackboard.KeyFinalDocuments, res.final)
	state.Set(blackboard.KeyWrittenFiles, res.written)
	return flow.ActionDefault, nil
}
