// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// mmdcRenderer shells out to an installed mermaid-cli binary to validate
// that a chart body actually renders, the same exec.CommandContext
// convention services/code_buddy/git/classifier.go uses for git rather
// than an imported client library, since mermaid-cli ships no Go SDK.
type mmdcRenderer struct {
	binaryPath string
}

// newMMDCRenderer returns nil when binaryPath is empty. That nil
// *mmdcRenderer is not a usable mermaid.ExternalRenderer (stored in the
// interface it is non-nil, and Render would dereference it), so callers
// check binaryPath first and leave the interface value nil, as
// runGenerate does, to fall back to the rule-based checks.
func newMMDCRenderer(binaryPath string) *mmdcRenderer {
	if binaryPath == "" {
		return nil
	}
	return &mmdcRenderer{binaryPath: binaryPath}
}

// Render writes chartBody to a temp .mmd file and asks mmdc to render it
// to SVG, discarding the output; a non-zero exit means the chart is
// invalid.
func (r *mmdcRenderer) Render(chartBody string) error {
	dir, err := os.MkdirTemp("", "repowiki-mmdc-*")
	if err != nil {
		return fmt.Errorf("mmdc: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "chart.mmd")
	outPath := filepath.Join(dir, "chart.svg")
	if err := os.WriteFile(inPath, []byte(chartBody), 0o644); err != nil {
		return fmt.Errorf("mmdc: write chart: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binaryPath, "-i", inPath, "-o", outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mmdc: render failed: %w: %s", err, out)
	}
	return nil
}
