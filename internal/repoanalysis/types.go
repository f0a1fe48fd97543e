// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package repoanalysis implements the five sub-stages of the repository
// analysis pipeline: cloning or reusing a working copy (PrepareRepo),
// extracting per-file structure and a module dependency graph
// (ParseCodeBatch), summarizing commit history (AnalyzeHistory), asking
// an LLM to describe the codebase's core modules (AIUnderstandCoreModules),
// and preparing retrieval chunks for a future Q&A surface (PrepareRAGData).
// Each stage is a flow.Node reading and writing the shared blackboard.
package repoanalysis

import "time"

// RepoStats is the size/file-count/language-breakdown summary PrepareRepo
// computes for both the cloned-URL and local-path branches.
type RepoStats struct {
	TotalSizeBytes    int64          `json:"total_size_bytes"`
	FileCount         int            `json:"file_count"`
	LanguageBreakdown map[string]int `json:"language_breakdown"`
}

// CommitRecord is a single commit as read by AnalyzeHistory, ordered
// newest-first in commit_history.
type CommitRecord struct {
	SHA          string    `json:"sha"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Subject      string    `json:"subject"`
	ChangedFiles []string  `json:"changed_files"`
	Insertions   int       `json:"insertions"`
	Deletions    int       `json:"deletions"`
}

// ModuleDescriptor is one core module as identified by
// AIUnderstandCoreModules, ranked by Importance for prioritization by
// downstream content generators.
type ModuleDescriptor struct {
	Name        string   `json:"name" yaml:"name"`
	Path        string   `json:"path" yaml:"path"`
	Description string   `json:"description" yaml:"description"`
	Importance  int      `json:"importance" yaml:"importance"` // 1..10
	DependsOn   []string `json:"depends_on" yaml:"depends_on"`
}

// Chunk is a single retrieval-ready slice of a text file, produced by
// PrepareRAGData. Embedding is left nil by the current core; a vector
// store write happens only when RAGDegradation.ShouldSkipEmbedding()
// reports false.
type Chunk struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	ByteStart  int       `json:"byte_start"`
	ByteEnd    int       `json:"byte_end"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// HistorySummary bundles AnalyzeHistory's derived aggregates alongside
// the raw commit_history sequence, everything the Timeline generator and
// the LLM narrative prompt need.
type HistorySummary struct {
	AuthorCounts    map[string]int    `json:"author_counts"`
	TimelineBuckets []TimelineBucket  `json:"timeline_buckets"`
	TopChangedFiles []FileChangeCount `json:"top_changed_files"`
}

// TimelineBucket is a coarse year/quarter commit-count bucket.
type TimelineBucket struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Commits int `json:"commits"`
}

// FileChangeCount pairs a file path with how many commits touched it.
type FileChangeCount struct {
	Path    string `json:"path"`
	Commits int    `json:"commits"`
}
