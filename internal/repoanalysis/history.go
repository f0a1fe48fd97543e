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
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/llm"
)

// ringBuffer is a fixed-size circular buffer of CommitRecords, the hot
// tier of AnalyzeHistory's two-tier accumulation strategy. Adapted from
// services/trace/history/ring_buffer.go's RingBuffer[T]: same
// head/tail/count bookkeeping and wrap-on-full overwrite semantics,
// narrowed to the one element type this package accumulates instead of
// staying generic, since nothing else in this core needs a ring buffer.
type ringBuffer struct {
	data  []CommitRecord
	head  int
	tail  int
	count int
	cap   int
	full  bool
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &ringBuffer{data: make([]CommitRecord, capacity), cap: capacity}
}

func (r *ringBuffer) push(item CommitRecord) {
	r.data[r.head] = item
	r.head = (r.head + 1) % r.cap
	if r.full {
		r.tail = (r.tail + 1) % r.cap
	} else {
		r.count++
		if r.count == r.cap {
			r.full = true
		}
	}
}

func (r *ringBuffer) slice() []CommitRecord {
	if r.count == 0 {
		return nil
	}
	out := make([]CommitRecord, r.count)
	for i := range out {
		out[i] = r.data[(r.tail+i)%r.cap]
	}
	return out
}

// historyStore is AnalyzeHistory's two-tier accumulator: a ring buffer
// (hot tier) that spills its oldest half into a cold slice once full,
// mirroring services/code_buddy/history/store.go's flushOldestToCold,
// adapted to accumulate within a single pipeline run rather than persist
// across process restarts (no JSON persistence layer here: commit
// history is recomputed from git on every run, unlike the teacher's
// blast-radius events which have no equivalent source of truth to
// recompute from).
type historyStore struct {
	ring *ringBuffer
	cold []CommitRecord
}

func newHistoryStore(ringSize int) *historyStore {
	return &historyStore{ring: newRingBuffer(ringSize)}
}

func (s *historyStore) record(c CommitRecord) {
	if s.ring.full {
		s.flushOldestToCold()
	}
	s.ring.push(c)
}

func (s *historyStore) flushOldestToCold() {
	half := s.ring.count / 2
	if half == 0 {
		half = 1
	}
	oldest := s.ring.slice()
	if half > len(oldest) {
		half = len(oldest)
	}
	s.cold = append(s.cold, oldest[:half]...)
	for i := 0; i < half; i++ {
		s.ring.tail = (s.ring.tail + 1) % s.ring.cap
		s.ring.count--
	}
	s.ring.full = false
}

func (s *historyStore) all() []CommitRecord {
	out := make([]CommitRecord, 0, len(s.cold)+s.ring.count)
	out = append(out, s.cold...)
	out = append(out, s.ring.slice()...)
	return out
}

// HistoryConfig configures AnalyzeHistory, sourced from repo.max_commits
// (spec.md §6.1).
type HistoryConfig struct {
	MaxCommits      int
	TopChangedFiles int // default 10
	RingSize        int // hot tier capacity before spilling to cold, default 200
}

// AnalyzeHistoryNode reads commit history via the system git binary
// (same exec.CommandContext convention as
// services/code_buddy/git/classifier.go), derives per-author counts, a
// year/quarter timeline, and the most-changed files, then asks the LLM
// call layer for a narrative summary, per spec.md §4.4.3.
type AnalyzeHistoryNode struct {
	flow.BaseNode
	Config HistoryConfig
	LLM    *llm.Client
	Logger *slog.Logger
}

// NewAnalyzeHistoryNode constructs the node with the "AnalyzeHistory" name.
func NewAnalyzeHistoryNode(cfg HistoryConfig, client *llm.Client, logger *slog.Logger) *AnalyzeHistoryNode {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHistoryNode{
		BaseNode: flow.BaseNode{NodeName: "AnalyzeHistory", NodeTimeout: 3 * time.Minute},
		Config:   cfg,
		LLM:      client,
		Logger:   logger.With(slog.String("node", "AnalyzeHistory")),
	}
}

func (n *AnalyzeHistoryNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	root := state.GetString(blackboard.KeyLocalRepoPath)
	if root == "" {
		return nil, fmt.Errorf("repoanalysis: %s missing from blackboard", blackboard.KeyLocalRepoPath)
	}
	return root, nil
}

type analyzeHistoryResult struct {
	commits []CommitRecord
	summary HistorySummary
	prose   string
}

func (n *AnalyzeHistoryNode) Execute(ctx context.Context, prep any) (any, error) {
	root := prep.(string)

	maxCommits := n.Config.MaxCommits
	if maxCommits <= 0 {
		maxCommits = 500
	}
	ringSize := n.Config.RingSize
	if ringSize <= 0 {
		ringSize = 200
	}

	commits, err := readGitLog(ctx, root, maxCommits)
	if err != nil {
		return nil, err
	}

	store := newHistoryStore(ringSize)
	for _, c := range commits {
		store.record(c)
	}
	all := store.all()

	summary := summarizeHistory(all, n.topChangedFilesLimit())

	var prose string
	if n.LLM != nil {
		prose, err = n.narrate(ctx, summary)
		if err != nil {
			n.Logger.Warn("history narrative LLM call failed, continuing without prose summary", slog.String("error", err.Error()))
		}
	}

	return analyzeHistoryResult{commits: all, summary: summary, prose: prose}, nil
}

func (n *AnalyzeHistoryNode) topChangedFilesLimit() int {
	if n.Config.TopChangedFiles > 0 {
		return n.Config.TopChangedFiles
	}
	return 10
}

func (n *AnalyzeHistoryNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	res := exec.(analyzeHistoryResult)
	state.Set(blackboard.KeyCommitHistory, res.commits)
	if res.prose != "" {
		state.Set(blackboard.KeyHistorySummary, res.prose)
	} else {
		state.Set(blackboard.KeyHistorySummary, renderFallbackNarrative(res.summary))
	}
	return flow.ActionDefault, nil
}

func (n *AnalyzeHistoryNode) narrate(ctx context.Context, summary HistorySummary) (string, error) {
	prompt := "Summarize this repository's commit history into a short narrative for a documentation reader."
	context := renderFallbackNarrative(summary)
	text, _, err := n.LLM.Generate(ctx, llm.GenerateRequest{
		Prompt:   prompt,
		Context:  context,
		TaskType: llm.TaskSummarize,
		NodeName: n.Name(),
	})
	return text, err
}

// renderFallbackNarrative builds a deterministic textual rendering of
// the aggregates, used both as the LLM prompt's context block and as
// the value of history_summary if the LLM call is unavailable or fails.
func renderFallbackNarrative(s HistorySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Contributors: %d\n", len(s.AuthorCounts))
	type kv struct {
		name  string
		count int
	}
	authors := make([]kv, 0, len(s.AuthorCounts))
	for k, v := range s.AuthorCounts {
		authors = append(authors, kv{k, v})
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].count > authors[j].count })
	for i, a := range authors {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "  %s: %d commits\n", a.name, a.count)
	}
	fmt.Fprintf(&b, "Timeline:\n")
	for _, t := range s.TimelineBuckets {
		fmt.Fprintf(&b, "  %d Q%d: %d commits\n", t.Year, t.Quarter, t.Commits)
	}
	fmt.Fprintf(&b, "Most-changed files:\n")
	for _, f := range s.TopChangedFiles {
		fmt.Fprintf(&b, "  %s: %d commits\n", f.Path, f.Commits)
	}
	return b.String()
}

const (
	gitRecordSep = "\x1e"
	gitFieldSep  = "\x1f"
)

// readGitLog shells out to git log with --numstat, using ASCII record
// and field separators to disambiguate commit metadata lines from the
// numstat lines that follow each one, per the same exec.CommandContext
// idiom services/code_buddy/git/classifier.go uses throughout.
func readGitLog(ctx context.Context, root string, maxCommits int) ([]CommitRecord, error) {
	format := gitRecordSep + "%H" + gitFieldSep + "%an" + gitFieldSep + "%aI" + gitFieldSep + "%s"
	args := []string{"log", "-n", strconv.Itoa(maxCommits), "--date=iso-strict", "--pretty=format:" + format, "--numstat"}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("repoanalysis: git log failed: %w", err)
	}
	return parseGitLog(string(out)), nil
}

func parseGitLog(output string) []CommitRecord {
	records := strings.Split(output, gitRecordSep)
	commits := make([]CommitRecord, 0, len(records))
	for _, rec := range records {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		lines := strings.Split(rec, "\n")
		header := strings.Split(lines[0], gitFieldSep)
		if len(header) < 4 {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, header[2])
		c := CommitRecord{
			SHA:       header[0],
			Author:    header[1],
			Timestamp: ts,
			Subject:   header[3],
		}
		for _, statLine := range lines[1:] {
			statLine = strings.TrimSpace(statLine)
			if statLine == "" {
				continue
			}
			fields := strings.SplitN(statLine, "\t", 3)
			if len(fields) != 3 {
				continue
			}
			ins, _ := strconv.Atoi(fields[0])
			del, _ := strconv.Atoi(fields[1])
			c.Insertions += ins
			c.Deletions += del
			c.ChangedFiles = append(c.ChangedFiles, fields[2])
		}
		commits = append(commits, c)
	}
	return commits
}

func summarizeHistory(commits []CommitRecord, topN int) HistorySummary {
	authorCounts := make(map[string]int)
	bucketCounts := make(map[[2]int]int)
	fileCounts := make(map[string]int)

	for _, c := range commits {
		authorCounts[c.Author]++
		if !c.Timestamp.IsZero() {
			quarter := int(c.Timestamp.Month()-1)/3 + 1
			bucketCounts[[2]int{c.Timestamp.Year(), quarter}]++
		}
		for _, f := range c.ChangedFiles {
			fileCounts[f]++
		}
	}

	buckets := make([]TimelineBucket, 0, len(bucketCounts))
	for k, count := range bucketCounts {
		buckets = append(buckets, TimelineBucket{Year: k[0], Quarter: k[1], Commits: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Quarter < buckets[j].Quarter
	})

	files := make([]FileChangeCount, 0, len(fileCounts))
	for path, count := range fileCounts {
		files = append(files, FileChangeCount{Path: path, Commits: count})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Commits > files[j].Commits })
	if len(files) > topN {
		files = files[:topN]
	}

	return HistorySummary{
		AuthorCounts:    authorCounts,
		TimelineBuckets: buckets,
		TopChangedFiles: files,
	}
}
