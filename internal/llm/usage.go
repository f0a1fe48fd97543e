// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "sync/atomic"

// UsageTotals accumulates token and cost counters across every
// Generate call a Client makes, for spec.md §6.3's report.json "total
// token usage and estimated cost". Safe for concurrent use by the
// parallel flow runner's worker pool.
type UsageTotals struct {
	inputTokens  int64
	outputTokens int64
	costMicros   int64 // estimated cost in USD, scaled by 1e6 to stay integral
	calls        int64
	cacheHits    int64
}

func (u *UsageTotals) record(meta CallMetadata) {
	if u == nil {
		return
	}
	atomic.AddInt64(&u.calls, 1)
	if meta.FromCache {
		atomic.AddInt64(&u.cacheHits, 1)
	}
	atomic.AddInt64(&u.inputTokens, int64(meta.InputTokens))
	atomic.AddInt64(&u.outputTokens, int64(meta.OutputTokens))
	atomic.AddInt64(&u.costMicros, int64(meta.EstimatedCost*1_000_000))
}

// Snapshot returns a point-in-time copy of the accumulated totals.
func (u *UsageTotals) Snapshot() UsageSnapshot {
	if u == nil {
		return UsageSnapshot{}
	}
	return UsageSnapshot{
		Calls:         atomic.LoadInt64(&u.calls),
		CacheHits:     atomic.LoadInt64(&u.cacheHits),
		InputTokens:   atomic.LoadInt64(&u.inputTokens),
		OutputTokens:  atomic.LoadInt64(&u.outputTokens),
		EstimatedCost: float64(atomic.LoadInt64(&u.costMicros)) / 1_000_000,
	}
}

// UsageSnapshot is the read-only view of UsageTotals suitable for
// embedding in a report.
type UsageSnapshot struct {
	Calls         int64   `json:"calls"`
	CacheHits     int64   `json:"cache_hits"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	EstimatedCost float64 `json:"estimated_cost_usd"`
}
