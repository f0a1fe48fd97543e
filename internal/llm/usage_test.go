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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageTotals_RecordAccumulates(t *testing.T) {
	u := &UsageTotals{}

	u.record(CallMetadata{InputTokens: 100, OutputTokens: 50, EstimatedCost: 0.01})
	u.record(CallMetadata{InputTokens: 200, OutputTokens: 75, EstimatedCost: 0.02, FromCache: true})

	snap := u.Snapshot()
	assert.Equal(t, int64(2), snap.Calls)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(300), snap.InputTokens)
	assert.Equal(t, int64(125), snap.OutputTokens)
	assert.InDelta(t, 0.03, snap.EstimatedCost, 1e-9)
}

func TestUsageTotals_NilReceiverIsNoop(t *testing.T) {
	var u *UsageTotals

	assert.NotPanics(t, func() {
		u.record(CallMetadata{InputTokens: 10})
	})
	assert.Equal(t, UsageSnapshot{}, u.Snapshot())
}

func TestUsageTotals_ConcurrentRecord(t *testing.T) {
	u := &UsageTotals{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.record(CallMetadata{InputTokens: 1, OutputTokens: 1})
		}()
	}
	wg.Wait()

	snap := u.Snapshot()
	assert.Equal(t, int64(100), snap.Calls)
	assert.Equal(t, int64(100), snap.InputTokens)
}
