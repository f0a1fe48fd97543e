// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchItemResult pairs an item's output with any error it raised. A
// batch's overall Execute never fails outright because of one item; the
// caller decides whether an error at index i is acceptable.
type BatchItemResult[T any] struct {
	Value T
	Err   error
}

// DefaultBatchWidth is the parallel batch form's semaphore width when the
// caller does not override it.
const DefaultBatchWidth = 8

// RunBatch executes fn once per item. When parallel is true, up to width
// items run concurrently (width <= 0 uses DefaultBatchWidth); the results
// slice always preserves input order regardless of completion order.
//
// If failFast is true, the first item error cancels the remaining work and
// RunBatch returns that error; otherwise every item runs to completion and
// individual failures are reported per-slot in the returned slice.
func RunBatch[I any, O any](ctx context.Context, items []I, parallel bool, width int, failFast bool, fn func(ctx context.Context, item I) (O, error)) ([]BatchItemResult[O], error) {
	results := make([]BatchItemResult[O], len(items))

	if !parallel {
		for i, item := range items {
			out, err := fn(ctx, item)
			results[i] = BatchItemResult[O]{Value: out, Err: err}
			if failFast && err != nil {
				return results, err
			}
		}
		return results, nil
	}

	if width <= 0 {
		width = DefaultBatchWidth
	}
	sem := semaphore.NewWeighted(int64(width))
	var wg sync.WaitGroup
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var firstErr error
	var errOnce sync.Once

	for i, item := range items {
		if err := sem.Acquire(batchCtx, 1); err != nil {
			// Context was cancelled by a fail-fast sibling or the caller.
			break
		}
		wg.Add(1)
		go func(idx int, it I) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := fn(batchCtx, it)
			results[idx] = BatchItemResult[O]{Value: out, Err: err}
			if err != nil && failFast {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i, item)
	}
	wg.Wait()

	return results, firstErr
}
