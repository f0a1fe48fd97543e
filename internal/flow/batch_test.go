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
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunBatch_SequentialPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := RunBatch(context.Background(), items, false, 0, false, func(ctx context.Context, item int) (int, error) {
		return item * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		want := items[i] * 2
		if r.Value != want {
			t.Errorf("index %d: got %d, want %d", i, r.Value, want)
		}
		if r.Err != nil {
			t.Errorf("index %d: unexpected error %v", i, r.Err)
		}
	}
}

func TestRunBatch_ParallelPreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	results, err := RunBatch(context.Background(), items, true, 4, false, func(ctx context.Context, item int) (int, error) {
		return item * item, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		want := items[i] * items[i]
		if r.Value != want {
			t.Errorf("index %d: got %d, want %d", i, r.Value, want)
		}
	}
}

func TestRunBatch_ItemFailureDoesNotAbortBatch(t *testing.T) {
	items := []int{1, 2, 3}
	results, err := RunBatch(context.Background(), items, false, 0, false, func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			return 0, errors.New("boom")
		}
		return item, nil
	})
	if err != nil {
		t.Fatalf("expected no top-level error without fail_fast, got %v", err)
	}
	if results[1].Err == nil {
		t.Fatal("expected item 2's result to carry its error")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatal("sibling items must still complete when one item fails")
	}
}

func TestRunBatch_FailFastAbortsRemainingSequential(t *testing.T) {
	var ran int32
	items := []int{1, 2, 3, 4}
	_, err := RunBatch(context.Background(), items, false, 0, true, func(ctx context.Context, item int) (int, error) {
		atomic.AddInt32(&ran, 1)
		if item == 2 {
			return 0, errors.New("boom")
		}
		return item, nil
	})
	if err == nil {
		t.Fatal("expected fail_fast to surface the item error")
	}
	if ran != 2 {
		t.Fatalf("expected exactly 2 items attempted before fail_fast aborted, got %d", ran)
	}
}

func TestRunBatch_ParallelWidthCapsConcurrency(t *testing.T) {
	var current, peak int32
	items := make([]int, 20)
	_, err := RunBatch(context.Background(), items, true, 3, false, func(ctx context.Context, item int) (int, error) {
		n := atomic.AddInt32(&current, 1)
		defer atomic.AddInt32(&current, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		return item, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak > 3 {
		t.Fatalf("expected peak concurrency <= 3, got %d", peak)
	}
}
