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
	"fmt"
	"testing"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
)

func TestBatchNode_RunsThroughFullLifecycle(t *testing.T) {
	modules := []string{"auth", "billing", "search"}

	node := &BatchNode{
		BaseNode: BaseNode{NodeName: "module_details"},
		PrepareFn: func(ctx context.Context, state *blackboard.Store) ([]any, error) {
			items := make([]any, len(modules))
			for i, m := range modules {
				items[i] = m
			}
			return items, nil
		},
		ExecuteOne: func(ctx context.Context, item any) (any, error) {
			return fmt.Sprintf("details for %s", item.(string)), nil
		},
		Parallel: true,
		Width:    2,
		PostFn: func(ctx context.Context, state *blackboard.Store, results []BatchItemResult[any]) (Action, error) {
			for i, r := range results {
				state.Set(blackboard.ModuleDetailKey(modules[i]), r.Value)
			}
			return ActionDefault, nil
		},
	}

	f := NewFlow("batch")
	if err := f.AddNode(node); err != nil {
		t.Fatalf("add node: %v", err)
	}
	f.SetStart(node.Name())
	if err := f.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	state := blackboard.New()
	r := NewSequentialRunner(testLogger())
	res, err := r.Run(context.Background(), f, state, "session-batch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}

	for _, m := range modules {
		got, ok := state.Get(blackboard.ModuleDetailKey(m))
		if !ok {
			t.Fatalf("expected module detail for %q", m)
		}
		want := fmt.Sprintf("details for %s", m)
		if got != want {
			t.Errorf("module %q: got %v, want %v", m, got, want)
		}
	}
}

func TestBatchNode_PartialItemFailureStillCompletesBatch(t *testing.T) {
	node := &BatchNode{
		BaseNode: BaseNode{NodeName: "batch"},
		PrepareFn: func(ctx context.Context, state *blackboard.Store) ([]any, error) {
			return []any{"ok", "bad", "ok"}, nil
		},
		ExecuteOne: func(ctx context.Context, item any) (any, error) {
			if item.(string) == "bad" {
				return nil, fmt.Errorf("item failed")
			}
			return item, nil
		},
		PostFn: func(ctx context.Context, state *blackboard.Store, results []BatchItemResult[any]) (Action, error) {
			failures := 0
			for _, r := range results {
				if r.Err != nil {
					failures++
				}
			}
			state.Set("failures", failures)
			return ActionDefault, nil
		},
	}

	f := NewFlow("batch")
	f.AddNode(node)
	f.SetStart(node.Name())
	if err := f.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	state := blackboard.New()
	r := NewSequentialRunner(testLogger())
	if _, err := r.Run(context.Background(), f, state, "session-batch-2"); err != nil {
		t.Fatalf("a non-fail-fast batch node must not fail the flow: %v", err)
	}
	if got, _ := state.Get("failures"); got != 1 {
		t.Fatalf("expected exactly 1 recorded item failure, got %v", got)
	}
}
