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

	"github.com/aleutian-labs/repowiki/internal/blackboard"
)

// BatchNode adapts RunBatch to the Node interface: Prepare must return a
// []any, and Execute invokes ExecuteOne once per item, honoring Parallel,
// Width, and FailFast. Post receives the resulting []BatchItemResult[any]
// as exec and decides what to write back and which action to take, so a
// concrete pipeline stage can compose a BatchNode with its own
// PrepareFn/PostFn rather than reimplementing the fan-out.
type BatchNode struct {
	BaseNode

	// ExecuteOne processes a single item. It must not touch the blackboard.
	ExecuteOne func(ctx context.Context, item any) (any, error)

	// PrepareFn produces the item list; defaults to BaseNode's Prepare
	// (nil) if unset, which would make Execute a no-op batch.
	PrepareFn func(ctx context.Context, state *blackboard.Store) ([]any, error)

	// PostFn receives the per-item results and writes them into state,
	// returning the next action. If unset, Post records nothing and
	// always selects ActionDefault.
	PostFn func(ctx context.Context, state *blackboard.Store, results []BatchItemResult[any]) (Action, error)

	// Parallel selects the parallel batch form (bounded by Width,
	// DefaultBatchWidth when Width <= 0). False runs items sequentially.
	Parallel bool
	Width    int

	// FailFast aborts the remaining items after the first item error and
	// surfaces that error from Execute instead of collecting a partial
	// result set.
	FailFast bool
}

func (n *BatchNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	if n.PrepareFn == nil {
		return []any{}, nil
	}
	return n.PrepareFn(ctx, state)
}

func (n *BatchNode) Execute(ctx context.Context, prep any) (any, error) {
	items, _ := prep.([]any)
	return RunBatch(ctx, items, n.Parallel, n.Width, n.FailFast, n.ExecuteOne)
}

func (n *BatchNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (Action, error) {
	results, _ := exec.([]BatchItemResult[any])
	if n.PostFn == nil {
		return ActionDefault, nil
	}
	return n.PostFn(ctx, state, results)
}
