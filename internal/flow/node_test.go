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
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
)

// testNode is the shared fixture used by flow_test.go, scheduler_test.go,
// and checkpoint_test.go: a node whose behavior is configured via its
// fields rather than via subtyping, following the retrieved dag package's
// TestNode convention.
type testNode struct {
	BaseNode

	mu        sync.Mutex
	execCount int

	prepareErr func(attempt int) error
	executeErr func(attempt int) error
	postAction Action
	postErr    error
	fallback   func(cause error) (any, error)
	writeKey   string
	writeValue any
	delay      time.Duration
}

func newTestNode(name string) *testNode {
	return &testNode{
		BaseNode:   BaseNode{NodeName: name, Retries: 1, NodeTimeout: time.Second},
		postAction: ActionDefault,
	}
}

func (n *testNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	if n.prepareErr != nil {
		if err := n.prepareErr(0); err != nil {
			return nil, err
		}
	}
	return "prep", nil
}

func (n *testNode) Execute(ctx context.Context, prep any) (any, error) {
	n.mu.Lock()
	n.execCount++
	attempt := n.execCount
	n.mu.Unlock()

	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n.executeErr != nil {
		if err := n.executeErr(attempt); err != nil {
			return nil, err
		}
	}
	return "exec", nil
}

func (n *testNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (Action, error) {
	if n.writeKey != "" {
		state.Set(n.writeKey, n.writeValue)
	}
	if n.postErr != nil {
		return "", n.postErr
	}
	return n.postAction, nil
}

func (n *testNode) Fallback(ctx context.Context, prep any, cause error) (any, error) {
	if n.fallback != nil {
		return n.fallback(cause)
	}
	return nil, cause
}

func (n *testNode) ExecCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.execCount
}
