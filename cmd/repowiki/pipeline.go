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

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/flow"
)

// noopNode is a zero-work Node used purely as a fan-out/fan-in anchor:
// internal/flow.Flow.FanOut needs a "from" node to hang its branches off
// and a "join" node for every branch to converge on, but the four
// AnalyzeRepo sub-stages and the seven GenerateContent stages have no
// data dependency on one another, only a shared predecessor stage.
type noopNode struct {
	flow.BaseNode
}

func newNoopNode(name string) *noopNode {
	return &noopNode{BaseNode: flow.BaseNode{NodeName: name}}
}

func (n *noopNode) Execute(ctx context.Context, prep any) (any, error) {
	return nil, nil
}

// fanOutFlow builds a single Flow that runs every node in branches
// concurrently between a start and join anchor, per the
// Input->PrepareRepo->AnalyzeRepo(parallel)->GenerateContent(parallel)
// shape spec.md §2 describes. name identifies the flow for logging.
func fanOutFlow(name string, branches []flow.Node) (*flow.Flow, error) {
	f := flow.NewFlow(name)
	start := newNoopNode(name + "Start")
	join := newNoopNode(name + "Join")

	if err := f.AddNode(start); err != nil {
		return nil, err
	}
	for _, n := range branches {
		if err := f.AddNode(n); err != nil {
			return nil, fmt.Errorf("pipeline: add node %s: %w", n.Name(), err)
		}
	}
	if err := f.AddNode(join); err != nil {
		return nil, err
	}

	f.SetStart(start.Name())
	f.FanOut(start, flow.ActionDefault, branches, join)

	if err := f.Build(); err != nil {
		return nil, fmt.Errorf("pipeline: build %s: %w", name, err)
	}
	return f, nil
}

// singleNodeFlow wraps one node in its own Flow, for stages that have no
// concurrent siblings (PrepareRepo, MermaidValidation).
func singleNodeFlow(name string, node flow.Node) (*flow.Flow, error) {
	f := flow.NewFlow(name)
	if err := f.AddNode(node); err != nil {
		return nil, err
	}
	f.SetStart(node.Name())
	if err := f.Build(); err != nil {
		return nil, fmt.Errorf("pipeline: build %s: %w", name, err)
	}
	return f, nil
}

// chainFlow builds a Flow that runs nodes in strict sequence, one after
// another via ActionDefault edges, for stages whose ordering matters
// (Combine must run before Format).
func chainFlow(name string, nodes []flow.Node) (*flow.Flow, error) {
	f := flow.NewFlow(name)
	for _, n := range nodes {
		if err := f.AddNode(n); err != nil {
			return nil, fmt.Errorf("pipeline: add node %s: %w", n.Name(), err)
		}
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("pipeline: %s has no nodes", name)
	}
	f.SetStart(nodes[0].Name())
	for i := 0; i < len(nodes)-1; i++ {
		f.Then(nodes[i], nodes[i+1])
	}
	if err := f.Build(); err != nil {
		return nil, fmt.Errorf("pipeline: build %s: %w", name, err)
	}
	return f, nil
}

// runStage runs f to completion and returns the runner's error, or the
// failed node's error when the runner reports a failed node, wrapped
// with the stage name. It writes nothing to the blackboard; recording
// the fatal error is left to the caller (see fatalStage).
func runStage(ctx context.Context, runner flow.Runner, f *flow.Flow, state *blackboard.Store, sessionID string) (*flow.Result, error) {
	res, err := runner.Run(ctx, f, state, sessionID)
	if err != nil {
		return res, fmt.Errorf("pipeline: stage %s: %w", f.Name(), err)
	}
	if res != nil && !res.Success {
		return res, fmt.Errorf("pipeline: stage %s failed at node %s: %w", f.Name(), res.FailedNode, res.Err)
	}
	return res, nil
}
