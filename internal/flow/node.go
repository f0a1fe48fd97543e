// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package flow implements the dataflow graph engine that orchestrates the
// documentation pipeline: nodes with a prepare/execute/post lifecycle,
// action-labeled transitions between them, and three interchangeable
// scheduling strategies (sequential, cooperative-async, parallel) over the
// same node graph.
package flow

import (
	"context"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
)

// Action is the string label a node's Post phase returns to select the next
// edge. ActionDefault is used by nodes with a single successor.
type Action string

const (
	// ActionDefault selects a node's sole outgoing edge.
	ActionDefault Action = "default"
	// ActionError routes to a recovery node after a node exhausts retries
	// with no fallback result.
	ActionError Action = "error"
)

// Node is the unit of work in the graph engine. Every node executes three
// phases in order: Prepare pulls and validates inputs from the blackboard,
// Execute performs the actual work (all external I/O happens here and it
// must be safe to call more than once for retries), and Post writes results
// back to the blackboard and returns the action label for the next edge.
type Node interface {
	// Name returns the node's unique identifier within its flow.
	Name() string

	// Prepare reads from state and returns an opaque work descriptor for
	// Execute. Failures are fatal unless the node overrides fallback
	// behavior at the flow level.
	Prepare(ctx context.Context, state *blackboard.Store) (any, error)

	// Execute performs the node's work using only the prep value. It must
	// not read the blackboard directly, so that retries observe frozen
	// inputs and parallel workers never race on reads.
	Execute(ctx context.Context, prep any) (any, error)

	// Post writes exec's result into state and returns the action label
	// selecting the next edge. Under ParallelRunner the Post calls of
	// different fan-out branches may run at the same time; the Store's
	// lock keeps those writes safe.
	Post(ctx context.Context, state *blackboard.Store, prep, exec any) (Action, error)

	// MaxRetries returns how many times Execute may be attempted,
	// including the first attempt. A value <= 1 means no retry.
	MaxRetries() int

	// RetryWait returns the base backoff between retries.
	RetryWait() time.Duration

	// Timeout bounds a single Execute call. Zero means no timeout.
	Timeout() time.Duration
}

// FallbackNode is implemented by nodes that want to supply a result instead
// of failing once retries are exhausted. The default behavior (a node that
// does not implement this interface) is to record the error and return
// ActionError.
type FallbackNode interface {
	Fallback(ctx context.Context, prep any, cause error) (any, error)
}

// BaseNode provides the bookkeeping fields (name, retry policy, timeout)
// that concrete node types embed. Prepare and Post have permissive
// defaults so a minimal node only needs to implement Execute; override
// Prepare/Post on the embedding type when the node needs to touch state.
type BaseNode struct {
	NodeName    string
	Retries     int
	Wait        time.Duration
	NodeTimeout time.Duration
}

// DefaultNodeTimeout bounds a node's Execute call when none is configured.
const DefaultNodeTimeout = 60 * time.Second

func (b *BaseNode) Name() string { return b.NodeName }

// MaxRetries returns the configured retry count, defaulting to 1 (no
// retry) when unset, matching the "default 1" policy from the node
// lifecycle contract.
func (b *BaseNode) MaxRetries() int {
	if b.Retries <= 0 {
		return 1
	}
	return b.Retries
}

func (b *BaseNode) RetryWait() time.Duration { return b.Wait }

func (b *BaseNode) Timeout() time.Duration {
	if b.NodeTimeout <= 0 {
		return DefaultNodeTimeout
	}
	return b.NodeTimeout
}

// Prepare is a no-op default: the prep value is nil and the node's Execute
// is expected to source everything it needs from the exec input itself, or
// the embedding type overrides Prepare.
func (b *BaseNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	return nil, nil
}

// Post is a pass-through default that writes nothing and always selects
// the default edge.
func (b *BaseNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (Action, error) {
	return ActionDefault, nil
}
