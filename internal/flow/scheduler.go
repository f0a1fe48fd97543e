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
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/pkg/logging"
)

func isFatal(err error, target **FatalNodeError) bool {
	return errors.As(err, target)
}

// SequentialRunner executes exactly one node at a time, following edges in
// declaration order. It is the reference implementation for correctness:
// every other runner must produce identical final_documents when the LLM
// is stubbed.
type SequentialRunner struct {
	baseRunner
}

// NewSequentialRunner creates a Sequential scheduler.
func NewSequentialRunner(logger *logging.Logger) *SequentialRunner {
	return &SequentialRunner{baseRunner{logger: logger}}
}

func (r *SequentialRunner) Run(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string) (*Result, error) {
	return runGraph(ctx, r, f, state, sessionID)
}

// runBranches on the sequential scheduler simply visits each branch one
// after another, reusing walk for each so nested fan-outs still resolve.
func (r *SequentialRunner) runBranches(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string, branches []string, tracked *sync.Map, executed *[]string) error {
	for _, b := range branches {
		if err := walk(ctx, &r.baseRunner, f, state, sessionID, b, tracked, executed, r.runBranches); err != nil {
			return err
		}
	}
	return nil
}

// AsyncRunner is the cooperative-async scheduler: a single logical thread
// of control that still executes nodes one at a time (matching the
// ordering guarantee that nodes run in edge order) but invokes each node
// through a goroutine so Execute may internally await LLM/Git/disk I/O
// without blocking a dedicated OS thread. Batch items within a node may
// still complete out of submission order; BatchNode result assembly
// preserves input order regardless.
type AsyncRunner struct {
	baseRunner
}

func NewAsyncRunner(logger *logging.Logger) *AsyncRunner {
	return &AsyncRunner{baseRunner{logger: logger}}
}

func (r *AsyncRunner) Run(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string) (*Result, error) {
	return runGraph(ctx, r, f, state, sessionID)
}

func (r *AsyncRunner) runBranches(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string, branches []string, tracked *sync.Map, executed *[]string) error {
	for _, b := range branches {
		done := make(chan error, 1)
		go func(name string) {
			done <- walk(ctx, &r.baseRunner, f, state, sessionID, name, tracked, executed, r.runBranches)
		}(b)
		select {
		case err := <-done:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ParallelRunner is the bounded worker pool scheduler: nodes reached by a
// fan-out edge run concurrently, capped at MaxWorkers, so the six section
// generators (and the ModuleDetails batch) genuinely overlap in
// wall-clock time instead of the async runner's cooperative interleaving.
type ParallelRunner struct {
	baseRunner
	MaxWorkers int
}

// DefaultMaxWorkers matches the concurrency model's default worker pool
// size.
const DefaultMaxWorkers = 8

func NewParallelRunner(logger *logging.Logger, maxWorkers int) *ParallelRunner {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &ParallelRunner{baseRunner: baseRunner{logger: logger}, MaxWorkers: maxWorkers}
}

func (r *ParallelRunner) Run(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string) (*Result, error) {
	return runGraph(ctx, r, f, state, sessionID)
}

func (r *ParallelRunner) runBranches(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string, branches []string, tracked *sync.Map, executed *[]string) error {
	if len(branches) <= 1 {
		for _, b := range branches {
			if err := walk(ctx, &r.baseRunner, f, state, sessionID, b, tracked, executed, r.runBranches); err != nil {
				return err
			}
		}
		return nil
	}

	sem := semaphore.NewWeighted(int64(r.MaxWorkers))
	var wg sync.WaitGroup
	errs := make(chan error, len(branches))
	var mu sync.Mutex // protects *executed, which walk appends to

	for _, b := range branches {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer sem.Release(1)

			var localExecuted []string
			err := walk(ctx, &r.baseRunner, f, state, sessionID, name, tracked, &localExecuted, r.runBranches)

			mu.Lock()
			*executed = append(*executed, localExecuted...)
			mu.Unlock()

			if err != nil {
				errs <- err
			}
		}(b)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// branchRunner is implemented by each scheduler's runBranches method so
// walk can recurse through nested fan-outs without knowing which
// scheduling policy is active.
type branchRunner func(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string, branches []string, tracked *sync.Map, executed *[]string) error

// walk executes node "name" and, based on the action it returns, either
// stops (no matching edge), continues to a single successor, or dispatches
// a fan-out to runBranches.
func walk(ctx context.Context, r *baseRunner, f *Flow, state *blackboard.Store, sessionID, name string, tracked *sync.Map, executed *[]string, runBranches branchRunner) error {
	node, ok := f.node(name)
	if !ok {
		return ErrNodeNotFound
	}

	action, err := r.runOne(ctx, f, state, sessionID, node, tracked)
	*executed = append(*executed, name)
	if err != nil {
		// The node already recorded an ErrorRecord. If it declared an
		// ActionError edge to a recovery node, follow it. Otherwise: a
		// fatal error (failed Prepare) halts the whole flow; a recoverable
		// one (exhausted Execute) only ends this branch, letting sibling
		// branches from an enclosing fan-out still finish.
		if targets := f.targets(name, ActionError); len(targets) > 0 {
			return runBranches(ctx, f, state, sessionID, targets, tracked, executed)
		}
		var fatal *FatalNodeError
		if isFatal(err, &fatal) {
			return err
		}
		return nil
	}

	targets := f.targets(name, action)
	if len(targets) == 0 {
		return nil
	}
	return runBranches(ctx, f, state, sessionID, targets, tracked, executed)
}

// runGraph contains the scaffolding shared by every runner: start the
// flow-level span/timer, walk from the start node, and build the Result.
func runGraph(ctx context.Context, r Runner, f *Flow, state *blackboard.Store, sessionID string) (*Result, error) {
	start := time.Now()
	tracked := &sync.Map{}
	var executed []string

	var err error
	switch typed := r.(type) {
	case *SequentialRunner:
		err = walk(ctx, &typed.baseRunner, f, state, sessionID, f.start, tracked, &executed, typed.runBranches)
	case *AsyncRunner:
		err = walk(ctx, &typed.baseRunner, f, state, sessionID, f.start, tracked, &executed, typed.runBranches)
	case *ParallelRunner:
		err = walk(ctx, &typed.baseRunner, f, state, sessionID, f.start, tracked, &executed, typed.runBranches)
	}

	durations := make(map[string]time.Duration)
	tracked.Range(func(k, v any) bool {
		durations[k.(string)] = v.(time.Duration)
		return true
	})

	m := initMetrics()
	m.flowDuration.Record(ctx, time.Since(start).Seconds())

	res := &Result{
		SessionID:     sessionID,
		Success:       err == nil,
		Duration:      time.Since(start),
		NodesExecuted: executed,
		NodeDurations: durations,
	}
	if err != nil {
		res.Err = err
		if nerr, ok := err.(*NodeError); ok {
			res.FailedNode = nerr.Node
		}
	}
	return res, err
}
