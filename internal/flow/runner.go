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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/pkg/logging"
)

var tracer = otel.Tracer("github.com/aleutian-labs/repowiki/internal/flow")

// Result summarizes a completed flow run.
type Result struct {
	SessionID     string
	Success       bool
	Duration      time.Duration
	NodesExecuted []string
	NodeDurations map[string]time.Duration
	FailedNode    string
	Err           error
}

// Runner drives a Flow to completion. Sequential, Async, and Parallel
// implementations share the exact node lifecycle logic in runOne; they
// differ only in how they schedule the nodes reached via a fan-out edge,
// which is the scheduling model selection design note's requirement that
// Sequential remain a refinement of Parallel.
type Runner interface {
	Run(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string) (*Result, error)
}

// baseRunner holds the logic every runner variant shares.
type baseRunner struct {
	logger *logging.Logger
}

// runOne executes a single node's full prepare/execute(with retry and
// timeout)/post lifecycle and returns the action label it produced.
func (r *baseRunner) runOne(ctx context.Context, f *Flow, state *blackboard.Store, sessionID string, node Node, tracked *sync.Map) (Action, error) {
	m := initMetrics()
	nodeLogger := r.logger.ForNode(sessionID, node.Name())

	ctx, span := tracer.Start(ctx, "flow.node."+node.Name(), trace.WithAttributes(
		attribute.String("flow.node", node.Name()),
		attribute.String("flow.session_id", sessionID),
	))
	defer span.End()

	m.activeNodes.Add(ctx, 1)
	defer m.activeNodes.Add(ctx, -1)

	start := time.Now()

	prep, err := node.Prepare(ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prepare failed")
		state.AppendError(blackboard.ErrorRecord{
			Stage: node.Name(), Kind: blackboard.KindFatal,
			Message: fmt.Sprintf("prepare: %v", err), Timestamp: time.Now(),
		})
		return "", &FatalNodeError{&NodeError{Node: node.Name(), Err: err}}
	}

	exec, execErr := r.executeWithRetry(ctx, node, prep, nodeLogger)
	dur := time.Since(start)
	m.nodeDuration.Record(ctx, dur.Seconds(), metric.WithAttributes(attribute.String("flow.node", node.Name())))
	if tracked != nil {
		tracked.Store(node.Name(), dur)
	}

	if execErr != nil {
		m.nodeFailure.Add(ctx, 1)
		span.RecordError(execErr)
		span.SetStatus(codes.Error, "execute exhausted retries")
		state.AppendError(blackboard.ErrorRecord{
			Stage: node.Name(), Kind: blackboard.KindRecoverable,
			Message: execErr.Error(), Timestamp: time.Now(),
			RetryCount: node.MaxRetries(), Recovered: false,
		})
		return ActionError, &NodeError{Node: node.Name(), Err: execErr}
	}
	m.nodeSuccess.Add(ctx, 1)

	action, err := node.Post(ctx, state, prep, exec)
	if err != nil {
		span.RecordError(err)
		return "", &NodeError{Node: node.Name(), Err: err}
	}
	return action, nil
}

// executeWithRetry retries Execute up to node.MaxRetries() times with
// linear backoff scaled by RetryWait, honoring node.Timeout() per attempt.
// When retries are exhausted it consults FallbackNode before giving up.
func (r *baseRunner) executeWithRetry(ctx context.Context, node Node, prep any, nodeLogger *logging.Logger) (any, error) {
	var lastErr error
	attempts := node.MaxRetries()
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		execCtx := ctx
		var cancel context.CancelFunc
		if timeout := node.Timeout(); timeout > 0 {
			execCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		result, err := node.Execute(execCtx, prep)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		if execCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w: %v", ErrNodeTimeout, err)
		}
		lastErr = err
		nodeLogger.Warn("execute attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err.Error())

		if attempt < attempts {
			wait := node.RetryWait() * time.Duration(attempt)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if fb, ok := node.(FallbackNode); ok {
		result, err := fb.Fallback(ctx, prep, lastErr)
		if err == nil {
			nodeLogger.Info("fallback recovered node after exhausting retries")
			return result, nil
		}
		return nil, fmt.Errorf("%w: fallback also failed: %v", ErrNodeExhausted, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrNodeExhausted, lastErr)
}
