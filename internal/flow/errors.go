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

import "errors"

// Sentinel errors returned by the graph engine. Callers should use
// errors.Is to test for these rather than comparing strings.
var (
	ErrNilNode         = errors.New("flow: nil node")
	ErrDuplicateNode   = errors.New("flow: duplicate node name")
	ErrNodeNotFound    = errors.New("flow: node not found")
	ErrCycleDetected   = errors.New("flow: cycle detected in graph")
	ErrNoStartNode     = errors.New("flow: no start node configured")
	ErrNodeTimeout     = errors.New("flow: node execution timed out")
	ErrNodeExhausted   = errors.New("flow: node exhausted retries with no fallback")
	ErrFlowNotBuilt    = errors.New("flow: graph not built")
	ErrAlreadyRunning  = errors.New("flow: runner already running")
	ErrCheckpointStale = errors.New("flow: checkpoint version mismatch")
	ErrInvalidPrep     = errors.New("flow: prepare produced invalid input for execute")
)

// NodeError wraps an error with the name of the node that produced it.
// It implements Unwrap so callers can still errors.Is/As through it.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return "flow: node " + e.Node + ": " + e.Err.Error()
}

func (e *NodeError) Unwrap() error { return e.Err }

// FatalNodeError marks an error that must halt the entire flow (a failed
// Prepare phase, per the node lifecycle contract) rather than merely
// ending the branch that raised it. Recoverable errors from an exhausted
// Execute phase are plain *NodeError and only halt their own branch.
type FatalNodeError struct {
	*NodeError
}

// CycleError reports the path that closes a cycle in a flow graph.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	msg := "flow: cycle detected: "
	for i, n := range e.Path {
		if i > 0 {
			msg += " -> "
		}
		msg += n
	}
	return msg
}
