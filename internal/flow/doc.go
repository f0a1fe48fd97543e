// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package flow implements the wiki generation pipeline's graph engine: a
// small set of nodes, each with a Prepare/Execute/Post lifecycle, wired
// into a Flow by action-labeled edges and driven to completion by one of
// three interchangeable Runner implementations.
//
// Every node goes through the same three phases regardless of which
// Runner drives it:
//
//   - Prepare reads whatever the node needs from the shared blackboard
//     Store and returns it as an opaque prep value. A Prepare error is
//     fatal and halts the whole flow.
//   - Execute does the node's actual work (an LLM call, a git command, a
//     parse pass) using only the prep value, so it never touches the
//     Store directly and can be retried without side effects leaking
//     between attempts. Retries use linear backoff and, if every attempt
//     fails, fall back to Fallback when the node implements it.
//   - Post writes results back into the Store and returns an Action that
//     selects which edge to follow next.
//
// # Schedulers
//
// SequentialRunner, AsyncRunner, and ParallelRunner share this lifecycle
// logic entirely; they differ only in how a fan-out edge's branches are
// dispatched. SequentialRunner is the reference implementation: swapping
// in ParallelRunner must never change a flow's final blackboard contents,
// only its wall-clock time.
//
// # Example
//
//	f := flow.NewFlow("generate-wiki")
//	f.AddNode(prepareRepo)
//	f.AddNode(analyzeHistory)
//	f.AddNode(writeReport)
//	f.SetStart(prepareRepo.Name())
//	f.Then(prepareRepo, analyzeHistory)
//	f.Then(analyzeHistory, writeReport)
//	if err := f.Build(); err != nil {
//		return err
//	}
//
//	runner := flow.NewParallelRunner(logger, flow.DefaultMaxWorkers)
//	result, err := runner.Run(ctx, f, blackboard.New(), sessionID)
package flow
