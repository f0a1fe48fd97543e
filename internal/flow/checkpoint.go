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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
)

// CheckpointVersion is the current checkpoint format version.
const CheckpointVersion = "1.0.0"

// Checkpoint captures enough of a flow run to resume it: the blackboard
// snapshot, which nodes had already completed, and the name of the flow
// that was executing so a mismatched resume attempt is rejected early.
type Checkpoint struct {
	FlowName  string         `json:"flow_name"`
	SessionID string         `json:"session_id"`
	Snapshot  map[string]any `json:"snapshot"`
	Executed  []string       `json:"executed"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Checksum  string         `json:"checksum"`
}

func computeCheckpointChecksum(flowName, sessionID string, snapshot map[string]any, executed []string, timestamp time.Time) (string, error) {
	data := struct {
		FlowName  string         `json:"flow_name"`
		SessionID string         `json:"session_id"`
		Snapshot  map[string]any `json:"snapshot"`
		Executed  []string       `json:"executed"`
		Timestamp time.Time      `json:"timestamp"`
		Version   string         `json:"version"`
	}{flowName, sessionID, snapshot, executed, timestamp, CheckpointVersion}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint for checksum: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// SaveCheckpoint snapshots state and the list of nodes executed so far and
// writes it to path atomically (temp file + rename), so a crash mid-write
// never leaves a truncated checkpoint on disk.
func SaveCheckpoint(f *Flow, state *blackboard.Store, sessionID string, executed []string, path string) error {
	if f == nil || state == nil {
		return fmt.Errorf("flow: checkpoint requires a flow and a state store")
	}
	snapshot := state.Snapshot()
	timestamp := time.Now()

	checksum, err := computeCheckpointChecksum(f.Name(), sessionID, snapshot, executed, timestamp)
	if err != nil {
		return err
	}

	cp := &Checkpoint{
		FlowName:  f.Name(),
		SessionID: sessionID,
		Snapshot:  snapshot,
		Executed:  executed,
		Timestamp: timestamp,
		Version:   CheckpointVersion,
		Checksum:  checksum,
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint file: %w", err)
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}
	ok = true
	return nil
}

// LoadCheckpoint reads and verifies a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrCheckpointStale, cp.Version, CheckpointVersion)
	}
	expected, err := computeCheckpointChecksum(cp.FlowName, cp.SessionID, cp.Snapshot, cp.Executed, cp.Timestamp)
	if err != nil {
		return nil, err
	}
	if expected != cp.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCheckpointStale)
	}
	return &cp, nil
}

// Resume restores state from a checkpoint and re-runs f with r, starting
// from the flow's declared start node. Nodes recorded as already executed
// are not re-entered defensively by this layer: a resumed run trusts the
// checkpoint's snapshot to already reflect their Post-phase writes, and
// re-walks the graph from f.start so join/fan-out bookkeeping stays
// consistent with a fresh run.
func Resume(ctx context.Context, r Runner, f *Flow, cp *Checkpoint) (*blackboard.Store, *Result, error) {
	if cp.FlowName != f.Name() {
		return nil, nil, fmt.Errorf("flow: checkpoint is for flow %q, but got flow %q", cp.FlowName, f.Name())
	}
	state := blackboard.New()
	state.Restore(cp.Snapshot)
	res, err := r.Run(ctx, f, state, cp.SessionID)
	return state, res, err
}
