// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package blackboard

import "time"

// ErrorKind classifies an ErrorRecord for the propagation policy described
// in the error handling design: Fatal halts the flow, Recoverable is
// retried/regenerated within the node that raised it, Warning is logged
// only.
type ErrorKind string

const (
	KindFatal       ErrorKind = "fatal"
	KindRecoverable ErrorKind = "recoverable"
	KindWarning     ErrorKind = "warning"
)

// ErrorRecord is appended to KeyProcessErrors by any node that hits a
// problem worth surfacing in the final report, whether or not it recovers.
type ErrorRecord struct {
	Stage      string    `json:"stage"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
	Recovered  bool      `json:"recovered"`
}

// AppendError appends record to the process_status.errors list, creating
// it if absent. This is the only place in the codebase that mutates that
// key, keeping the accumulation logic in one spot for every node to share.
func (s *Store) AppendError(record ErrorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, _ := s.data[KeyProcessErrors].([]ErrorRecord)
	s.data[KeyProcessErrors] = append(existing, record)
}

// Errors returns a copy of the accumulated error records.
func (s *Store) Errors() []ErrorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing, _ := s.data[KeyProcessErrors].([]ErrorRecord)
	out := make([]ErrorRecord, len(existing))
	copy(out, existing)
	return out
}
