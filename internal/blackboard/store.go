// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package blackboard implements the shared state store through which
// pipeline nodes exchange artifacts: a single mutable, namespaced mapping
// passed by reference through every node in a flow run.
//
// The store is scoped to one pipeline run: the caller creates it once and
// passes it to every flow the run executes. Nothing here persists across
// runs; durable
// caching (LLM responses, cloned repositories) lives in internal/cache and
// internal/repoanalysis instead.
package blackboard

import (
	"fmt"
	"sync"
)

// Store is the blackboard. It is safe for concurrent use: reads take a
// shared lock and return the stored value, which the caller must treat as
// read-only; writes take an exclusive lock. In the graph engine only a
// node's Post phase writes, but Post calls of parallel fan-out branches
// can overlap, so the lock is what keeps concurrent writes from
// corrupting the map.
type Store struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates an empty blackboard.
func New() *Store {
	return &Store{data: make(map[string]any)}
}

// Set writes a value under key. Intended to be called only from a node's
// Post phase.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Get returns the raw value stored under key and whether it was present.
// Callers that hand the result to a parallel worker must not mutate a
// returned slice or map in place: Get returns the stored value itself,
// not a copy.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// MustGet returns the value under key or panics. Reserved for node code
// that has already validated the key exists in Prepare and wants to avoid
// repeating an ok-check in Execute.
func (s *Store) MustGet(key string) any {
	v, ok := s.Get(key)
	if !ok {
		panic(fmt.Sprintf("blackboard: required key %q missing", key))
	}
	return v
}

// GetString returns the string stored under key, or "" if absent or of a
// different type.
func (s *Store) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// GetStringOr returns the string under key, or fallback if absent.
func (s *Store) GetStringOr(key, fallback string) string {
	if v, ok := s.Get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Keys returns a snapshot of all keys currently set.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// CopyOf returns a shallow copy of the slice stored under key, decoded via
// the supplied decode function. This is the mechanism nodes use to hand a
// consistent, independently-mutable view of a shared slice to a parallel
// worker without holding the store's lock for the worker's lifetime:
//
//	files := blackboard.CopyOf(store, "code_structure", func(v any) []FileEntry {
//	    return v.([]FileEntry)
//	})
func CopyOf[T any](s *Store, key string, decode func(any) []T) []T {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	src := decode(v)
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}

// Snapshot returns a shallow copy of the entire blackboard, used when
// writing a checkpoint or a debug dump. Values themselves are not deep
// copied; treat nested slices/maps as read-only.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Restore replaces the store's contents with snapshot, used when resuming
// from a checkpoint.
func (s *Store) Restore(snapshot map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		s.data[k] = v
	}
}
