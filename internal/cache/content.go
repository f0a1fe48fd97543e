// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ContentEntry is what the LLM call layer stores per cache hit: the
// generated text plus enough provenance to explain a cache hit in the
// final report's token_usage section.
type ContentEntry struct {
	Text       string    `json:"text"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	StoredAt   time.Time `json:"stored_at"`
	PromptHash string    `json:"prompt_hash"`
}

// ContentCache is a content-hash-keyed cache over a DB: the same prompt,
// model, and parameters always land on the same key, so repeated runs
// against an unchanged repository skip the LLM call entirely.
type ContentCache struct {
	db  *DB
	ttl time.Duration
}

// DefaultContentTTL matches a typical wiki generation cadence: long
// enough that a re-run minutes later is fully cached, short enough that
// a cache from weeks ago doesn't silently outlive a model upgrade.
const DefaultContentTTL = 7 * 24 * time.Hour

// NewContentCache wraps db for content-hash caching with ttl (0 uses
// DefaultContentTTL).
func NewContentCache(db *DB, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{db: db, ttl: ttl}
}

// HashPrompt derives a stable cache key from everything that affects the
// LLM's output: the provider/model string, the fully assembled prompt
// text, and any sampling parameters that change the response.
func HashPrompt(provider, model, prompt string, params map[string]any) string {
	h := sha256.New()
	fmt.Fprintf(h, "provider:%s\nmodel:%s\n", provider, model)
	if len(params) > 0 {
		// encoding/json marshals map[string]any keys in sorted order, so
		// this is stable across calls regardless of map iteration order.
		if raw, err := json.Marshal(params); err == nil {
			h.Write(raw)
		}
	}
	h.Write([]byte("\n---\n"))
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a previously cached generation for hash, if present and
// not expired.
func (c *ContentCache) Get(ctx context.Context, hash string) (*ContentEntry, bool, error) {
	raw, ok, err := c.db.Get(ctx, []byte("llm:"+hash))
	if err != nil || !ok {
		return nil, false, err
	}
	var entry ContentEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("cache: decode content entry: %w", err)
	}
	return &entry, true, nil
}

// Put stores a generation under hash with the cache's configured TTL.
func (c *ContentCache) Put(ctx context.Context, hash string, entry ContentEntry) error {
	entry.PromptHash = hash
	entry.StoredAt = time.Now()
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode content entry: %w", err)
	}
	return c.db.Set(ctx, []byte("llm:"+hash), raw, c.ttl)
}
