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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPrompt_IsStableAndSensitiveToInputs(t *testing.T) {
	base := HashPrompt("openai", "gpt-4o", "describe this repo", map[string]any{"temperature": 0.2})
	same := HashPrompt("openai", "gpt-4o", "describe this repo", map[string]any{"temperature": 0.2})
	assert.Equal(t, base, same, "identical inputs must hash identically")

	diffPrompt := HashPrompt("openai", "gpt-4o", "describe this repo differently", map[string]any{"temperature": 0.2})
	assert.NotEqual(t, base, diffPrompt)

	diffModel := HashPrompt("openai", "gpt-4.1", "describe this repo", map[string]any{"temperature": 0.2})
	assert.NotEqual(t, base, diffModel)

	diffParams := HashPrompt("openai", "gpt-4o", "describe this repo", map[string]any{"temperature": 0.9})
	assert.NotEqual(t, base, diffParams)
}

func TestContentCache_PutThenGet(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	c := NewContentCache(db, time.Minute)
	ctx := context.Background()
	hash := HashPrompt("anthropic", "claude-sonnet", "summarize architecture", nil)

	_, ok, err := c.Get(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok, "expected a miss before Put")

	require.NoError(t, c.Put(ctx, hash, ContentEntry{
		Text:     "this repo is a wiki generator",
		Provider: "anthropic",
		Model:    "claude-sonnet",
	}))

	entry, ok, err := c.Get(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "this repo is a wiki generator", entry.Text)
	assert.Equal(t, hash, entry.PromptHash)
	assert.False(t, entry.StoredAt.IsZero())
}

func TestContentCache_RespectsTTL(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	c := NewContentCache(db, 20*time.Millisecond)
	ctx := context.Background()
	hash := HashPrompt("openai", "gpt-4o", "prompt", nil)

	require.NoError(t, c.Put(ctx, hash, ContentEntry{Text: "cached"}))
	time.Sleep(100 * time.Millisecond)

	_, ok, err := c.Get(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok, "expected the entry to expire after its TTL")
}
