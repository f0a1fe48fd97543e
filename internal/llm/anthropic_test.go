// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(ProviderConfig{}, nil)
	require.ErrorIs(t, err, ErrAuth)
}

func TestAnthropicProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4", req.Model)

		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{{Type: "text", Text: "hello"}},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	text, err := provider.Generate(context.Background(), "claude-sonnet-4", "say hi", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestAnthropicProvider_Generate_RateLimitedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error"}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), "claude-sonnet-4", "say hi", GenerationParams{})
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindRateLimit, ce.Kind)
}

func TestAnthropicProvider_Generate_EmbeddedErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Error: &anthropicError{Type: "overloaded_error", Message: "try again later"},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), "claude-sonnet-4", "say hi", GenerationParams{})
	require.Error(t, err)
}
