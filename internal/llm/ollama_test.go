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

func TestOllamaProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "hi there", Done: true})
	}))
	defer server.Close()

	provider := NewOllamaProvider(ProviderConfig{BaseURL: server.URL}, nil)
	text, err := provider.Generate(context.Background(), "llama3", "say hi", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestOllamaProvider_Generate_ServerErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	provider := NewOllamaProvider(ProviderConfig{BaseURL: server.URL}, nil)
	_, err := provider.Generate(context.Background(), "llama3", "say hi", GenerationParams{})
	require.Error(t, err)

	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindProviderDown, ce.Kind)
}

func TestOllamaProvider_Generate_EmptyResponseIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "", Done: true})
	}))
	defer server.Close()

	provider := NewOllamaProvider(ProviderConfig{BaseURL: server.URL}, nil)
	_, err := provider.Generate(context.Background(), "llama3", "say hi", GenerationParams{})

	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindInvalid, ce.Kind)
}
