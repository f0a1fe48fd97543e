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

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(ProviderConfig{}, nil)
	require.ErrorIs(t, err, ErrAuth)
}

func TestOpenAIProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "hi there"}},
			},
		})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	text, err := provider.Generate(context.Background(), "gpt-4o-mini", "say hi", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestOpenAIProvider_Generate_EmptyChoicesIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), "gpt-4o-mini", "say hi", GenerationParams{})
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindInvalid, ce.Kind)
}
