// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDegradationMode_String(t *testing.T) {
	tests := []struct {
		mode     DegradationMode
		expected string
	}{
		{ModeNormal, "normal"},
		{ModeDegraded, "degraded"},
		{ModeDisabled, "disabled"},
		{DegradationMode(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.mode.String())
	}
}

func TestBaseDegradationHandler_StartsNormal(t *testing.T) {
	h := NewBaseDegradationHandler("test", nil)
	assert.True(t, h.IsNormal())
	assert.False(t, h.IsDegraded())
	assert.False(t, h.IsDisabled())
}

func TestBaseDegradationHandler_OnDegradedThenOnRecovered(t *testing.T) {
	h := NewBaseDegradationHandler("test", nil)
	h.OnDegraded("weaviate unreachable")
	assert.True(t, h.IsDegraded())

	h.OnRecovered()
	assert.True(t, h.IsNormal())
}

func TestBaseDegradationHandler_OnDegradedReplacesDisabled(t *testing.T) {
	h := NewBaseDegradationHandler("test", nil)
	h.SetDisabled()
	assert.True(t, h.IsDisabled())

	h.OnDegraded("still unreachable")
	assert.True(t, h.IsDegraded())
	assert.False(t, h.IsDisabled())
}

func TestRAGDegradation_ShouldSkipEmbeddingReflectsMode(t *testing.T) {
	h := NewRAGDegradation(nil)
	assert.False(t, h.ShouldSkipEmbedding())

	h.OnDegraded("circuit open")
	assert.True(t, h.ShouldSkipEmbedding())

	h.OnRecovered()
	assert.False(t, h.ShouldSkipEmbedding())
}

func TestClient_RegisterHandlerNotifiesInitialDegradedState(t *testing.T) {
	c := &Client{}
	c.state.Store(int32(StateDegraded))

	h := NewRAGDegradation(nil)
	c.RegisterHandler(h)

	assert.True(t, h.IsDegraded())
}
