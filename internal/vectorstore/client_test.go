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
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientConfig_Validate(t *testing.T) {
	cfg := ClientConfig{}
	err := cfg.validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestConnectionState_String(t *testing.T) {
	tests := []struct {
		state    ConnectionState
		expected string
	}{
		{StateConnected, "connected"},
		{StateDegraded, "degraded"},
		{StateCircuitOpen, "circuit_open"},
		{StateHalfOpen, "half_open"},
		{ConnectionState(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestNewClient_AllowStartDegraded(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.URL = "http://localhost:9999"
	cfg.AllowStartDegraded = true
	cfg.HealthCheckTimeout = 100 * time.Millisecond

	client, err := NewClient(cfg)
	if err == nil {
		defer client.Close()
		assert.True(t, client.IsDegraded())
		assert.False(t, client.IsAvailable())
	} else {
		t.Logf("client creation failed (acceptable without a reachable weaviate): %v", err)
	}
}

func TestNewClient_StrictModeFailsWithoutWeaviate(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.URL = "http://localhost:9999"
	cfg.AllowStartDegraded = false
	cfg.HealthCheckTimeout = 100 * time.Millisecond

	_, err := NewClient(cfg)
	assert.Error(t, err)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	c := &Client{
		config:   ClientConfig{CircuitThreshold: 3, CircuitWindow: 30 * time.Second, CircuitCooldown: time.Second},
		failures: make([]time.Time, 3),
		logger:   slog.Default(),
	}
	c.state.Store(int32(StateConnected))
	for i := 0; i < 3; i++ {
		c.recordFailure()
	}
	assert.Equal(t, StateCircuitOpen, c.GetState())
}

func TestCircuitBreaker_DoesNotOpenBelowThreshold(t *testing.T) {
	c := &Client{
		config:   ClientConfig{CircuitThreshold: 5, CircuitWindow: 30 * time.Second},
		failures: make([]time.Time, 5),
		logger:   slog.Default(),
	}
	c.state.Store(int32(StateConnected))
	for i := 0; i < 3; i++ {
		c.recordFailure()
	}
	assert.NotEqual(t, StateCircuitOpen, c.GetState())
}

func TestCircuitBreaker_SlidingWindowDropsOldFailures(t *testing.T) {
	c := &Client{
		config:   ClientConfig{CircuitThreshold: 3, CircuitWindow: 100 * time.Millisecond},
		failures: make([]time.Time, 3),
		logger:   slog.Default(),
	}
	c.state.Store(int32(StateConnected))
	c.recordFailure()
	time.Sleep(150 * time.Millisecond)
	c.recordFailure()
	c.recordFailure()
	assert.NotEqual(t, StateCircuitOpen, c.GetState())
}

func TestShouldTryHalfOpen_AfterCooldown(t *testing.T) {
	c := &Client{config: ClientConfig{CircuitCooldown: 10 * time.Millisecond}}
	c.circuitOpenTime.Store(time.Now().Add(-20 * time.Millisecond).Unix())
	assert.True(t, c.shouldTryHalfOpen())
}

func TestCalculateBackoff_CapsAtMax(t *testing.T) {
	c := &Client{config: ClientConfig{RetryBackoff: 100 * time.Millisecond, MaxRetryBackoff: 500 * time.Millisecond}}
	backoff := c.calculateBackoff(10)
	assert.LessOrEqual(t, backoff, c.config.MaxRetryBackoff)
}

func TestIsRetryable_ContextErrors(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(context.DeadlineExceeded))
}
