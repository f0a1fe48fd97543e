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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderBreaker_DisabledWhenThresholdZero(t *testing.T) {
	b := newProviderBreaker(0, time.Second)
	for i := 0; i < 10; i++ {
		assert.True(t, b.allow())
		assert.False(t, b.recordFailure())
	}
}

func TestProviderBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := newProviderBreaker(3, time.Minute)
	assert.False(t, b.recordFailure())
	assert.False(t, b.recordFailure())
	assert.True(t, b.recordFailure())

	assert.False(t, b.allow())
}

func TestProviderBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := newProviderBreaker(3, time.Minute)
	b.recordFailure()
	b.recordFailure()
	b.recordSuccess()
	assert.False(t, b.recordFailure())
	assert.False(t, b.recordFailure())
	assert.True(t, b.allow())
}

func TestProviderBreaker_ProbesAfterCooldownThenCloses(t *testing.T) {
	b := newProviderBreaker(1, time.Millisecond)
	assert.True(t, b.recordFailure())
	assert.False(t, b.allow())

	time.Sleep(2 * time.Millisecond)
	assert.True(t, b.allow())
	b.recordSuccess()
	assert.True(t, b.allow())
}

func TestProviderBreaker_FailedProbeReopensImmediately(t *testing.T) {
	b := newProviderBreaker(1, time.Millisecond)
	b.recordFailure()
	time.Sleep(2 * time.Millisecond)
	require := assert.New(t)
	require.True(b.allow())
	require.True(b.recordFailure())
	require.False(b.allow())
}

func TestProviderBreaker_OnlyOneProbeAdmittedAtATime(t *testing.T) {
	b := newProviderBreaker(1, time.Millisecond)
	b.recordFailure()
	time.Sleep(2 * time.Millisecond)
	assert.True(t, b.allow())
	assert.False(t, b.allow())
}
