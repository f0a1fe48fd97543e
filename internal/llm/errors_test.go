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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		401: KindAuth,
		403: KindAuth,
		429: KindRateLimit,
		500: KindProviderDown,
		503: KindProviderDown,
		400: KindInvalid,
		404: KindInvalid,
	}
	for status, want := range cases {
		assert.Equal(t, want, classifyHTTPStatus(status), "status %d", status)
	}
}

func TestCallError_IsRetryable(t *testing.T) {
	assert.True(t, NewCallError(KindRateLimit, "m", 1, errors.New("x")).IsRetryable())
	assert.True(t, NewCallError(KindProviderDown, "m", 1, errors.New("x")).IsRetryable())
	assert.False(t, NewCallError(KindAuth, "m", 1, errors.New("x")).IsRetryable())
	assert.False(t, NewCallError(KindInvalid, "m", 1, errors.New("x")).IsRetryable())
	assert.False(t, NewCallError(KindInputTooLarge, "m", 1, errors.New("x")).IsRetryable())
}

func TestCallError_UnwrapExposesUnderlyingError(t *testing.T) {
	inner := errors.New("connection reset")
	ce := NewCallError(KindProviderDown, "m", 1, inner)
	assert.ErrorIs(t, ce, inner)
}
