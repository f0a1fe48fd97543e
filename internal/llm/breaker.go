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
	"sync"
	"time"
)

// breakerState mirrors the CLOSED/OPEN/HALF_OPEN states of the
// original CircuitBreaker.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// defaultCircuitBreakerCooldown is used when Config leaves
// CircuitBreakerCooldown unset. spec.md §6.1 only names the failure
// threshold; the cooldown window is otherwise unspecified so this
// mirrors the ground truth's recovery_timeout default.
const defaultCircuitBreakerCooldown = 60 * time.Second

// providerBreaker is a per-provider circuit breaker: after threshold
// consecutive call failures it opens for cooldown, refusing calls with
// ErrProviderDown, then lets exactly one probe call through before
// deciding whether to close or re-open. A threshold of 0 disables the
// breaker (allow always succeeds).
type providerBreaker struct {
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

func newProviderBreaker(threshold int, cooldown time.Duration) *providerBreaker {
	if cooldown <= 0 {
		cooldown = defaultCircuitBreakerCooldown
	}
	return &providerBreaker{threshold: threshold, cooldown: cooldown}
}

// allow reports whether a call may proceed. It transitions an expired
// OPEN breaker to HALF_OPEN and admits exactly one probe.
func (b *providerBreaker) allow() bool {
	if b.threshold <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
		b.probing = true
		return true
	case breakerHalfOpen:
		return false // a probe is already in flight
	default:
		return true
	}
}

// recordSuccess closes the breaker and resets the failure count.
func (b *providerBreaker) recordSuccess() {
	if b.threshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = breakerClosed
	b.failures = 0
	b.probing = false
}

// recordFailure counts the failure and opens the breaker once threshold
// is reached (or immediately, if the failing call was itself the
// half-open probe). It reports whether the breaker is now open, so the
// caller can stop retrying instead of burning its remaining attempts
// against a provider the breaker has just declared down.
func (b *providerBreaker) recordFailure() bool {
	if b.threshold <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		b.openedAt = time.Now()
		return true
	}

	b.failures++
	if b.failures >= b.threshold {
		b.state = breakerOpen
		b.openedAt = time.Now()
		return true
	}
	return false
}
