// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vectorstore provides a resilient Weaviate client for the
// wiki generator's optional RAG chunk storage: circuit breaker, retry
// with backoff, and graceful degradation so a Weaviate outage disables
// PrepareRAGData's embedding write path for the rest of a run instead
// of failing the run. Callers that never pass --weaviate-url never
// construct a Client at all; RepoAnalysis proceeds with text-only
// chunks either way, per spec.md's PrepareRAGData note that embedding
// storage is an optional enhancement, not a hard dependency.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnavailable is returned when Weaviate is not reachable.
	ErrUnavailable = errors.New("vectorstore: weaviate is not available")
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("vectorstore: circuit breaker open, requests blocked")
	// ErrConnectionTimeout is returned when a request times out.
	ErrConnectionTimeout = errors.New("vectorstore: connection timeout")
	// ErrClientClosed is returned when a closed client is used.
	ErrClientClosed = errors.New("vectorstore: client is closed")
)

// ConnectionState is the current state of the Weaviate connection.
type ConnectionState int32

const (
	StateConnected ConnectionState = iota
	StateDegraded
	StateCircuitOpen
	StateHalfOpen
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	case StateCircuitOpen:
		return "circuit_open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ClientConfig configures the resilient vector store client.
type ClientConfig struct {
	URL string // e.g. "http://localhost:8080"

	RetryAttempts   int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	RetryJitter     float64

	CircuitThreshold int
	CircuitWindow    time.Duration
	CircuitCooldown  time.Duration

	HealthCheckInterval   time.Duration
	DegradedCheckInterval time.Duration
	HealthCheckTimeout    time.Duration

	// AllowStartDegraded lets the pipeline continue (skipping RAG
	// features) instead of failing the whole run when Weaviate is
	// unreachable at startup. The wiki pipeline always sets this true:
	// embeddings are an enhancement, never a hard dependency.
	AllowStartDegraded bool

	Logger *slog.Logger
}

// DefaultClientConfig returns production defaults, tuned for a batch
// pipeline rather than a long-lived server: shorter health-check
// intervals since a run is typically minutes, not days.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RetryAttempts:         3,
		RetryBackoff:          100 * time.Millisecond,
		MaxRetryBackoff:       5 * time.Second,
		RetryJitter:           0.25,
		CircuitThreshold:      5,
		CircuitWindow:         30 * time.Second,
		CircuitCooldown:       30 * time.Second,
		HealthCheckInterval:   10 * time.Second,
		DegradedCheckInterval: 5 * time.Second,
		HealthCheckTimeout:    5 * time.Second,
		AllowStartDegraded:    true,
		Logger:                slog.Default(),
	}
}

func (c *ClientConfig) validate() error {
	if c.URL == "" {
		return errors.New("url must not be empty")
	}
	if c.RetryAttempts < 0 {
		return errors.New("retry_attempts must be non-negative")
	}
	if c.RetryJitter < 0 || c.RetryJitter > 1 {
		return errors.New("retry_jitter must be between 0 and 1")
	}
	if c.CircuitThreshold < 1 {
		return errors.New("circuit_threshold must be at least 1")
	}
	if c.CircuitWindow <= 0 {
		return errors.New("circuit_window must be positive")
	}
	if c.HealthCheckTimeout <= 0 {
		return errors.New("health_check_timeout must be positive")
	}
	return nil
}

func (c *ClientConfig) applyDefaults() {
	d := DefaultClientConfig()
	if c.RetryAttempts == 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	if c.MaxRetryBackoff == 0 {
		c.MaxRetryBackoff = d.MaxRetryBackoff
	}
	if c.RetryJitter == 0 {
		c.RetryJitter = d.RetryJitter
	}
	if c.CircuitThreshold == 0 {
		c.CircuitThreshold = d.CircuitThreshold
	}
	if c.CircuitWindow == 0 {
		c.CircuitWindow = d.CircuitWindow
	}
	if c.CircuitCooldown == 0 {
		c.CircuitCooldown = d.CircuitCooldown
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = d.HealthCheckInterval
	}
	if c.DegradedCheckInterval == 0 {
		c.DegradedCheckInterval = d.DegradedCheckInterval
	}
	if c.HealthCheckTimeout == 0 {
		c.HealthCheckTimeout = d.HealthCheckTimeout
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
}

// Client wraps the generated Weaviate client with resilience features.
// It is safe for concurrent use.
type Client struct {
	raw    *weaviate.Client
	config ClientConfig
	logger *slog.Logger

	state           atomic.Int32
	circuitOpenTime atomic.Int64
	closed          atomic.Bool

	failures   []time.Time
	failureIdx int
	failureMu  sync.Mutex

	halfOpenTest atomic.Bool

	healthCtx    context.Context
	healthCancel context.CancelFunc
	healthWg     sync.WaitGroup

	handlers   []DegradationHandler
	handlersMu sync.RWMutex
}

// NewClient creates a resilient vector store client. If Weaviate is
// unreachable at startup and AllowStartDegraded is true, NewClient
// still returns a usable client in StateDegraded rather than an error,
// so a pipeline run proceeds without RAG features.
func NewClient(config ClientConfig) (*Client, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid vectorstore config: %w", err)
	}

	cfg := weaviate.Config{Host: config.URL, Scheme: "http"}
	if len(config.URL) > 8 && config.URL[:8] == "https://" {
		cfg.Scheme = "https"
		cfg.Host = config.URL[8:]
	} else if len(config.URL) > 7 && config.URL[:7] == "http://" {
		cfg.Host = config.URL[7:]
	}

	raw, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	healthCtx, healthCancel := context.WithCancel(context.Background())
	c := &Client{
		raw:          raw,
		config:       config,
		logger:       config.Logger.With(slog.String("component", "vectorstore")),
		failures:     make([]time.Time, config.CircuitThreshold),
		healthCtx:    healthCtx,
		healthCancel: healthCancel,
	}
	c.state.Store(int32(StateDegraded))

	if err := c.checkHealth(context.Background()); err != nil {
		if config.AllowStartDegraded {
			c.logger.Warn("weaviate unavailable at startup, RAG features disabled for this run",
				slog.String("url", config.URL), slog.String("error", err.Error()))
			c.healthWg.Add(1)
			go c.runHealthChecker()
			return c, nil
		}
		healthCancel()
		return nil, fmt.Errorf("weaviate not available: %w", err)
	}

	c.transitionState(StateConnected)
	c.healthWg.Add(1)
	go c.runHealthChecker()
	return c, nil
}

// Raw returns the underlying generated client for schema/query
// operations that need direct access to its fluent builders.
func (c *Client) Raw() *weaviate.Client { return c.raw }

func (c *Client) IsAvailable() bool {
	s := ConnectionState(c.state.Load())
	return s == StateConnected || s == StateHalfOpen
}

func (c *Client) IsDegraded() bool {
	s := ConnectionState(c.state.Load())
	return s == StateDegraded || s == StateCircuitOpen
}

func (c *Client) GetState() ConnectionState { return ConnectionState(c.state.Load()) }

// RegisterHandler registers a handler notified of availability changes.
func (c *Client) RegisterHandler(h DegradationHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, h)
	if c.IsDegraded() {
		h.OnDegraded("initial state: weaviate unavailable")
	}
}

// Execute runs fn with retry and circuit breaker protection.
func (c *Client) Execute(ctx context.Context, fn func() error) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	ctx, span := otel.Tracer("github.com/aleutian-labs/repowiki/internal/vectorstore").Start(ctx, "vectorstore.Execute",
		trace.WithAttributes(attribute.String("state", c.GetState().String())))
	defer span.End()

	switch c.GetState() {
	case StateCircuitOpen:
		if c.shouldTryHalfOpen() {
			c.transitionState(StateHalfOpen)
		} else {
			span.SetStatus(codes.Error, "circuit open")
			return ErrCircuitOpen
		}
	case StateHalfOpen:
		if !c.halfOpenTest.CompareAndSwap(false, true) {
			span.SetStatus(codes.Error, "circuit open (half-open busy)")
			return ErrCircuitOpen
		}
		defer c.halfOpenTest.Store(false)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			c.recordSuccess()
			span.SetStatus(codes.Ok, "success")
			return nil
		}
		if !isRetryable(lastErr) {
			break
		}
	}

	c.recordFailure()
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all retries failed")
	return wrapError(lastErr)
}

// Close stops the health checker and releases resources.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.healthCancel()
	c.healthWg.Wait()
	return nil
}

func (c *Client) transitionState(newState ConnectionState) {
	oldState := ConnectionState(c.state.Swap(int32(newState)))
	if oldState == newState {
		return
	}
	c.logger.Info("vectorstore state transition", slog.String("from", oldState.String()), slog.String("to", newState.String()))

	c.handlersMu.RLock()
	handlers := c.handlers
	c.handlersMu.RUnlock()

	wasDegraded := oldState == StateDegraded || oldState == StateCircuitOpen
	isDegraded := newState == StateDegraded || newState == StateCircuitOpen
	if !wasDegraded && isDegraded {
		for _, h := range handlers {
			h.OnDegraded(fmt.Sprintf("state changed to %s", newState))
		}
	} else if wasDegraded && !isDegraded {
		for _, h := range handlers {
			h.OnRecovered()
		}
	}
}

func (c *Client) checkHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthCheckTimeout)
	defer cancel()
	ready, err := c.raw.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if !ready {
		return ErrUnavailable
	}
	return nil
}

func (c *Client) runHealthChecker() {
	defer c.healthWg.Done()
	for {
		interval := c.config.HealthCheckInterval
		if c.IsDegraded() {
			interval = c.config.DegradedCheckInterval
		}
		select {
		case <-c.healthCtx.Done():
			return
		case <-time.After(interval):
			c.performHealthCheck()
		}
	}
}

func (c *Client) performHealthCheck() {
	err := c.checkHealth(c.healthCtx)
	switch c.GetState() {
	case StateDegraded, StateHalfOpen:
		if err == nil {
			c.transitionState(StateConnected)
			c.resetFailures()
		}
	case StateCircuitOpen:
		if err == nil && c.shouldTryHalfOpen() {
			c.transitionState(StateHalfOpen)
		}
	case StateConnected:
		if err != nil {
			c.transitionState(StateDegraded)
		}
	}
}

func (c *Client) recordSuccess() {
	if c.GetState() == StateHalfOpen {
		c.transitionState(StateConnected)
		c.resetFailures()
	}
}

func (c *Client) recordFailure() {
	c.failureMu.Lock()
	defer c.failureMu.Unlock()

	now := time.Now()
	c.failures[c.failureIdx] = now
	c.failureIdx = (c.failureIdx + 1) % len(c.failures)

	windowStart := now.Add(-c.config.CircuitWindow)
	count := 0
	for _, t := range c.failures {
		if !t.IsZero() && t.After(windowStart) {
			count++
		}
	}

	if count >= c.config.CircuitThreshold {
		if c.GetState() != StateCircuitOpen {
			c.circuitOpenTime.Store(now.Unix())
			c.transitionState(StateCircuitOpen)
			c.logger.Warn("circuit breaker opened", slog.Int("failures", count))
		}
	} else if c.GetState() == StateConnected {
		c.transitionState(StateDegraded)
	}
}

func (c *Client) resetFailures() {
	c.failureMu.Lock()
	defer c.failureMu.Unlock()
	for i := range c.failures {
		c.failures[i] = time.Time{}
	}
	c.failureIdx = 0
}

func (c *Client) shouldTryHalfOpen() bool {
	return time.Since(time.Unix(c.circuitOpenTime.Load(), 0)) >= c.config.CircuitCooldown
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.config.RetryBackoff * time.Duration(1<<attempt)
	if backoff > c.config.MaxRetryBackoff {
		backoff = c.config.MaxRetryBackoff
	}
	jitterRange := float64(backoff) * c.config.RetryJitter
	jitter := (rand.Float64()*2 - 1) * jitterRange
	backoff = time.Duration(float64(backoff) + jitter)
	if backoff < 0 {
		backoff = c.config.RetryBackoff
	}
	return backoff
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	return fmt.Errorf("vectorstore error: %w", err)
}
