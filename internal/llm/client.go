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
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aleutian-labs/repowiki/internal/cache"
)

// Config is the LLM call layer's resolved configuration, assembled by
// the configuration loader (§4.8.2) from the recognized options in
// spec.md §6.1.
type Config struct {
	// TaskModels maps a task type to its ordered model preference list;
	// index 0 is primary, the rest form the fallback chain.
	TaskModels map[TaskType][]string
	// DefaultModel is used when a task type has no configured
	// preference list.
	DefaultModel string
	// NodeOverrides implements `model_<node_name>` (§6.1): a node name
	// found here always wins over the task-type preference.
	NodeOverrides map[string]string

	MaxInputTokens int
	RetryCount     int
	CacheEnabled   bool
	CacheTTL       time.Duration
	// RatePerSecond bounds requests per provider, applied ahead of the
	// retry/circuit-breaker layer (§4.9's golang.org/x/time/rate entry).
	RatePerSecond float64
	// RateBurst is the token bucket burst size; 0 defaults to 1.
	RateBurst int
	// CircuitBreakerThreshold is the number of consecutive failed
	// calls to a provider that opens its circuit breaker (§5,
	// circuit_breaker_threshold). 0 disables the breaker.
	CircuitBreakerThreshold int
	// CircuitBreakerCooldown is how long an open breaker refuses calls
	// before probing the provider again. 0 uses the package default.
	CircuitBreakerCooldown time.Duration
}

// GenerateRequest is the input to Client.Generate.
type GenerateRequest struct {
	Prompt         string
	Context        string
	TaskType       TaskType
	NodeName       string
	TargetLanguage string
	Params         GenerationParams
}

// Client is the LLM Call Layer's single entry point: prompt assembly,
// token budgeting, cache lookup, model selection, retry, fallback,
// validation, and cache store, per spec.md §4.3.
type Client struct {
	registry *Registry
	cache    *cache.ContentCache
	cfg      Config
	pool     *WorkerPool
	logger   *slog.Logger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter

	breakersMu sync.Mutex
	breakers   map[string]*providerBreaker

	// Usage accumulates token/cost totals across every call for
	// spec.md §6.3's report.json. Nil disables accounting.
	Usage *UsageTotals
}

// NewClient assembles a Client from a provider registry, an optional
// content cache (nil disables caching regardless of cfg.CacheEnabled),
// and a worker pool for load-balanced dispatch (nil runs calls inline).
func NewClient(registry *Registry, contentCache *cache.ContentCache, pool *WorkerPool, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		registry: registry,
		cache:    contentCache,
		cfg:      cfg,
		pool:     pool,
		logger:   logger.With(slog.String("component", "llm")),
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*providerBreaker),
		Usage:    &UsageTotals{},
	}
}

// breakerFor returns the provider's circuit breaker, creating it on
// first use.
func (c *Client) breakerFor(provider string) *providerBreaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()
	b, ok := c.breakers[provider]
	if !ok {
		b = newProviderBreaker(c.cfg.CircuitBreakerThreshold, c.cfg.CircuitBreakerCooldown)
		c.breakers[provider] = b
	}
	return b
}

// Generate implements spec.md §4.3's ten-step pipeline.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, CallMetadata, error) {
	fullInstruction := buildInstruction(req.TaskType, req.TargetLanguage)

	trimmedContext := req.Context
	if c.cfg.MaxInputTokens > 0 {
		trimmed, truncated := TruncateContextToFit(fullInstruction, req.Context, c.cfg.MaxInputTokens)
		trimmedContext = trimmed
		if truncated && CountTokens(fullInstruction) >= c.cfg.MaxInputTokens {
			return "", CallMetadata{}, ErrInputTooLarge
		}
	}
	fullPrompt := assemblePrompt(fullInstruction, req.Prompt, trimmedContext)

	models, err := c.resolveModelChain(req.TaskType, req.NodeName)
	if err != nil {
		return "", CallMetadata{}, err
	}

	params := req.Params
	if params.Temperature == nil {
		t := req.TaskType.DefaultTemperature()
		params.Temperature = &t
	}

	for i, modelStr := range models {
		ref, err := ParseModelRef(modelStr)
		if err != nil {
			c.logger.Warn("skipping unparseable model in chain", slog.String("model", modelStr))
			continue
		}

		if c.cfg.CacheEnabled && c.cache != nil {
			hash := cache.HashPrompt(ref.Provider, ref.Model, fullPrompt, paramsForHash(params))
			if entry, ok, err := c.cache.Get(ctx, hash); err == nil && ok {
				meta := CallMetadata{
					Provider: entry.Provider, Model: entry.Model, FromCache: true, FallbackUsed: i > 0,
				}
				c.Usage.record(meta)
				return entry.Text, meta, nil
			}
		}

		text, meta, err := c.invokeWithRetry(ctx, ref, fullPrompt, params)
		if err == nil {
			meta.FallbackUsed = i > 0
			meta.InputTokens = CountTokens(fullPrompt)
			meta.OutputTokens = CountTokens(text)
			meta.EstimatedCost = estimateCost(ref.Model, meta.InputTokens, meta.OutputTokens)

			if valErr := validateResponse(text, params); valErr != nil {
				c.logger.Warn("response failed validation, trying next model", slog.String("model", modelStr), slog.String("error", valErr.Error()))
				continue
			}

			if c.cfg.CacheEnabled && c.cache != nil {
				hash := cache.HashPrompt(ref.Provider, ref.Model, fullPrompt, paramsForHash(params))
				_ = c.cache.Put(ctx, hash, cache.ContentEntry{Text: text, Provider: ref.Provider, Model: ref.Model})
			}
			c.Usage.record(meta)
			return text, meta, nil
		}

		var callErr *CallError
		if isFatalAuthError(err, &callErr) {
			return "", CallMetadata{}, err
		}
		c.logger.Warn("model exhausted retries, falling back", slog.String("model", modelStr), slog.String("error", err.Error()))
	}

	return "", CallMetadata{}, fmt.Errorf("%w: all models in chain exhausted", ErrProviderDown)
}

func isFatalAuthError(err error, target **CallError) bool {
	ce, ok := asCallError(err)
	if !ok {
		return false
	}
	*target = ce
	return ce.Kind == KindAuth
}

func asCallError(err error) (*CallError, bool) {
	ce, ok := err.(*CallError)
	return ce, ok
}

func (c *Client) invokeWithRetry(ctx context.Context, ref ModelRef, prompt string, params GenerationParams) (string, CallMetadata, error) {
	provider, err := c.registry.Resolve(ref.Provider)
	if err != nil {
		return "", CallMetadata{}, err
	}

	breaker := c.breakerFor(ref.Provider)
	if !breaker.allow() {
		return "", CallMetadata{}, fmt.Errorf("%w: %s circuit breaker open", ErrProviderDown, ref.Provider)
	}

	retries := c.cfg.RetryCount
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 1; attempt <= retries+1; attempt++ {
		if err := c.waitRateLimit(ctx, ref.Provider); err != nil {
			return "", CallMetadata{}, err
		}

		var text string
		start := time.Now()
		call := func(ctx context.Context) error {
			var callErr error
			text, callErr = provider.Generate(ctx, ref.Model, prompt, params)
			return callErr
		}

		var runErr error
		if c.pool != nil {
			runErr = c.pool.Execute(ctx, call)
		} else {
			runErr = call(ctx)
		}
		latency := time.Since(start)

		if runErr == nil {
			breaker.recordSuccess()
			return text, CallMetadata{
				Provider:  ref.Provider,
				Model:     ref.Model,
				LatencyMS: latency.Milliseconds(),
				Attempt:   attempt,
			}, nil
		}

		lastErr = runErr
		if breaker.recordFailure() {
			c.logger.Warn("provider circuit breaker opened", slog.String("provider", ref.Provider), slog.String("model", ref.Model))
			return "", CallMetadata{}, fmt.Errorf("%w: %s circuit breaker open after %v", ErrProviderDown, ref.Provider, runErr)
		}

		ce, ok := asCallError(runErr)
		if !ok || !ce.IsRetryable() || attempt > retries {
			return "", CallMetadata{}, runErr
		}

		select {
		case <-ctx.Done():
			return "", CallMetadata{}, ctx.Err()
		case <-time.After(backoffDuration(attempt)):
		}
	}
	return "", CallMetadata{}, lastErr
}

func backoffDuration(attempt int) time.Duration {
	base := 200 * time.Millisecond * time.Duration(1<<uint(attempt-1))
	if base > 10*time.Second {
		base = 10 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base)/4 + 1))
	return base + jitter
}

func (c *Client) waitRateLimit(ctx context.Context, provider string) error {
	if c.cfg.RatePerSecond <= 0 {
		return nil
	}
	c.limitersMu.Lock()
	limiter, ok := c.limiters[provider]
	if !ok {
		burst := c.cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(c.cfg.RatePerSecond), burst)
		c.limiters[provider] = limiter
	}
	c.limitersMu.Unlock()
	return limiter.Wait(ctx)
}

// resolveModelChain implements §6.1's precedence: node override, then
// the task type's preference list (primary + fallbacks), then the
// global default.
func (c *Client) resolveModelChain(taskType TaskType, nodeName string) ([]string, error) {
	var chain []string
	if override, ok := c.cfg.NodeOverrides[nodeName]; ok && override != "" {
		chain = append(chain, override)
	}
	if prefs, ok := c.cfg.TaskModels[taskType]; ok {
		chain = append(chain, prefs...)
	}
	if c.cfg.DefaultModel != "" {
		chain = append(chain, c.cfg.DefaultModel)
	}
	chain = dedupe(chain)
	if len(chain) == 0 {
		return nil, ErrNoModelsConfigured
	}
	return chain, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func buildInstruction(taskType TaskType, targetLanguage string) string {
	var instruction string
	switch taskType {
	case TaskSummarize:
		instruction = "Summarize the following content concisely and accurately."
	case TaskExplain:
		instruction = "Explain the following content clearly for a technical reader."
	case TaskAnalyze:
		instruction = "Analyze the following content and report your findings precisely."
	case TaskGenerateContent:
		instruction = "Generate well-structured documentation content from the following material."
	case TaskRegenerate:
		instruction = "Revise the following content to correct the noted issues."
	default:
		instruction = "Respond to the following request."
	}
	if targetLanguage != "" {
		instruction += fmt.Sprintf(" Respond in %s; preserve code identifiers verbatim.", targetLanguage)
	}
	return instruction
}

func assemblePrompt(instruction, prompt, context string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString(prompt)
	if context != "" {
		b.WriteString("\n\n")
		b.WriteString(context)
	}
	return b.String()
}

func paramsForHash(params GenerationParams) map[string]any {
	m := map[string]any{}
	if params.Temperature != nil {
		m["temperature"] = *params.Temperature
	}
	if params.MaxTokens != nil {
		m["max_tokens"] = *params.MaxTokens
	}
	return m
}

func validateResponse(text string, params GenerationParams) error {
	minLen := params.MinLength
	if minLen <= 0 {
		minLen = 1
	}
	if len(strings.TrimSpace(text)) < minLen {
		return fmt.Errorf("%w: response shorter than minimum length %d", ErrInvalid, minLen)
	}
	if params.RequireJSON && !strings.Contains(text, "```json") && !strings.Contains(text, "```") {
		return fmt.Errorf("%w: response missing required JSON fence", ErrInvalid)
	}
	return nil
}
