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
)

// Provider is the interface every vendor backend implements. It is
// intentionally narrow: prompt assembly, retry, fallback, and caching
// all live one layer up in Client, so a Provider only has to know how
// to speak to one vendor's API.
type Provider interface {
	// Generate sends prompt to model and returns the raw text response.
	// The error, if any, should be a *CallError itself (Client checks it
	// with a type assertion, so a wrapped one is not recognized) so
	// Client can decide retry/fallback policy; any other error is not
	// retried, and Client moves on to the next model in the chain.
	Generate(ctx context.Context, model string, prompt string, params GenerationParams) (string, error)
	// Name identifies the provider for cache keys and metadata.
	Name() string
}

// ProviderConfig is the resolved, non-sensitive connection info for one
// provider, assembled by the configuration layer (§4.8.2) from
// defaults, config file, and process variables. APIKey is passed
// separately so it never round-trips through the layered config file.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout int // seconds, 0 uses the provider's own default
}

// Registry resolves a ModelRef's provider name to a Provider
// implementation. It is populated once at flow start from
// configuration and held for the lifetime of a run.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces the Provider for a given provider name
// (e.g. "anthropic", "openai", "ollama").
func (r *Registry) Register(name string, p Provider) {
	r.providers[name] = p
}

// Resolve returns the Provider registered under name.
func (r *Registry) Resolve(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm: no provider registered for %q", name)
	}
	return p, nil
}
