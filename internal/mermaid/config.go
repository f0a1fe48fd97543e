// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mermaid

// Config mirrors spec.md §6.1's Mermaid configuration block.
type Config struct {
	Enabled                    bool
	UseExternalRenderer        bool
	FallbackToRules            bool
	BackupFiles                bool
	MaxRegenerationAttempts    int
	SupportedChartTypes        []string
	RegenerationPromptTemplate string
}

// DefaultConfig returns the rule-based-only configuration used when the
// caller supplies none: no external renderer is wired in (see
// ExternalRenderer's doc comment), so FallbackToRules is always
// effectively true.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		UseExternalRenderer:     false,
		FallbackToRules:         true,
		BackupFiles:             true,
		MaxRegenerationAttempts: 2,
		SupportedChartTypes:     SupportedChartTypes,
	}
}

// ExternalRenderer is the pluggable seam for spec.md §6.1's
// use_external_renderer option. No implementation ships in this
// package: the corpus's examples wire out-of-process renderers (a
// headless mermaid-cli, a browser) only at the service-boundary layer,
// never as an importable Go library, so there is no third-party
// dependency to ground a default implementation on. Wiring a concrete
// renderer (e.g. shelling out to an installed mmdc binary) belongs to
// cmd/repowiki, which can construct one from configuration and pass it
// in; the validation node degrades to the rule-based checks in Validate
// when none is supplied.
type ExternalRenderer interface {
	Render(chartBody string) error
}
