// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package content

// QualityConfig configures the regenerate-with-critique loop shared by
// every section generator and the module details batch, per spec.md
// §6.1's Quality options.
type QualityConfig struct {
	OverallThreshold        float64
	AutoRegenerate          bool
	MaxRegenerationAttempts int
	Weights                 QualityWeights
}

// DefaultQualityConfig returns spec.md §4.5's stated defaults.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		OverallThreshold:        7.0,
		AutoRegenerate:          true,
		MaxRegenerationAttempts: 2,
		Weights:                 DefaultQualityWeights(),
	}
}

// SectionSpec names one of the seven parallel generators from spec.md
// §4.5's table: its blackboard section key and the minimum number of
// Mermaid diagrams its content must contain.
type SectionSpec struct {
	Name             string
	RequiredDiagrams int
}

// Sections is the fixed table from spec.md §4.5, excluding
// module_details which runs as its own batch node rather than a
// single-shot generator.
var Sections = []SectionSpec{
	{Name: "overall_architecture", RequiredDiagrams: 4},
	{Name: "api_docs", RequiredDiagrams: 1},
	{Name: "dependency", RequiredDiagrams: 2},
	{Name: "timeline", RequiredDiagrams: 2},
	{Name: "glossary", RequiredDiagrams: 1},
	{Name: "quick_look", RequiredDiagrams: 1},
}
