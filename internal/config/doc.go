// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the layered configuration described in spec.md
// §6.1/§6.2: compiled-in defaults, an on-disk YAML file, environment
// variables, and process variables passed by the caller, in ascending
// precedence order. It exposes the same flat option shape spec.md
// enumerates and a set of Resolve* helpers that translate that shape
// into the concrete Config types each downstream package already
// declares (llm.Config, cache.Config, repoanalysis.*Config,
// content.QualityConfig, mermaid.Config).
package config
