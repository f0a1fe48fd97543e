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

// modelPricing maps a bare model name (ModelRef.Model, provider prefix
// stripped) to its published cost in dollars per million input and
// output tokens. Entries are illustrative list prices, not a live feed;
// an unlisted model estimates to zero rather than a guess.
var modelPricing = map[string][2]float64{
	"claude-sonnet-4-5": {3.0, 15.0},
	"claude-opus-4-5":   {15.0, 75.0},
	"claude-haiku-3-5":  {0.80, 4.0},
	"gpt-4o":            {2.50, 10.0},
	"gpt-4o-mini":       {0.15, 0.60},
}

// estimateCost returns the estimated cost in dollars for model given the
// input/output token counts, or 0 if the model has no pricing entry.
func estimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0.0
	}
	return (float64(inputTokens)/1_000_000)*pricing[0] + (float64(outputTokens)/1_000_000)*pricing[1]
}
