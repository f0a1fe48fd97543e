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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelRef(t *testing.T) {
	t.Run("provider/model", func(t *testing.T) {
		ref, err := ParseModelRef("anthropic/claude-sonnet-4")
		require.NoError(t, err)
		assert.Equal(t, ModelRef{Provider: "anthropic", Model: "claude-sonnet-4"}, ref)
		assert.Equal(t, "anthropic/claude-sonnet-4", ref.String())
	})

	t.Run("provider/upstream/model for aggregators", func(t *testing.T) {
		ref, err := ParseModelRef("openrouter/anthropic/claude-sonnet-4")
		require.NoError(t, err)
		assert.Equal(t, ModelRef{Provider: "openrouter", Upstream: "anthropic", Model: "claude-sonnet-4"}, ref)
		assert.Equal(t, "openrouter/anthropic/claude-sonnet-4", ref.String())
	})

	t.Run("missing slash is invalid", func(t *testing.T) {
		_, err := ParseModelRef("claude-sonnet-4")
		assert.Error(t, err)
	})
}

func TestTaskType_DefaultTemperature(t *testing.T) {
	assert.Equal(t, analyticalTemperature, TaskSummarize.DefaultTemperature())
	assert.Equal(t, analyticalTemperature, TaskExplain.DefaultTemperature())
	assert.Equal(t, analyticalTemperature, TaskAnalyze.DefaultTemperature())
	assert.Equal(t, creativeTemperatureLo, TaskGenerateContent.DefaultTemperature())
	assert.Equal(t, creativeTemperatureLo, TaskRegenerate.DefaultTemperature())
	assert.Equal(t, creativeTemperatureLo, TaskDefault.DefaultTemperature())
}
