// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func degradedClient() *Client {
	c := &Client{}
	c.state.Store(int32(StateDegraded))
	return c
}

func TestUpsertChunks_SkipsWhenDegraded(t *testing.T) {
	err := UpsertChunks(context.Background(), degradedClient(), []Chunk{{RepoID: "r1", Content: "x"}})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestUpsertChunks_NoOpForEmptyInput(t *testing.T) {
	c := &Client{}
	c.state.Store(int32(StateConnected))
	err := UpsertChunks(context.Background(), c, nil)
	assert.NoError(t, err)
}
