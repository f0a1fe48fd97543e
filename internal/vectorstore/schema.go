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
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class the wiki generator's RAG chunks live
// under. One class serves every repository run; RepoID scopes a class
// to a single generated wiki, since a Weaviate instance may be shared
// across repos.
const ClassName = "RepoWikiChunk"

// Chunk is one unit of chunked repository content: a slice of a source
// file, small enough to embed for the future Q&A surface spec.md's
// GLOSSARY calls out as out of scope for this core. Only writing
// chunks is implemented; nothing in this pipeline queries them back.
type Chunk struct {
	RepoID     string    `json:"repo_id"`
	SourcePath string    `json:"source_path"`
	Section    string    `json:"section"`
	Content    string    `json:"content"`
	StartLine  int       `json:"start_line"`
	EndLine    int       `json:"end_line"`
	Vector     []float32 `json:"-"`
}

// EnsureSchema creates the RepoWikiChunk class if it does not already
// exist. Vectors, if any, are supplied by the caller through
// Chunk.Vector, so the class uses Weaviate's "none" vectorizer.
func EnsureSchema(ctx context.Context, c *Client) error {
	return c.Execute(ctx, func() error {
		exists, err := c.raw.Schema().ClassExistenceChecker().WithClassName(ClassName).Do(ctx)
		if err != nil {
			return fmt.Errorf("check schema: %w", err)
		}
		if exists {
			return nil
		}
		class := &models.Class{
			Class:      ClassName,
			Vectorizer: "none",
			Properties: []*models.Property{
				{Name: "repo_id", DataType: []string{"text"}},
				{Name: "source_path", DataType: []string{"text"}},
				{Name: "section", DataType: []string{"text"}},
				{Name: "content", DataType: []string{"text"}},
				{Name: "start_line", DataType: []string{"int"}},
				{Name: "end_line", DataType: []string{"int"}},
			},
		}
		return c.raw.Schema().ClassCreator().WithClass(class).Do(ctx)
	})
}

// UpsertChunks writes chunks in a single batch call. It returns
// ErrUnavailable immediately, without a call, if the client is not
// currently available, so callers don't need their own availability
// check on the hot path.
func UpsertChunks(ctx context.Context, c *Client, chunks []Chunk) error {
	if !c.IsAvailable() {
		return ErrUnavailable
	}
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(chunks))
	for _, ch := range chunks {
		objects = append(objects, &models.Object{
			Class: ClassName,
			Properties: map[string]any{
				"repo_id":     ch.RepoID,
				"source_path": ch.SourcePath,
				"section":     ch.Section,
				"content":     ch.Content,
				"start_line":  ch.StartLine,
				"end_line":    ch.EndLine,
			},
			Vector: ch.Vector,
		})
	}

	return c.Execute(ctx, func() error {
		resp, err := c.raw.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("batch upsert: %w", err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return fmt.Errorf("batch upsert: object error: %s", r.Result.Errors.Error[0].Message)
			}
		}
		return nil
	})
}
