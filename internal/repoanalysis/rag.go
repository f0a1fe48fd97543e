// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repoanalysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/vectorstore"
)

// RAGConfig configures PrepareRAGData's chunking. Defaults mirror
// services/orchestrator/handlers/documents.go's CHUNK_SIZE/CHUNK_OVERLAP,
// which in turn match _examples/original_source/src/utils/rag_utils.py's
// chunk_text defaults.
type RAGConfig struct {
	ChunkSize    int // default 1000
	ChunkOverlap int // default 10% of ChunkSize
	MaxTextFiles int
	RepoID       string
}

// PrepareRAGDataNode chunks every non-binary text file into overlapping,
// boundary-respecting pieces for a future retrieval surface. Grounded on
// services/orchestrator/handlers/documents.go's getSplitterForFile,
// which picks a langchaingo/textsplitter.RecursiveCharacter configured
// with language-specific separators (paragraph/heading breaks for
// Markdown, class/def breaks for Python, brace-language breaks for
// C-style languages) so a chunk boundary lands on a natural structural
// break rather than an arbitrary character offset; the paragraph-then-
// line-then-word-then-character escalation this same separator list
// realizes mirrors _examples/original_source/src/utils/rag_utils.py's
// chunk_text/_smart_chunk_text intent. Per spec.md §4.4.5, embeddings
// are a future extension: this stage only produces text chunks, and
// any Weaviate write is gated by
// vectorstore.RAGDegradation.ShouldSkipEmbedding so an unavailable
// vector store never blocks the pipeline.
type PrepareRAGDataNode struct {
	flow.BaseNode
	Config      RAGConfig
	VectorStore *vectorstore.Client
	Degradation *vectorstore.RAGDegradation
	Logger      *slog.Logger
}

// NewPrepareRAGDataNode constructs the node with the "PrepareRAGData" name.
func NewPrepareRAGDataNode(cfg RAGConfig, vs *vectorstore.Client, logger *slog.Logger) *PrepareRAGDataNode {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = int(float64(cfg.ChunkSize) * 0.10)
	}
	degradation := vectorstore.NewRAGDegradation(logger)
	if vs != nil {
		vs.RegisterHandler(degradation)
	}
	return &PrepareRAGDataNode{
		BaseNode:    flow.BaseNode{NodeName: "PrepareRAGData", NodeTimeout: 5 * time.Minute},
		Config:      cfg,
		VectorStore: vs,
		Degradation: degradation,
		Logger:      logger.With(slog.String("node", "PrepareRAGData")),
	}
}

type ragPrep struct {
	root  string
	files []codeparse.FileEntry
}

func (n *PrepareRAGDataNode) Prepare(ctx context.Context, state *blackboard.Store) (any, error) {
	root := state.GetString(blackboard.KeyLocalRepoPath)
	if root == "" {
		return nil, fmt.Errorf("repoanalysis: %s missing from blackboard", blackboard.KeyLocalRepoPath)
	}
	raw, ok := state.Get(blackboard.KeyCodeStructure)
	if !ok {
		return nil, fmt.Errorf("repoanalysis: %s missing from blackboard", blackboard.KeyCodeStructure)
	}
	files, _ := raw.([]codeparse.FileEntry)
	return ragPrep{root: root, files: files}, nil
}

func (n *PrepareRAGDataNode) Execute(ctx context.Context, prep any) (any, error) {
	p := prep.(ragPrep)

	var chunks []Chunk
	processed := 0
	for _, f := range p.files {
		if f.IsBinary {
			continue
		}
		if n.Config.MaxTextFiles > 0 && processed >= n.Config.MaxTextFiles {
			break
		}
		fullPath := joinRepoPath(p.root, f.Path)
		content, err := os.ReadFile(fullPath)
		if err != nil {
			n.Logger.Warn("could not read file for chunking, skipping", slog.String("path", fullPath), slog.String("error", err.Error()))
			continue
		}

		pieces, err := n.splitterFor(f.Path).SplitText(string(content))
		if err != nil {
			n.Logger.Warn("chunking failed, skipping file", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}

		offset := 0
		for i, piece := range pieces {
			chunks = append(chunks, Chunk{
				ID:         chunkID(f.Path, i),
				SourcePath: f.Path,
				ByteStart:  offset,
				ByteEnd:    offset + len(piece),
				Text:       piece,
			})
			offset += len(piece)
		}
		processed++
	}

	return chunks, nil
}

func (n *PrepareRAGDataNode) Post(ctx context.Context, state *blackboard.Store, prep, exec any) (flow.Action, error) {
	chunks := exec.([]Chunk)
	state.Set(blackboard.KeyRAGChunks, chunks)

	if n.VectorStore == nil || n.Degradation.ShouldSkipEmbedding() {
		return flow.ActionDefault, nil
	}
	if err := vectorstore.EnsureSchema(ctx, n.VectorStore); err != nil {
		n.Logger.Warn("vector store schema setup failed, skipping upsert", slog.String("error", err.Error()))
		state.AppendError(blackboard.ErrorRecord{
			Stage:     n.Name(),
			Kind:      blackboard.KindWarning,
			Message:   "vector store unavailable, RAG chunks kept as text only: " + err.Error(),
			Timestamp: time.Now(),
			Recovered: true,
		})
		return flow.ActionDefault, nil
	}

	vsChunks := make([]vectorstore.Chunk, 0, len(chunks))
	for _, c := range chunks {
		vsChunks = append(vsChunks, vectorstore.Chunk{
			RepoID:     n.Config.RepoID,
			SourcePath: c.SourcePath,
			Section:    c.ID,
			Content:    c.Text,
		})
	}
	if err := vectorstore.UpsertChunks(ctx, n.VectorStore, vsChunks); err != nil {
		n.Logger.Warn("vector store upsert failed, RAG chunks kept as text only", slog.String("error", err.Error()))
		state.AppendError(blackboard.ErrorRecord{
			Stage:     n.Name(),
			Kind:      blackboard.KindWarning,
			Message:   "vector store upsert failed: " + err.Error(),
			Timestamp: time.Now(),
			Recovered: true,
		})
	}
	return flow.ActionDefault, nil
}

var (
	defaultSeparators  = []string{"\n\n", "\n", " ", ""}
	pythonSeparators   = []string{"\nclass ", "\ndef ", "\n\t", "\n", " "}
	cStyleSeparators   = []string{"\nfunction ", "\nclass ", "\ninterface ", "\npublic ", "\nprivate ", "\nprotected ", "\nfunc", "\ntype", "\n\n", "\n", " ", ""}
	markdownSeparators = []string{"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ", "\n\n", "\n", " ", ""}
)

// splitterFor picks a langchaingo/textsplitter.RecursiveCharacter tuned
// to a file's extension, following
// services/orchestrator/handlers/documents.go's getSplitterForFile.
func (n *PrepareRAGDataNode) splitterFor(path string) textsplitter.TextSplitter {
	seps := defaultSeparators
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		seps = markdownSeparators
	case ".py":
		seps = pythonSeparators
	case ".go", ".js", ".ts", ".tsx", ".jsx", ".java", ".c", ".cpp", ".h", ".hpp", ".rs":
		seps = cStyleSeparators
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(n.Config.ChunkSize),
		textsplitter.WithChunkOverlap(n.Config.ChunkOverlap),
		textsplitter.WithSeparators(seps),
	)
}

func chunkID(path string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", path, index)))
	return hex.EncodeToString(sum[:])[:16]
}

func joinRepoPath(root, rel string) string {
	if root == "" {
		return rel
	}
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(rel, "/")
}
