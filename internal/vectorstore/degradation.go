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
	"log/slog"
	"sync/atomic"
)

// DegradationMode describes how a Weaviate-dependent feature should
// behave given the current connection state.
type DegradationMode int32

const (
	ModeNormal DegradationMode = iota
	ModeDegraded
	ModeDisabled
)

func (m DegradationMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDegraded:
		return "degraded"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// DegradationHandler is notified when the vector store's availability
// changes, so a dependent pipeline stage can decide whether to skip its
// work rather than fail the whole run.
type DegradationHandler interface {
	OnDegraded(reason string)
	OnRecovered()
	GetMode() DegradationMode
}

// BaseDegradationHandler is embedded by concrete handlers to get the
// mode bookkeeping and logging for free.
type BaseDegradationHandler struct {
	mode   atomic.Int32
	name   string
	logger *slog.Logger
}

// NewBaseDegradationHandler creates a handler starting in ModeNormal.
func NewBaseDegradationHandler(name string, logger *slog.Logger) BaseDegradationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return BaseDegradationHandler{name: name, logger: logger}
}

func (h *BaseDegradationHandler) OnDegraded(reason string) {
	h.mode.Store(int32(ModeDegraded))
	h.logger.Warn("feature degraded due to vectorstore unavailability",
		slog.String("handler", h.name), slog.String("reason", reason))
}

func (h *BaseDegradationHandler) OnRecovered() {
	h.mode.Store(int32(ModeNormal))
	h.logger.Info("vectorstore recovered, feature resumed", slog.String("handler", h.name))
}

func (h *BaseDegradationHandler) GetMode() DegradationMode { return DegradationMode(h.mode.Load()) }

func (h *BaseDegradationHandler) IsNormal() bool   { return h.GetMode() == ModeNormal }
func (h *BaseDegradationHandler) IsDegraded() bool { return h.GetMode() == ModeDegraded }
func (h *BaseDegradationHandler) IsDisabled() bool { return h.GetMode() == ModeDisabled }

// SetDisabled puts the handler in ModeDisabled. The mode is not sticky:
// a later OnDegraded or OnRecovered call replaces it.
func (h *BaseDegradationHandler) SetDisabled() { h.mode.Store(int32(ModeDisabled)) }

// RAGDegradation governs the PrepareRAGData pipeline stage: while
// Weaviate is unavailable, chunk embedding and storage are skipped and
// the run proceeds without a queryable RAG index rather than failing.
type RAGDegradation struct {
	BaseDegradationHandler
}

// NewRAGDegradation creates a handler for the RAG embedding stage.
func NewRAGDegradation(logger *slog.Logger) *RAGDegradation {
	return &RAGDegradation{BaseDegradationHandler: NewBaseDegradationHandler("rag-embeddings", logger)}
}

// ShouldSkipEmbedding reports whether PrepareRAGData should skip
// writing chunks to the vector store for this run.
func (h *RAGDegradation) ShouldSkipEmbedding() bool {
	return h.IsDegraded() || h.IsDisabled()
}
