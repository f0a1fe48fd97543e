// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aleutian-labs/repowiki/internal/assembly"
	"github.com/aleutian-labs/repowiki/internal/blackboard"
	"github.com/aleutian-labs/repowiki/internal/cache"
	"github.com/aleutian-labs/repowiki/internal/codeparse"
	"github.com/aleutian-labs/repowiki/internal/config"
	"github.com/aleutian-labs/repowiki/internal/content"
	"github.com/aleutian-labs/repowiki/internal/flow"
	"github.com/aleutian-labs/repowiki/internal/llm"
	"github.com/aleutian-labs/repowiki/internal/mermaid"
	"github.com/aleutian-labs/repowiki/internal/repoanalysis"
	"github.com/aleutian-labs/repowiki/internal/report"
	"github.com/aleutian-labs/repowiki/internal/vectorstore"
	"github.com/aleutian-labs/repowiki/pkg/logging"
)

// runGenerate is generateCmd's Run function: it wires the full
// PrepareRepo -> AnalyzeRepo -> GenerateContent -> Combine -> Format
// pipeline from spec.md §2 and runs it end to end against args[0].
func runGenerate(cmd *cobra.Command, args []string) {
	cfg := config.Global
	if outputDir != "" {
		cfg.Global.OutputDir = outputDir
	}
	if targetLanguage != "" {
		cfg.Global.TargetLanguage = targetLanguage
	}

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "repowiki",
		LogDir:  filepath.Join(filepath.Dir(cfg.LLM.CacheDir), "logs"),
	})
	defer logger.Close()
	slogger := logger.Slog()

	sessionID := uuid.NewString()
	state := blackboard.New()
	state.Set(blackboard.KeyRepoSource, args[0])
	state.Set(blackboard.KeyTargetLanguage, cfg.Global.TargetLanguage)
	state.Set(blackboard.KeyOutputDir, cfg.Global.OutputDir)

	llmClient, vsClient, closeFn, err := buildLLMStack(cfg, slogger)
	if err != nil {
		logger.Error("building LLM stack", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeFn()

	ctx := context.Background()
	success := runPipeline(ctx, cfg, state, llmClient, vsClient, sessionID, logger)

	if reportPath != "" {
		r := report.Build(state, llmClient.Usage.Snapshot(), time.Now(), success)
		if err := report.WriteJSON(r, reportPath); err != nil {
			slogger.Error("failed to write report.json", slog.String("error", err.Error()))
		}
	}

	if !success && !state.Has(blackboard.KeyWrittenFiles) {
		os.Exit(1)
	}
}

// buildLLMStack assembles the provider registry, response cache, worker
// pool, and Client shared by every downstream node, plus an optional
// (possibly nil) vector store client for RAG storage.
func buildLLMStack(cfg config.Config, logger *slog.Logger) (*llm.Client, *vectorstore.Client, func(), error) {
	registry := llm.NewRegistry()
	providerCfg := llm.ProviderConfig{BaseURL: cfg.LLM.BaseURL, APIKey: cfg.LLM.APIKey}

	if anthropic, err := llm.NewAnthropicProvider(providerCfg, logger); err == nil {
		registry.Register("anthropic", anthropic)
	}
	if openai, err := llm.NewOpenAIProvider(providerCfg, logger); err == nil {
		registry.Register("openai", openai)
	}
	registry.Register("ollama", llm.NewOllamaProvider(providerCfg, logger))

	db, err := cache.Open(cfg.ResolveCacheConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open cache: %w", err)
	}
	contentCache := cache.NewContentCache(db, time.Duration(cfg.LLM.CacheTTLSeconds)*time.Second)

	pool := llm.NewWorkerPool(cfg.Global.MaxConcurrentLLMCalls, llm.LeastLoaded)
	client := llm.NewClient(registry, contentCache, pool, cfg.ResolveLLMConfig(), logger)

	var vsClient *vectorstore.Client
	if weaviateURL != "" {
		vsCfg := vectorstore.DefaultClientConfig()
		vsCfg.URL = weaviateURL
		vsCfg.Logger = logger
		vsCfg.AllowStartDegraded = true
		vsClient, err = vectorstore.NewClient(vsCfg)
		if err != nil {
			logger.Warn("vector store unavailable, RAG storage disabled", slog.String("error", err.Error()))
			vsClient = nil
		}
	}

	closeFn := func() {
		_ = db.Close()
	}
	return client, vsClient, closeFn, nil
}

// runPipeline runs every stage in spec.md §2's flow diagram in
// sequence, returning true if the run reached Format without a fatal
// stage failure. A stage failure is recorded on state as a fatal
// ErrorRecord and processing stops there, so any documents already
// written by an earlier stage are preserved.
func runPipeline(ctx context.Context, cfg config.Config, state *blackboard.Store, llmClient *llm.Client, vsClient *vectorstore.Client, sessionID string, logger *logging.Logger) bool {
	slogger := logger.Slog()
	sequential := flow.NewSequentialRunner(logger)
	parallel := flow.NewParallelRunner(logger, cfg.Global.MaxWorkers)

	prepareRepo := repoanalysis.NewPrepareRepoNode(cfg.ResolvePrepareRepoConfig(), slogger)
	prepFlow, err := singleNodeFlow("PrepareRepo", prepareRepo)
	if err != nil {
		return fatalStage(state, "PrepareRepo", err)
	}
	if _, err := runStage(ctx, sequential, prepFlow, state, sessionID); err != nil {
		return fatalStage(state, "PrepareRepo", err)
	}

	analyzeBranches := []flow.Node{
		repoanalysis.NewParseCodeBatchNode(cfg.ResolveParseCodeConfig(), codeparse.NewDefaultRegistry(), slogger),
		repoanalysis.NewAnalyzeHistoryNode(repoanalysis.HistoryConfig{MaxCommits: cfg.Repo.MaxCommits}, llmClient, slogger),
		repoanalysis.NewAIUnderstandCoreModulesNode(repoanalysis.UnderstandConfig{}, llmClient, slogger),
		repoanalysis.NewPrepareRAGDataNode(repoanalysis.RAGConfig{}, vsClient, slogger),
	}
	analyzeFlow, err := fanOutFlow("AnalyzeRepo", analyzeBranches)
	if err != nil {
		return fatalStage(state, "AnalyzeRepo", err)
	}
	if _, err := runStage(ctx, parallel, analyzeFlow, state, sessionID); err != nil {
		return fatalStage(state, "AnalyzeRepo", err)
	}

	prompts, err := content.NewPromptBuilder()
	if err != nil {
		return fatalStage(state, "GenerateContent", fmt.Errorf("build prompts: %w", err))
	}
	quality := cfg.ResolveQualityConfig()

	var contentBranches []flow.Node
	for _, spec := range content.Sections {
		contentBranches = append(contentBranches, content.NewSectionGeneratorNode(spec, quality, prompts, llmClient, slogger))
	}
	contentBranches = append(contentBranches, content.NewModuleDetailsNode(content.ModuleDetailsConfig{Quality: quality}, prompts, llmClient, slogger))

	contentFlow, err := fanOutFlow("GenerateContent", contentBranches)
	if err != nil {
		return fatalStage(state, "GenerateContent", err)
	}
	if _, err := runStage(ctx, parallel, contentFlow, state, sessionID); err != nil {
		return fatalStage(state, "GenerateContent", err)
	}

	var renderer mermaid.ExternalRenderer
	if mmdcPath != "" {
		renderer = newMMDCRenderer(mmdcPath)
	}
	mermaidNode := mermaid.NewValidationNode(cfg.ResolveMermaidConfig(), renderer, llmClient, slogger)
	mermaidFlow, err := singleNodeFlow("MermaidValidation", mermaidNode)
	if err != nil {
		return fatalStage(state, "MermaidValidation", err)
	}
	if _, err := runStage(ctx, sequential, mermaidFlow, state, sessionID); err != nil {
		return fatalStage(state, "MermaidValidation", err)
	}

	assemblyFlow, err := chainFlow("Assembly", []flow.Node{assembly.NewCombineNode(), assembly.NewFormatNode()})
	if err != nil {
		return fatalStage(state, "Assembly", err)
	}
	if _, err := runStage(ctx, sequential, assemblyFlow, state, sessionID); err != nil {
		return fatalStage(state, "Assembly", err)
	}

	return true
}

func fatalStage(state *blackboard.Store, stage string, err error) bool {
	state.AppendError(blackboard.ErrorRecord{
		Stage:     stage,
		Kind:      blackboard.KindFatal,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
	return false
}
