// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package blackboard

// Well-known blackboard keys. Namespacing with dots follows the section
// and per-module variants below; every producer/consumer pair is
// documented next to the constant.
const (
	// KeyRepoSource holds the input URL or local path. Written once by the
	// caller before the flow starts; read by PrepareRepo.
	KeyRepoSource = "repo_source"

	// KeyTargetLanguage holds the ISO short code documentation should be
	// written in. Read by every content generator.
	KeyTargetLanguage = "target_language"

	// KeyOutputDir holds the destination directory for the assembled
	// documentation site. Read by the Format stage.
	KeyOutputDir = "output_dir"

	// KeyLocalRepoPath holds the filesystem path of the checked-out or
	// cached repository. Written by PrepareRepo; read by every analysis
	// stage.
	KeyLocalRepoPath = "local_repo_path"

	// KeyRepoStats holds size/file-count/language-breakdown produced by
	// PrepareRepo.
	KeyRepoStats = "repo_stats"

	// KeyCodeStructure holds the []codeparse.FileEntry tree produced by
	// ParseCodeBatch.
	KeyCodeStructure = "code_structure"

	// KeyCommitHistory holds the []repoanalysis.CommitRecord sequence
	// produced by AnalyzeHistory.
	KeyCommitHistory = "commit_history"

	// KeyHistorySummary holds the LLM-written narrative summary of
	// commit_history, also produced by AnalyzeHistory.
	KeyHistorySummary = "history_summary"

	// KeyDependencies holds the module dependency graph produced by
	// ParseCodeBatch.
	KeyDependencies = "dependencies"

	// KeyCoreModules holds the []repoanalysis.ModuleDescriptor list
	// produced by AIUnderstandCoreModules.
	KeyCoreModules = "ai_analysis.core_modules"

	// KeyArchitectureSummary holds the free-text architecture summary
	// produced alongside core modules.
	KeyArchitectureSummary = "ai_analysis.architecture_summary"

	// KeyCoreModulesQuality holds the quality score AIUnderstandCoreModules
	// assigned its own output (degraded paths write 0.4).
	KeyCoreModulesQuality = "ai_analysis.quality"

	// KeyRAGChunks holds the []repoanalysis.Chunk sequence produced by
	// PrepareRAGData.
	KeyRAGChunks = "rag.chunks"

	// KeyProcessErrors accumulates ErrorRecord values raised by any node.
	KeyProcessErrors = "process_status.errors"

	// KeyMermaidReport holds the []mermaid.ValidationFinding list produced
	// by the Mermaid Validation Engine.
	KeyMermaidReport = "mermaid_report"

	// KeyCombinedDocuments holds the path->Document mapping Combine
	// produces before Format applies emoji headings, TOC injection, and
	// navigation footers.
	KeyCombinedDocuments = "assembly.combined_documents"

	// KeyFinalDocuments holds the path->Markdown mapping produced by
	// Combine/Format, ready for the file-tree writer.
	KeyFinalDocuments = "final_documents"

	// KeyWrittenFiles holds the list of filesystem paths Format wrote to
	// output_dir.
	KeyWrittenFiles = "assembly.written_files"
)

// GeneratedContentKey returns the blackboard key a content generator
// writes its Markdown section under.
func GeneratedContentKey(section string) string {
	return "generated_content." + section
}

// QualityScoreKey returns the blackboard key a ContentQualityCheck node
// writes a section's composite score under.
func QualityScoreKey(section string) string {
	return "quality_scores." + section
}

// ModuleDetailKey returns the blackboard key the ModuleDetails batch node
// writes one module's detail page under.
func ModuleDetailKey(moduleName string) string {
	return "generated_content.module_details." + moduleName
}
