// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package codeparse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/sql"
)

// ParseSQL parses a SQL script, extracting CREATE TABLE (with its
// columns), CREATE INDEX, and CREATE VIEW statements as symbols.
// Grounded on services/code_buddy/ast/sql_parser.go's SQLParser and
// sql_queries.go's node type constants; the "statement" wrapper node
// tree-sitter-sql puts around each top-level statement is unwrapped
// the same way.
func ParseSQL(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	return runSitterParse(ctx, sql.GetLanguage(), content, filePath, "sql", extractSQL)
}

func extractSQL(root *sitter.Node, content []byte, filePath string, result *ParseResult) {
	walkSQL(root, content, result)
}

func walkSQL(node *sitter.Node, content []byte, result *ParseResult) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "create_table":
		extractSQLTable(node, content, result)
		return
	case "create_index":
		extractSQLIndex(node, content, result)
		return
	case "create_view":
		extractSQLView(node, content, result)
		return
	case "comment":
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkSQL(node.Child(i), content, result)
	}
}

func extractSQLTable(node *sitter.Node, content []byte, result *ParseResult) {
	var tableName string
	var columnDefs *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "object_reference":
			tableName = sqlIdentifier(child, content)
		case "column_definitions":
			columnDefs = child
		}
	}
	if tableName == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:      tableName,
		Kind:      SymbolKindClass,
		Location:  loc(node),
		Exported:  true,
		Signature: "CREATE TABLE " + tableName,
	})
	if columnDefs != nil {
		extractSQLColumns(columnDefs, content, tableName, result)
	}
}

func extractSQLColumns(node *sitter.Node, content []byte, tableName string, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "column_definition" {
			extractSQLColumn(child, content, tableName, result)
		}
	}
}

func extractSQLColumn(node *sitter.Node, content []byte, tableName string, result *ParseResult) {
	var columnName, dataType string
	isPrimaryKey, isUnique, isNotNull := false, false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if columnName == "" {
				columnName = text(child, content)
			}
		case "int", "varchar", "decimal", "timestamp", "date", "bool", "text", "blob":
			dataType = text(child, content)
		case "keyword_primary":
			isPrimaryKey = true
		case "keyword_unique":
			isUnique = true
		case "keyword_not":
			if i+1 < int(node.ChildCount()) && node.Child(i+1).Type() == "keyword_null" {
				isNotNull = true
			}
		}
	}
	if columnName == "" {
		return
	}
	signature := columnName
	if dataType != "" {
		signature += " " + dataType
	}
	if isPrimaryKey {
		signature += " PRIMARY KEY"
	}
	if isUnique && !isPrimaryKey {
		signature += " UNIQUE"
	}
	if isNotNull {
		signature += " NOT NULL"
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:      fmt.Sprintf("%s.%s", tableName, columnName),
		Kind:      SymbolKindVariable,
		Location:  loc(node),
		Exported:  true,
		Signature: signature,
	})
}

func extractSQLIndex(node *sitter.Node, content []byte, result *ParseResult) {
	var indexName, tableName string
	isUnique := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "keyword_unique":
			isUnique = true
		case "identifier":
			if indexName == "" {
				indexName = text(child, content)
			}
		case "object_reference":
			tableName = sqlIdentifier(child, content)
		}
	}
	if indexName == "" {
		return
	}
	signature := "CREATE "
	if isUnique {
		signature += "UNIQUE "
	}
	signature += "INDEX " + indexName
	if tableName != "" {
		signature += " ON " + tableName
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:      indexName,
		Kind:      SymbolKindConstant,
		Location:  loc(node),
		Exported:  true,
		Signature: signature,
	})
}

func extractSQLView(node *sitter.Node, content []byte, result *ParseResult) {
	var viewName string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "object_reference" && viewName == "" {
			viewName = sqlIdentifier(child, content)
		}
	}
	if viewName == "" {
		return
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:      viewName,
		Kind:      SymbolKindType,
		Location:  loc(node),
		Exported:  true,
		Signature: "CREATE VIEW " + viewName,
	})
}

func sqlIdentifier(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return text(child, content)
		}
	}
	return ""
}
