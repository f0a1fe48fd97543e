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
	"testing"
)

const testGoSource = `package example

import (
	"context"
	"fmt"

	gin "github.com/gin-gonic/gin"
)

// Handler handles HTTP requests.
type Handler struct {
	db Database
}

// Database defines the data access interface.
type Database interface {
	Get(ctx context.Context, id string) (any, error)
}

// HandleGet handles GET requests.
func (h *Handler) HandleGet(ctx *gin.Context) {
}

// NewHandler creates a new Handler instance.
func NewHandler(db Database) *Handler {
	return &Handler{db: db}
}

const MaxSize = 1024

var globalCounter int
`

func TestParseGo_Symbols(t *testing.T) {
	result, err := ParseGo(context.Background(), []byte(testGoSource), "handler.go")
	if err != nil {
		t.Fatalf("ParseGo() error = %v", err)
	}
	if result.Package != "example" {
		t.Errorf("Package = %q, want %q", result.Package, "example")
	}
	if len(result.Imports) != 3 {
		t.Fatalf("got %d imports, want 3", len(result.Imports))
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if names["Handler"].Kind != SymbolKindStruct {
		t.Errorf("Handler kind = %v, want struct", names["Handler"].Kind)
	}
	if names["Database"].Kind != SymbolKindInterface {
		t.Errorf("Database kind = %v, want interface", names["Database"].Kind)
	}
	if names["HandleGet"].Kind != SymbolKindMethod {
		t.Errorf("HandleGet kind = %v, want method", names["HandleGet"].Kind)
	}
	if names["NewHandler"].Kind != SymbolKindFunction {
		t.Errorf("NewHandler kind = %v, want function", names["NewHandler"].Kind)
	}
	if !names["MaxSize"].Exported || names["MaxSize"].Kind != SymbolKindConstant {
		t.Errorf("MaxSize = %+v, want exported constant", names["MaxSize"])
	}
	if names["globalCounter"].Exported {
		t.Error("globalCounter should not be exported")
	}
}

func TestParseGo_SyntaxError(t *testing.T) {
	src := `package example

func Broken( {
	return
}
`
	result, err := ParseGo(context.Background(), []byte(src), "broken.go")
	if err != nil {
		t.Fatalf("ParseGo() error = %v", err)
	}
	if len(result.Errors) == 0 {
		t.Error("expected a syntax error to be recorded")
	}
}

func TestParseGo_Empty(t *testing.T) {
	result, err := ParseGo(context.Background(), []byte(""), "empty.go")
	if err != nil {
		t.Fatalf("ParseGo() error = %v", err)
	}
	if len(result.Symbols) != 0 {
		t.Errorf("got %d symbols, want 0", len(result.Symbols))
	}
}
