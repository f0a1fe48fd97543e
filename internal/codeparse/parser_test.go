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

func TestNewDefaultRegistry_SupportsAllLanguages(t *testing.T) {
	reg := NewDefaultRegistry()
	for _, lang := range []string{"go", "python", "typescript", "javascript", "bash", "yaml", "sql", "html", "markdown", "css", "dockerfile"} {
		if !reg.Supports(lang) {
			t.Errorf("registry does not support %q", lang)
		}
	}
	if reg.Supports("cobol") {
		t.Error("registry should not support cobol")
	}
}

func TestRegistry_ParseFile_Go(t *testing.T) {
	reg := NewDefaultRegistry()
	lang, result, err := reg.ParseFile(context.Background(), []byte("package main\n\nfunc main() {}\n"), "main.go")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if lang != "go" {
		t.Errorf("lang = %q, want go", lang)
	}
	if result == nil || result.Package != "main" {
		t.Errorf("result = %+v, want package main", result)
	}
}

func TestRegistry_ParseFile_UnknownLanguage(t *testing.T) {
	reg := NewDefaultRegistry()
	lang, result, err := reg.ParseFile(context.Background(), []byte("binary garbage"), "data.bin")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if lang != "" || result != nil {
		t.Errorf("expected no language/result for data.bin, got lang=%q result=%+v", lang, result)
	}
}

func TestRegistry_Parse_UnregisteredLanguage(t *testing.T) {
	reg := NewDefaultRegistry()
	if _, err := reg.Parse(context.Background(), "cobol", nil, "x.cbl"); err == nil {
		t.Error("expected error for unregistered language")
	}
}
