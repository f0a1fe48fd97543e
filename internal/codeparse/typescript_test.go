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

const testTsSource = `import { readFile } from "fs";
const legacy = require("legacy-lib");

export interface Options {
  verbose: boolean;
}

export type ID = string;

export class Client {
  private token: string;

  connect(): void {}
}

export const factory = () => new Client();

function helper(x: number): number {
  return x;
}
`

func TestParseTypeScript_Symbols(t *testing.T) {
	result, err := ParseTypeScript(context.Background(), []byte(testTsSource), "client.ts")
	if err != nil {
		t.Fatalf("ParseTypeScript() error = %v", err)
	}

	var importPaths []string
	for _, imp := range result.Imports {
		importPaths = append(importPaths, imp.Path)
	}
	wantImports := map[string]bool{"fs": true, "legacy-lib": true}
	for _, p := range importPaths {
		if !wantImports[p] {
			t.Errorf("unexpected import %q", p)
		}
	}
	if len(importPaths) != 2 {
		t.Errorf("got %d imports, want 2: %v", len(importPaths), importPaths)
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if opts, ok := names["Options"]; !ok || opts.Kind != SymbolKindInterface || !opts.Exported {
		t.Errorf("Options = %+v, want exported interface", opts)
	}
	if id, ok := names["ID"]; !ok || id.Kind != SymbolKindType {
		t.Errorf("ID = %+v, want type", id)
	}
	if client, ok := names["Client"]; !ok || client.Kind != SymbolKindClass || !client.Exported {
		t.Errorf("Client = %+v, want exported class", client)
	}
	if connect, ok := names["connect"]; !ok || connect.Kind != SymbolKindMethod {
		t.Errorf("connect = %+v, want method", connect)
	}
	if factory, ok := names["factory"]; !ok || factory.Kind != SymbolKindFunction {
		t.Errorf("factory = %+v, want arrow function reclassified as function", factory)
	}
	if helper, ok := names["helper"]; !ok || helper.Exported {
		t.Errorf("helper = %+v, want unexported top-level function", helper)
	}
}

func TestParseTypeScript_TSX(t *testing.T) {
	src := `export function Widget() {
  return null;
}
`
	result, err := ParseTypeScript(context.Background(), []byte(src), "widget.tsx")
	if err != nil {
		t.Fatalf("ParseTypeScript() error = %v", err)
	}
	found := false
	for _, sym := range result.Symbols {
		if sym.Name == "Widget" {
			found = true
		}
	}
	if !found {
		t.Error("expected Widget function symbol from tsx grammar")
	}
}
