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

const testHTMLSource = `<html>
<head>
  <link rel="stylesheet" href="styles.css">
  <script src="app.js"></script>
</head>
<body>
  <div id="main"></div>
  <form name="login"></form>
  <my-widget></my-widget>
</body>
</html>
`

func TestParseHTML_Symbols(t *testing.T) {
	result, err := ParseHTML(context.Background(), []byte(testHTMLSource), "index.html")
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if main, ok := names["main"]; !ok || main.Kind != SymbolKindVariable {
		t.Errorf("main = %+v, want variable (id element)", main)
	}
	if login, ok := names["login"]; !ok || login.Kind != SymbolKindVariable {
		t.Errorf("login = %+v, want variable (named form)", login)
	}
	if widget, ok := names["my-widget"]; !ok || widget.Kind != SymbolKindClass {
		t.Errorf("my-widget = %+v, want class (custom element)", widget)
	}

	var importPaths []string
	for _, imp := range result.Imports {
		importPaths = append(importPaths, imp.Path)
	}
	wantImports := map[string]bool{"styles.css": true, "app.js": true}
	for _, p := range importPaths {
		if !wantImports[p] {
			t.Errorf("unexpected import %q", p)
		}
	}
	if len(importPaths) != 2 {
		t.Errorf("got %d imports, want 2: %v", len(importPaths), importPaths)
	}
}
