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

const testPythonSource = `import os
from typing import Optional
from . import helpers

class Repository:
    """Stores documents."""

    def __init__(self, path):
        self.path = path

    @property
    def size(self):
        return 0

    def _private(self):
        pass

def load(path: str) -> Optional[str]:
    return None
`

func TestParsePython_Symbols(t *testing.T) {
	result, err := ParsePython(context.Background(), []byte(testPythonSource), "repo.py")
	if err != nil {
		t.Fatalf("ParsePython() error = %v", err)
	}
	if len(result.Imports) != 3 {
		t.Fatalf("got %d imports, want 3", len(result.Imports))
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	repo, ok := names["Repository"]
	if !ok || repo.Kind != SymbolKindClass {
		t.Errorf("Repository = %+v, want class", repo)
	}
	if repo.DocComment != "Stores documents." {
		t.Errorf("Repository docstring = %q", repo.DocComment)
	}
	if init, ok := names["__init__"]; !ok || init.Kind != SymbolKindMethod || !init.Exported {
		t.Errorf("__init__ = %+v, want exported method (dunder)", init)
	}
	if size, ok := names["size"]; !ok || size.Kind != SymbolKindConstant {
		t.Errorf("size = %+v, want property mapped to constant", size)
	}
	if priv, ok := names["_private"]; !ok || priv.Exported {
		t.Errorf("_private = %+v, want unexported", priv)
	}
	if load, ok := names["load"]; !ok || load.Kind != SymbolKindFunction {
		t.Errorf("load = %+v, want function", load)
	}
}

func TestParsePython_RelativeImport(t *testing.T) {
	result, err := ParsePython(context.Background(), []byte("from . import helpers\n"), "mod.py")
	if err != nil {
		t.Fatalf("ParsePython() error = %v", err)
	}
	if len(result.Imports) != 1 || result.Imports[0].Path != "." {
		t.Errorf("Imports = %+v, want single \".\" import", result.Imports)
	}
}
