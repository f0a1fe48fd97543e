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

const testCSSSource = `@import url("reset.css");

:root {
  --primary-color: #007bff;
}

.button {
  color: var(--primary-color);
}

#header {
  padding: 8px;
}

@keyframes fade-in {
  from { opacity: 0; }
  to { opacity: 1; }
}
`

func TestParseCSS_Symbols(t *testing.T) {
	result, err := ParseCSS(context.Background(), []byte(testCSSSource), "styles.css")
	if err != nil {
		t.Fatalf("ParseCSS() error = %v", err)
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if v, ok := names["--primary-color"]; !ok || v.Kind != SymbolKindConstant {
		t.Errorf("--primary-color = %+v, want constant", v)
	}
	if c, ok := names["button"]; !ok || c.Kind != SymbolKindClass {
		t.Errorf("button = %+v, want class", c)
	}
	if id, ok := names["header"]; !ok || id.Kind != SymbolKindVariable {
		t.Errorf("header = %+v, want variable (id selector)", id)
	}
	if kf, ok := names["fade-in"]; !ok || kf.Kind != SymbolKindType {
		t.Errorf("fade-in = %+v, want type (keyframes)", kf)
	}
	if len(result.Imports) != 1 || result.Imports[0].Path != "reset.css" {
		t.Errorf("Imports = %+v, want single reset.css", result.Imports)
	}
}
