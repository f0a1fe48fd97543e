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

const testBashSource = `#!/bin/bash
source ./lib/common.sh
export APP_ENV="production"
readonly MAX_RETRIES=3
LOCAL_TMP=/tmp/build

# Deploys the current build.
deploy() {
  echo "deploying"
}
`

func TestParseBash_Symbols(t *testing.T) {
	result, err := ParseBash(context.Background(), []byte(testBashSource), "deploy.sh")
	if err != nil {
		t.Fatalf("ParseBash() error = %v", err)
	}
	if len(result.Imports) != 1 || result.Imports[0].Path != "./lib/common.sh" {
		t.Errorf("Imports = %+v, want single source of ./lib/common.sh", result.Imports)
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if env, ok := names["APP_ENV"]; !ok || !env.Exported {
		t.Errorf("APP_ENV = %+v, want exported", env)
	}
	if retries, ok := names["MAX_RETRIES"]; !ok || retries.Kind != SymbolKindConstant {
		t.Errorf("MAX_RETRIES = %+v, want constant (readonly)", retries)
	}
	if _, ok := names["LOCAL_TMP"]; !ok {
		t.Error("expected LOCAL_TMP top-level assignment to be extracted")
	}
	if fn, ok := names["deploy"]; !ok || fn.Kind != SymbolKindFunction {
		t.Errorf("deploy = %+v, want function", fn)
	} else if fn.DocComment == "" {
		t.Error("expected deploy's preceding comment to be captured")
	}
}
