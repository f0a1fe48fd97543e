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

const testYAMLSource = `service:
  name: repowiki
  port: 8080
  database:
    host: localhost
    port: 5432
`

func TestParseYAML_Keys(t *testing.T) {
	result, err := ParseYAML(context.Background(), []byte(testYAMLSource), "config.yaml")
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	names := map[string]bool{}
	for _, sym := range result.Symbols {
		names[sym.Name] = true
	}

	for _, want := range []string{"service", "name", "port", "database", "host"} {
		if !names[want] {
			t.Errorf("missing key %q in %+v", want, names)
		}
	}
}
