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
	"strings"
	"testing"
)

const testDockerfileSource = `FROM golang:1.21-alpine AS builder
ARG VERSION=1.0.0
ENV CGO_ENABLED=0
RUN go build -o /app

FROM alpine:3.18 AS production
LABEL maintainer="dev@example.com"
EXPOSE 8080
EXPOSE 8443/tcp
VOLUME ["/data", "/config"]
COPY --from=builder /app /app
`

func TestParseDockerfile_Symbols(t *testing.T) {
	result, err := ParseDockerfile(context.Background(), []byte(testDockerfileSource), "Dockerfile")
	if err != nil {
		t.Fatalf("ParseDockerfile() error = %v", err)
	}

	var stages []string
	for _, sym := range result.Symbols {
		if sym.Kind == SymbolKindClass {
			stages = append(stages, sym.Name)
		}
	}
	if len(stages) != 2 || stages[0] != "builder" || stages[1] != "production" {
		t.Errorf("stages = %v, want [builder production]", stages)
	}

	if len(result.Imports) != 2 {
		t.Fatalf("got %d imports, want 2", len(result.Imports))
	}
	if result.Imports[0].Path != "golang:1.21-alpine" {
		t.Errorf("Imports[0] = %+v", result.Imports[0])
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if v, ok := names["VERSION"]; !ok || !strings.Contains(v.Signature, "1.0.0") {
		t.Errorf("VERSION = %+v, want signature containing 1.0.0", v)
	}
	if _, ok := names["CGO_ENABLED"]; !ok {
		t.Error("missing ENV CGO_ENABLED")
	}
	if _, ok := names["maintainer"]; !ok {
		t.Error("missing LABEL maintainer")
	}
	if _, ok := names["8080"]; !ok {
		t.Error("missing EXPOSE 8080")
	}
	if _, ok := names["/data"]; !ok {
		t.Error("missing VOLUME /data")
	}
}
