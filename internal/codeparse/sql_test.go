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

const testSQLSource = `CREATE TABLE users (
  id INT PRIMARY KEY,
  email VARCHAR NOT NULL,
  created_at TIMESTAMP
);

CREATE UNIQUE INDEX idx_users_email ON users (email);

CREATE VIEW active_users AS SELECT * FROM users;
`

func TestParseSQL_Symbols(t *testing.T) {
	result, err := ParseSQL(context.Background(), []byte(testSQLSource), "schema.sql")
	if err != nil {
		t.Fatalf("ParseSQL() error = %v", err)
	}

	names := map[string]Symbol{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym
	}

	if users, ok := names["users"]; !ok || users.Kind != SymbolKindClass {
		t.Errorf("users = %+v, want class (table)", users)
	}
	if id, ok := names["users.id"]; !ok || id.Kind != SymbolKindVariable {
		t.Errorf("users.id = %+v, want variable column", id)
	}
	if idx, ok := names["idx_users_email"]; !ok || idx.Kind != SymbolKindConstant {
		t.Errorf("idx_users_email = %+v, want constant (index)", idx)
	}
	if view, ok := names["active_users"]; !ok || view.Kind != SymbolKindType {
		t.Errorf("active_users = %+v, want type (view)", view)
	}
}
