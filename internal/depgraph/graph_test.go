// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import "testing"

func TestGraph_AddNodeIdempotent(t *testing.T) {
	g := NewGraph()
	id1 := g.AddNode("a.go", "go")
	id2 := g.AddNode("a.go", "go")
	if id1 != id2 {
		t.Errorf("AddNode returned different ids for the same path: %d != %d", id1, id2)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestGraph_AddEdge_UnknownNode(t *testing.T) {
	g := NewGraph()
	a := g.AddNode("a.go", "go")
	if err := g.AddEdge(a, NodeID(99), "b"); err == nil {
		t.Error("expected error adding edge to unknown node")
	}
}

func TestGraph_DetectCycles_SimpleCycle(t *testing.T) {
	g := NewGraph()
	a := g.AddNode("a.go", "go")
	b := g.AddNode("b.go", "go")
	c := g.AddNode("c.go", "go")
	_ = g.AddEdge(a, b, "b")
	_ = g.AddEdge(b, c, "c")
	_ = g.AddEdge(c, a, "a")

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %+v", len(cycles), cycles)
	}
	if len(cycles[0].Nodes) != 3 {
		t.Errorf("cycle length = %d, want 3", len(cycles[0].Nodes))
	}
}

func TestGraph_DetectCycles_NoCycle(t *testing.T) {
	g := NewGraph()
	a := g.AddNode("a.go", "go")
	b := g.AddNode("b.go", "go")
	_ = g.AddEdge(a, b, "b")

	cycles := g.DetectCycles()
	if len(cycles) != 0 {
		t.Errorf("got %d cycles, want 0: %+v", len(cycles), cycles)
	}
}

func TestGraph_DetectCycles_SelfLoop(t *testing.T) {
	g := NewGraph()
	a := g.AddNode("a.go", "go")
	_ = g.AddEdge(a, a, "a")

	cycles := g.DetectCycles()
	if len(cycles) != 1 || len(cycles[0].Nodes) != 1 {
		t.Fatalf("got cycles %+v, want a single one-node self loop", cycles)
	}
}

func TestGraph_DetectCycles_Dedupe(t *testing.T) {
	g := NewGraph()
	a := g.AddNode("a.go", "go")
	b := g.AddNode("b.go", "go")
	x := g.AddNode("x.go", "go")
	_ = g.AddEdge(a, b, "b")
	_ = g.AddEdge(b, a, "a")
	_ = g.AddEdge(x, a, "a")
	_ = g.AddEdge(x, b, "b")

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1 (deduped a<->b cycle): %+v", len(cycles), cycles)
	}
}
