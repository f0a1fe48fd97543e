// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depgraph builds the module dependency graph a repository
// analysis run derives from aggregated file imports, per spec.md §9's
// Design Notes: nodes carry stable integer ids with a side map back to
// their path, edges are import relationships between modules, and
// cycles are detected and annotated rather than traversed
// depth-unbounded.
package depgraph

import "fmt"

// NodeID is a stable integer identifier for a module-graph node. IDs
// are assigned in insertion order and never reused within a Graph's
// lifetime, so callers can keep a side map from NodeID to their own
// richer per-module data (e.g. a ModuleDescriptor) without the graph
// itself needing to know that type.
type NodeID int

// Node is a single module in the dependency graph: a source file or
// package path plus the language it was parsed as.
type Node struct {
	ID       NodeID
	Path     string
	Language string
}

// Edge is a directed import relationship between two modules.
type Edge struct {
	From NodeID
	To   NodeID
	// ImportPath is the raw string the source module imported, kept
	// for edges that resolve to an external (unindexed) placeholder.
	ImportPath string
}

// Cycle is a set of nodes forming a dependency cycle, in traversal
// order (Nodes[0] depends on Nodes[1], ..., the last depends on
// Nodes[0]).
type Cycle struct {
	Nodes []NodeID
}

// Graph is a directed graph of module dependencies. It is built once
// via Builder.Build and is safe for concurrent reads afterward; it is
// not safe to mutate concurrently with reads.
//
// Grounded on _examples/other_examples/ldemailly-depgraph__graph.go's
// Node/Edge/Graph/Cycle shape, adapted from string-keyed nodes to
// stable integer ids per spec.md §9's requirement, and extended with
// an adjacency index for cycle detection.
type Graph struct {
	nodes     []*Node
	pathToID  map[string]NodeID
	edges     []Edge
	adjacency map[NodeID][]NodeID
	cycles    []Cycle
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		pathToID:  make(map[string]NodeID),
		adjacency: make(map[NodeID][]NodeID),
	}
}

// AddNode returns the NodeID for path, creating a new node if one does
// not already exist for it. Safe to call repeatedly with the same path.
func (g *Graph) AddNode(path, language string) NodeID {
	if id, ok := g.pathToID[path]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{ID: id, Path: path, Language: language})
	g.pathToID[path] = id
	return id
}

// AddEdge records a directed dependency from -> to. Both nodes must
// already exist (via AddNode); AddEdge does not create placeholders
// itself, since resolving an external/unindexed import path to a node
// is the builder's job.
func (g *Graph) AddEdge(from, to NodeID, importPath string) error {
	if int(from) < 0 || int(from) >= len(g.nodes) {
		return fmt.Errorf("depgraph: unknown source node %d", from)
	}
	if int(to) < 0 || int(to) >= len(g.nodes) {
		return fmt.Errorf("depgraph: unknown target node %d", to)
	}
	g.edges = append(g.edges, Edge{From: from, To: to, ImportPath: importPath})
	g.adjacency[from] = append(g.adjacency[from], to)
	return nil
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node for id, or nil if id is out of range.
func (g *Graph) Node(id NodeID) *Node {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// PathForID returns the path recorded for id and whether id is valid.
// Callers use this to build a side map from NodeID to their own
// per-module descriptor type.
func (g *Graph) PathForID(id NodeID) (string, bool) {
	n := g.Node(id)
	if n == nil {
		return "", false
	}
	return n.Path, true
}

// IDForPath returns the NodeID assigned to path, if any.
func (g *Graph) IDForPath(path string) (NodeID, bool) {
	id, ok := g.pathToID[path]
	return id, ok
}

// Nodes returns every node in insertion (id) order. The returned slice
// must not be mutated.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns every edge in insertion order. The returned slice must
// not be mutated.
func (g *Graph) Edges() []Edge { return g.edges }

// Dependencies returns the ids that id directly depends on (its
// outgoing edges' targets).
func (g *Graph) Dependencies(id NodeID) []NodeID {
	return g.adjacency[id]
}

// Cycles returns the cycles detected by the last call to DetectCycles,
// or nil if it has not been run.
func (g *Graph) Cycles() []Cycle { return g.cycles }
