// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import "sort"

// edgeKey identifies a (node, action) pair; Flow.edges maps it to the
// successor node names reached from it. Most edges have exactly one
// target; a FanOut records several, which the runner treats as
// independent branches, each continuing along its own edges, and the
// run returns only after all of them finish. A FanOut's join node is
// reached from every branch, so it runs once per branch.
type edgeKey struct {
	from   string
	action Action
}

// Flow is a graph of nodes connected by labeled edges. A Flow does not
// implement Node, so one flow cannot be added to another as a sub-flow;
// each flow is handed to a Runner on its own.
type Flow struct {
	name       string
	nodes      map[string]Node
	edges      map[edgeKey][]string
	start      string
	fanOutJoin map[string]string // fan-out branch node name -> join node name
}

// NewFlow creates an empty, named flow. Add nodes and edges, then call
// SetStart before handing the flow to a Runner.
func NewFlow(name string) *Flow {
	return &Flow{
		name:       name,
		nodes:      make(map[string]Node),
		edges:      make(map[edgeKey][]string),
		fanOutJoin: make(map[string]string),
	}
}

// Name returns the flow's identifier.
func (f *Flow) Name() string { return f.name }

// AddNode registers a node. Returns ErrDuplicateNode if the name collides
// and ErrNilNode if node is nil.
func (f *Flow) AddNode(node Node) error {
	if node == nil {
		return ErrNilNode
	}
	if _, exists := f.nodes[node.Name()]; exists {
		return ErrDuplicateNode
	}
	f.nodes[node.Name()] = node
	return nil
}

// SetStart designates the flow's entry node.
func (f *Flow) SetStart(name string) { f.start = name }

// On records a labeled transition from one node to the next. The reserved
// label ActionDefault is used when a node has a single successor.
func (f *Flow) On(from Node, action Action, to Node) *Flow {
	key := edgeKey{from: from.Name(), action: action}
	f.edges[key] = append(f.edges[key], to.Name())
	return f
}

// Then is shorthand for On(from, ActionDefault, to).
func (f *Flow) Then(from, to Node) *Flow {
	return f.On(from, ActionDefault, to)
}

// FanOut records that, on the given action from "from", all of branches
// run as independent parallel-eligible siblings, each of which then
// transitions (via its own ActionDefault edge, recorded here) into join.
// This is how the Content Generation Pipeline's six section generators and
// the ModuleDetails batch stage are wired as siblings under one fan-out point.
func (f *Flow) FanOut(from Node, action Action, branches []Node, join Node) *Flow {
	key := edgeKey{from: from.Name(), action: action}
	for _, b := range branches {
		f.edges[key] = append(f.edges[key], b.Name())
		f.fanOutJoin[b.Name()] = join.Name()
		f.edges[edgeKey{from: b.Name(), action: ActionDefault}] = []string{join.Name()}
	}
	return f
}

// Build validates the graph: every referenced node exists, a start node is
// set, and the graph contains no cycles. Call this once after all nodes
// and edges are registered.
func (f *Flow) Build() error {
	if f.start == "" {
		return ErrNoStartNode
	}
	if _, ok := f.nodes[f.start]; !ok {
		return ErrNodeNotFound
	}
	for key, targets := range f.edges {
		if _, ok := f.nodes[key.from]; !ok {
			return ErrNodeNotFound
		}
		for _, t := range targets {
			if _, ok := f.nodes[t]; !ok {
				return ErrNodeNotFound
			}
		}
	}
	return f.detectCycles()
}

// detectCycles runs a recursive DFS from every node, matching the
// teacher's Builder.detectCycles shape: a recursion stack tracks the
// current path so a revisit of an in-progress node reports the closing
// cycle rather than merely failing on any revisit (DAGs allow diamonds).
func (f *Flow) detectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		visited[name] = true
		recStack[name] = true
		path = append(path, name)

		successors := f.successorsOf(name)
		for _, next := range successors {
			if !visited[next] {
				if err := visit(next); err != nil {
					return err
				}
			} else if recStack[next] {
				return &CycleError{Path: append(append([]string{}, path...), next)}
			}
		}

		path = path[:len(path)-1]
		recStack[name] = false
		return nil
	}

	names := make([]string, 0, len(f.nodes))
	for n := range f.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if !visited[n] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// successorsOf returns the union of all targets reachable from name across
// every action label, used only for cycle detection (which must not care
// about which label fires at runtime).
func (f *Flow) successorsOf(name string) []string {
	var out []string
	for key, targets := range f.edges {
		if key.from == name {
			out = append(out, targets...)
		}
	}
	return out
}

// targets returns the successor node names for a (node, action) pair, or
// nil if that edge is not declared (which terminates the flow at that
// node, per the transition contract).
func (f *Flow) targets(from string, action Action) []string {
	return f.edges[edgeKey{from: from, action: action}]
}

func (f *Flow) node(name string) (Node, bool) {
	n, ok := f.nodes[name]
	return n, ok
}
