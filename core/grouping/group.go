/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package grouping turns a flat sequence of records into a tree of groups and
// flattens that tree back into the render-row sequence.
package grouping

import (
	"github.com/google/rowgrid/core/rows"
)

// Terminology:
// * a node is a group at some depth; its key is the join of its path segments
// * a node's children are its sub-groups and the rows whose path ends at it,
//   interleaved in first-seen order
// * rowCount is the number of data rows owned transitively

// Node is one group of the tree.
type Node struct {
	Key      string
	Value    string
	Depth    int
	Parent   *Node
	Children []Child
	RowCount int

	groups map[string]*Node // child lookup by segment value
}

// Child is either a sub-group or a data row.
type Child struct {
	Group *Node
	Row   rows.RenderRow
}

// IsGroup reports whether the child is a sub-group.
func (c Child) IsGroup() bool {
	return c.Group != nil
}

func newNode(key, value string, depth int, parent *Node) *Node {
	return &Node{
		Key:    key,
		Value:  value,
		Depth:  depth,
		Parent: parent,
		groups: map[string]*Node{},
	}
}

// Groups returns the direct sub-groups in first-seen order.
func (n *Node) Groups() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.IsGroup() {
			out = append(out, c.Group)
		}
	}
	return out
}

// Rows returns the data rows whose path ends at this node.
func (n *Node) Rows() []rows.RenderRow {
	var out []rows.RenderRow
	for _, c := range n.Children {
		if !c.IsGroup() {
			out = append(out, c.Row)
		}
	}
	return out
}

// AllRecords returns every record owned transitively, in traversal order.
func (n *Node) AllRecords() []rows.Row {
	out := make([]rows.Row, 0, n.RowCount)
	n.walkRecords(func(r rows.RenderRow) { out = append(out, r.Data) })
	return out
}

func (n *Node) walkRecords(fn func(rows.RenderRow)) {
	for _, c := range n.Children {
		if c.IsGroup() {
			c.Group.walkRecords(fn)
		} else {
			fn(c.Row)
		}
	}
}

// Height returns the number of render rows this subtree contributes: one for
// the header plus, when expanded, the height of every child.
func (n *Node) Height(isExpanded func(key string) bool) int {
	height := 1
	if !isExpanded(n.Key) {
		return height
	}
	for _, c := range n.Children {
		if c.IsGroup() {
			height += c.Group.Height(isExpanded)
		} else {
			height++
		}
	}
	return height
}

func (n *Node) child(value string, tree *Tree) *Node {
	if g, ok := n.groups[value]; ok {
		return g
	}
	key := value
	if n.Depth >= 0 {
		key = JoinKey(n.Key, value)
	}
	g := newNode(key, value, n.Depth+1, n)
	n.groups[value] = g
	n.Children = append(n.Children, Child{Group: g})
	tree.nodes[key] = g
	tree.order = append(tree.order, key)
	return g
}

// Tree is the result of one build pass. It is disposable: a new tree is built
// on every pass.
type Tree struct {
	root      *Node
	nodes     map[string]*Node
	order     []string
	Grouped   int // data rows placed in the tree
	Ungrouped int // data rows left out because their path was empty
}

// Roots returns the top-level groups in first-seen order.
func (t *Tree) Roots() []*Node {
	if t == nil || t.root == nil {
		return nil
	}
	return t.root.Groups()
}

// Lookup returns the node for a composite key.
func (t *Tree) Lookup(key string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.nodes[key]
	return n, ok
}

// Has reports whether key identifies a node of this tree.
func (t *Tree) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// Keys returns every composite key in creation order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// TopLevelKeys returns the keys of the top-level groups in first-seen order.
func (t *Tree) TopLevelKeys() []string {
	roots := t.Roots()
	out := make([]string, len(roots))
	for i, r := range roots {
		out[i] = r.Key
	}
	return out
}

// Len returns the number of groups at every depth.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Empty reports whether no row produced a group.
func (t *Tree) Empty() bool {
	return t.Len() == 0
}

// Walk visits every node depth-first in sibling order.
func (t *Tree) Walk(fn func(n *Node)) {
	var visit func(n *Node)
	visit = func(n *Node) {
		fn(n)
		for _, g := range n.Groups() {
			visit(g)
		}
	}
	for _, r := range t.Roots() {
		visit(r)
	}
}

// Build groups the data rows of input by the paths the resolver returns.
// Sibling order is the order of first appearance, never sorted. Non-data rows
// in input are ignored. A resolver fault aborts the build with ErrResolverFault
// so the caller can fall back to the ungrouped sequence.
func Build(input []rows.RenderRow, resolve PathResolver) (*Tree, error) {
	t := &Tree{
		root:  newNode("", "", -1, nil),
		nodes: map[string]*Node{},
	}
	for _, r := range input {
		if !r.IsData() {
			continue
		}
		path, err := ResolvePath(resolve, r.Data)
		if err != nil {
			return nil, err
		}
		if len(path) == 0 {
			t.Ungrouped++
			continue
		}
		n := t.root
		for _, segment := range path {
			n = n.child(segment, t)
			n.RowCount++
		}
		member := r
		member.Depth = n.Depth + 1
		n.Children = append(n.Children, Child{Row: member})
		t.Grouped++
	}
	return t, nil
}
