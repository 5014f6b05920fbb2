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

package grouping

import (
	"github.com/google/rowgrid/core/rows"
)

// FlattenResult is the linear sequence produced from a tree.
type FlattenResult struct {
	Rows        []rows.RenderRow
	VisibleData []rows.Identity // identities of the data rows in Rows
	Groups      int             // group rows in Rows
}

// Flatten walks the tree depth-first. Every node yields a header row; children
// follow only when isExpanded reports the node's key. A collapsed node therefore
// contributes exactly one row however large its subtree is. aggregates may be
// nil.
func Flatten(t *Tree, isExpanded func(key string) bool, aggregates func(n *Node) map[string]any) FlattenResult {
	var res FlattenResult
	if t == nil {
		return res
	}
	res.Rows = make([]rows.RenderRow, 0, t.Len())

	var visit func(n *Node)
	visit = func(n *Node) {
		expanded := isExpanded(n.Key)
		h := &rows.GroupHeader{
			Key:      n.Key,
			Value:    n.Value,
			Depth:    n.Depth,
			Expanded: expanded,
			RowCount: n.RowCount,
		}
		if aggregates != nil {
			h.Aggregates = aggregates(n)
		}
		res.Rows = append(res.Rows, rows.NewGroupRow(h))
		res.Groups++
		if !expanded {
			return
		}
		for _, c := range n.Children {
			if c.IsGroup() {
				visit(c.Group)
				continue
			}
			res.Rows = append(res.Rows, c.Row)
			res.VisibleData = append(res.VisibleData, c.Row.Identity())
		}
	}
	for _, r := range t.Roots() {
		visit(r)
	}
	return res
}
