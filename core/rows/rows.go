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

// Package rows defines the record and render-row types shared by every stage of
// the row model: the caller-owned Row, and the RenderRow sequence that grouping
// produces and the viewport slices.
package rows

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is an opaque, caller-owned record. The engine reads fields but never
// writes to a Row.
type Row map[string]any

// Get returns the value stored under field, or nil.
func (r Row) Get(field string) any {
	if r == nil {
		return nil
	}
	return r[field]
}

// String returns the field value formatted for display. Missing values are "".
func (r Row) String(field string) string {
	return FormatValue(r.Get(field))
}

// FormatValue converts a cell value to its display string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Kind tags a RenderRow.
type Kind int

const (
	// KindData is a row carrying a caller record.
	KindData Kind = iota
	// KindGroup is a group header row.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// GroupHeader is the payload of a group render row.
type GroupHeader struct {
	Key        string         // composite key
	Value      string         // last path segment
	Depth      int            // 0 for top-level groups
	Expanded   bool           // whether the group's children follow in the sequence
	RowCount   int            // transitive number of data rows
	Aggregates map[string]any // field -> reduced value; nil entries render blank
}

// RenderRow is one addressable entry of the flattened sequence. Exactly one of
// Group (KindGroup) or Data (KindData) is meaningful.
type RenderRow struct {
	Kind          Kind
	Group         *GroupHeader
	Data          Row
	OriginalIndex int // index of Data in the caller's dataset, -1 for groups
	Depth         int // nesting depth used for indentation
}

// NewDataRow wraps a caller record at its original index.
func NewDataRow(row Row, index int) RenderRow {
	return RenderRow{Kind: KindData, Data: row, OriginalIndex: index}
}

// NewGroupRow wraps a group header.
func NewGroupRow(h *GroupHeader) RenderRow {
	return RenderRow{Kind: KindGroup, Group: h, OriginalIndex: -1, Depth: h.Depth}
}

// FromRecords wraps a dataset as data render rows in input order.
func FromRecords(records []Row) []RenderRow {
	out := make([]RenderRow, len(records))
	for i, r := range records {
		out[i] = NewDataRow(r, i)
	}
	return out
}

// IsGroup reports whether r is a group header.
func (r RenderRow) IsGroup() bool {
	return r.Kind == KindGroup && r.Group != nil
}

// IsData reports whether r carries a caller record.
func (r RenderRow) IsData() bool {
	return r.Kind == KindData
}

// Identity returns the data identity of the row: the group key for headers and
// the original index for data rows. Selection and focus are tracked by identity,
// never by render position.
func (r RenderRow) Identity() Identity {
	if r.IsGroup() {
		return GroupIdentity(r.Group.Key)
	}
	return DataIdentity(r.OriginalIndex)
}

// Identity is a stable, comparable handle on a render row's underlying data.
type Identity string

// GroupIdentity returns the identity of the group with the given composite key.
func GroupIdentity(key string) Identity {
	return Identity("g:" + key)
}

// DataIdentity returns the identity of the record at originalIndex.
func DataIdentity(originalIndex int) Identity {
	return Identity("d:" + strconv.Itoa(originalIndex))
}

// IsGroup reports whether the identity refers to a group header.
func (id Identity) IsGroup() bool {
	return strings.HasPrefix(string(id), "g:")
}

// GroupKey returns the composite key of a group identity.
func (id Identity) GroupKey() (string, bool) {
	return strings.CutPrefix(string(id), "g:")
}

// DataIndex returns the original index of a data identity.
func (id Identity) DataIndex() (int, bool) {
	if len(id) < 3 || id[:2] != "d:" {
		return 0, false
	}
	n, err := strconv.Atoi(string(id[2:]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// DataRows returns the data rows of seq, preserving order.
func DataRows(seq []RenderRow) []RenderRow {
	out := make([]RenderRow, 0, len(seq))
	for _, r := range seq {
		if r.IsData() {
			out = append(out, r)
		}
	}
	return out
}

// CountKinds returns the number of group and data rows in seq.
func CountKinds(seq []RenderRow) (groups, data int) {
	for _, r := range seq {
		if r.IsGroup() {
			groups++
		} else {
			data++
		}
	}
	return groups, data
}

// ToFloat converts numeric cell values to float64. Strings are parsed.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
