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

package rendering

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/google/rowgrid/core/views"
)

// ASCIIRenderer renders view models as terminal text. Colors and attributes
// follow the color profile of the output it was created for, so plain
// buffers get plain text.
type ASCIIRenderer struct {
	header   lipgloss.Style
	group    lipgloss.Style
	selected lipgloss.Style
	focused  lipgloss.Style
	status   lipgloss.Style
	sep      string
}

// NewASCIIRenderer creates a renderer styled for out.
func NewASCIIRenderer(out io.Writer) *ASCIIRenderer {
	r := lipgloss.NewRenderer(out)
	return &ASCIIRenderer{
		header:   r.NewStyle().Bold(true).Underline(true),
		group:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		selected: r.NewStyle().Reverse(true),
		focused:  r.NewStyle().Underline(true),
		status:   r.NewStyle().Faint(true),
		sep:      " | ",
	}
}

// Render returns the window as lines: a header, one line per row and a
// status line.
func (r *ASCIIRenderer) Render(vm views.GridViewModel) string {
	widths := columnWidths(vm)
	var sb strings.Builder

	heads := make([]string, len(vm.Columns))
	for i, c := range vm.Columns {
		heads[i] = pad(c.Name+c.SortMark, widths[i])
	}
	sb.WriteString(r.header.Render(strings.Join(heads, r.sep)))
	sb.WriteByte('\n')

	for _, row := range vm.Rows {
		sb.WriteString(r.line(row, widths))
		sb.WriteByte('\n')
	}
	sb.WriteString(r.status.Render(statusLine(vm)))
	return sb.String()
}

func (r *ASCIIRenderer) line(row views.RowView, widths []int) string {
	indent := strings.Repeat(" ", row.Indent)
	if row.IsGroup {
		marker := "▸ "
		if row.Expanded {
			marker = "▾ "
		}
		text := indent + marker + row.Label
		if row.FullWidth {
			for _, c := range row.Cells {
				if c.Value != "" {
					text += "  " + c.Column + " " + c.Value
				}
			}
		}
		return r.decorate(row, r.group.Render(text))
	}
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		v := c.Value
		if i == 0 {
			v = indent + v
		}
		cells[i] = pad(v, widths[i])
	}
	return r.decorate(row, strings.Join(cells, r.sep))
}

func (r *ASCIIRenderer) decorate(row views.RowView, s string) string {
	switch {
	case row.Selected:
		return r.selected.Render(s)
	case row.Focused:
		return r.focused.Render(s)
	}
	return s
}

func columnWidths(vm views.GridViewModel) []int {
	widths := make([]int, len(vm.Columns))
	for i, c := range vm.Columns {
		widths[i] = lipgloss.Width(c.Name + c.SortMark)
	}
	for _, row := range vm.Rows {
		if row.IsGroup {
			continue
		}
		for i, c := range row.Cells {
			w := lipgloss.Width(c.Value)
			if i == 0 {
				w += row.Indent
			}
			if i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func statusLine(vm views.GridViewModel) string {
	var parts []string
	if vm.Groups.IsActive {
		parts = append(parts, strconv.Itoa(vm.Groups.TotalGroups)+" groups, "+strconv.Itoa(vm.Groups.ExpandedCount)+" expanded")
	}
	parts = append(parts, "rows "+strconv.Itoa(vm.FirstVisible)+"-"+strconv.Itoa(vm.LastVisible)+" of "+strconv.Itoa(vm.TotalRows))
	return strings.Join(parts, " · ")
}
