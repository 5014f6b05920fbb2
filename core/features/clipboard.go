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

package features

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rows"
)

// ClipboardWriter receives copied text.
type ClipboardWriter interface {
	WriteText(text string) error
}

// MemoryClipboard keeps the last copied text in memory.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Text returns the last copied text.
func (m *MemoryClipboard) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// CopyEvent is the payload of plugins.EventClipboardCopy.
type CopyEvent struct {
	Rows  int
	Bytes int
}

// Clipboard copies the selected rows as tab-separated text. It finds the
// selection through a query, so it works with any plugin answering
// QuerySelectedRows.
type Clipboard struct {
	writer  ClipboardWriter
	columns []string
	host    plugins.Host
}

// NewClipboard creates the clipboard feature. With no columns, every field
// of the copied rows is written in lexical order.
func NewClipboard(writer ClipboardWriter, columns ...string) *Clipboard {
	if writer == nil {
		writer = &MemoryClipboard{}
	}
	return &Clipboard{writer: writer, columns: columns}
}

func (c *Clipboard) Name() string { return NameClipboard }

func (c *Clipboard) Dependencies() []plugins.Dependency {
	return []plugins.Dependency{plugins.Requires(NameSelection)}
}

func (c *Clipboard) Attach(host plugins.Host) { c.host = host }

func (c *Clipboard) Detach() { c.host = nil }

// Writer returns the destination of copied text.
func (c *Clipboard) Writer() ClipboardWriter {
	return c.writer
}

// HandleInput copies on Ctrl+C or Meta+C.
func (c *Clipboard) HandleInput(ev plugins.InputEvent) bool {
	if ev.Type != plugins.EventKey || ev.Key != "c" || !ev.Modified() {
		return false
	}
	n, err := c.Copy()
	if err != nil && c.host != nil {
		c.host.Logger().Info("copy failed", "severity", "warning", "error", err.Error())
	}
	return n > 0
}

// Copy writes the current selection and returns the number of rows copied.
func (c *Clipboard) Copy() (int, error) {
	if c.host == nil {
		return 0, errors.New("clipboard is not attached")
	}
	v, ok := plugins.First(c.host.Query(plugins.Query{Type: plugins.QuerySelectedRows}))
	if !ok {
		return 0, errors.New("no plugin answers the selection query")
	}
	selected, _ := v.([]rows.RenderRow)
	if len(selected) == 0 {
		return 0, nil
	}
	text := FormatTSV(selected, c.columns)
	if err := c.writer.WriteText(text); err != nil {
		return 0, errors.Wrap(err, "writing clipboard")
	}
	c.host.Bus().Emit(plugins.Event{
		Name:    plugins.EventClipboardCopy,
		Source:  NameClipboard,
		Payload: CopyEvent{Rows: len(selected), Bytes: len(text)},
	})
	return len(selected), nil
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// FormatTSV renders data rows as a header line plus one line per row.
func FormatTSV(seq []rows.RenderRow, columns []string) string {
	data := rows.DataRows(seq)
	if len(columns) == 0 {
		columns = lo.Uniq(lo.FlatMap(data, func(r rows.RenderRow, _ int) []string { return lo.Keys(r.Data) }))
		sort.Strings(columns)
	}
	var b strings.Builder
	b.WriteString(strings.Join(columns, "\t"))
	b.WriteByte('\n')
	for _, r := range data {
		for i, col := range columns {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(tsvEscaper.Replace(r.Data.String(col)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
