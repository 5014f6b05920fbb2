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
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/google/safehtml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/query"
	"github.com/google/rowgrid/core/rows"
	"github.com/google/rowgrid/core/views"
)

func viewModel(t *testing.T, raw string) views.GridViewModel {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := query.NewQuery(u)
	opts := q.Options()
	opts.Aggregators = map[string]string{"cost": "sum"}
	g := grid.New(opts, grid.WithDefaults(config.TerminalDefaults()))
	g.SetData([]rows.Row{
		{"dept": "A", "name": "One", "cost": 10},
		{"dept": "A", "name": "Two <b>", "cost": 15},
		{"dept": "B", "name": "Three", "cost": 7},
	})
	q.Apply(g)
	return views.Build(g, g.Frame(), q, "Costs", []string{"name", "cost"})
}

func TestHTMLRenderer(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, viewModel(t, "/grid?group=dept&expanded=A")))
	out := buf.String()

	assert.Contains(t, out, "<title>Costs</title>")
	assert.Contains(t, out, "A (2)")
	assert.Contains(t, out, "Σ 25")
	assert.Contains(t, out, "Two &lt;b&gt;", "cell values are escaped")
	assert.Contains(t, out, `data-key="g:B"`)
	assert.Contains(t, out, "rows 1&ndash;4 of 4")
}

func TestHTMLLanding(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderLanding(&buf, views.LandingViewModel{
		Title: "Sources",
		Sources: []views.SourceInfo{
			{Name: "orders", RecordCount: 30, URL: safehtml.URLSanitized("/grid?source=orders")},
		},
	}))
	assert.Contains(t, buf.String(), `href="/grid?source=orders"`)
	assert.Contains(t, buf.String(), "30 records")
}

func TestASCIIRenderer(t *testing.T) {
	var out bytes.Buffer
	text := NewASCIIRenderer(&out).Render(viewModel(t, "/grid?group=dept&expanded=A"))
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 6)

	assert.Equal(t, "name      | cost", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "▾ A (2)  cost Σ 25", lines[1])
	assert.Equal(t, "  One     | 10", strings.TrimRight(lines[2], " "))
	assert.Equal(t, "▸ B (1)  cost Σ 7", lines[4])
	assert.Equal(t, "2 groups, 1 expanded · rows 1-4 of 4", lines[5])
}
