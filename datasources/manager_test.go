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

package datasources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/rowgrid/core/rows"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "region,product,amount\nEU,widget,10\nUS,gadget,2.5\n")
	writeFile(t, dir, "people.json", `[{"name":"Ada","age":36},{"name":"Linus","age":28.5,"team":"kernel"}]`)
	writeFile(t, dir, "teams.yaml", "- team: infra\n  size: 4\n- team: web\n  size: 7\n")
	writeFile(t, dir, "sources.yaml", `
sources:
  - name: orders
    type: csv
    description: Orders by region
    config: {file_path: orders.csv}
    columns: [region, amount]
    grid:
      groupBy: [region]
      aggregators: {amount: sum}
  - name: people
    type: json
    config: {file_path: people.json}
  - name: teams
    type: yaml
    config: {file_path: teams.yaml}
  - name: legacy
    type: proto
`)
	return dir
}

func TestManagerLoadConfig(t *testing.T) {
	dir := fixtureDir(t)
	manager := NewManager(DefaultLoaders()...)
	manager.SetLogger(testr.New(t))
	require.NoError(t, manager.LoadConfig(filepath.Join(dir, "sources.yaml")))

	assert.Equal(t, []string{"orders", "people", "teams", "legacy"}, manager.SourceNames())
	assert.False(t, manager.IsLoaded("orders"), "data loads lazily")

	src, ok := manager.Source("orders")
	require.True(t, ok)
	assert.Equal(t, "Orders by region", src.Description)
	assert.Equal(t, []string{"region"}, src.Grid.GroupBy)
	assert.Equal(t, "sum", src.Grid.Aggregators["amount"])

	table, err := manager.LoadData("orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount"}, table.Columns)
	assert.Equal(t, rows.Row{"region": "EU", "product": "widget", "amount": 10.0}, table.Records[0])
	assert.True(t, manager.IsLoaded("orders"))

	again, err := manager.LoadData("orders")
	require.NoError(t, err)
	assert.Same(t, table, again, "second load is served from the cache")

	manager.InvalidateCache("orders")
	assert.False(t, manager.IsLoaded("orders"))
}

func TestStructuredLoaders(t *testing.T) {
	dir := fixtureDir(t)
	manager := NewManager(DefaultLoaders()...)
	require.NoError(t, manager.LoadConfig(filepath.Join(dir, "sources.yaml")))

	people, err := manager.LoadData("people")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "name", "team"}, people.Columns)
	assert.Equal(t, int64(36), people.Records[0]["age"])
	assert.Equal(t, 28.5, people.Records[1]["age"])

	teams, err := manager.LoadData("teams")
	require.NoError(t, err)
	assert.Equal(t, 2, teams.Len())
	assert.Equal(t, int64(7), teams.Records[1]["size"])

	assert.Equal(t, []string{"orders", "people", "teams"}, func() []string {
		_, _ = manager.LoadData("orders")
		return manager.LoadedSources()
	}())
}

func TestManagerErrors(t *testing.T) {
	dir := fixtureDir(t)
	manager := NewManager(DefaultLoaders()...)
	require.NoError(t, manager.LoadConfig(filepath.Join(dir, "sources.yaml")))

	_, err := manager.LoadData("missing")
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = manager.LoadData("legacy")
	assert.ErrorIs(t, err, ErrUnknownSourceType)

	assert.Error(t, manager.LoadConfig(filepath.Join(dir, "nope.yaml")))

	_, err = ParseConfig([]byte("sources:\n  - name: a\n    type: csv\n  - name: a\n    type: csv\n"))
	assert.ErrorContains(t, err, "duplicate source")

	_, err = ParseConfig([]byte("sources:\n  - name: a\n"))
	assert.Error(t, err, "type is required")

	_, err = ParseConfig([]byte("sources:\n  - name: a\n    type: csv\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestRegisterTable(t *testing.T) {
	manager := NewManager()
	table := &Table{Columns: []string{"n"}, Records: []rows.Row{{"n": 1}}}
	manager.RegisterTable("numbers", "Numbers", table)

	got, err := manager.LoadData("numbers")
	require.NoError(t, err)
	assert.Same(t, table, got)

	manager.InvalidateCache("numbers")
	assert.True(t, manager.IsLoaded("numbers"), "in-memory tables survive invalidation")
}

func TestCsvLoaderOptions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "codes.tsv", "zip;n\n01234;5\n")

	table, err := NewCsvLoader().Load(map[string]string{
		"file_path": filepath.Join(dir, "codes.tsv"),
		"delimiter": ";",
		"types":     "zip=string",
	})
	require.NoError(t, err)
	assert.Equal(t, rows.Row{"zip": "01234", "n": int64(5)}, table.Records[0])

	_, err = NewCsvLoader().Load(map[string]string{})
	assert.ErrorContains(t, err, "file_path is required")

	_, err = NewCsvLoader().Load(map[string]string{"file_path": filepath.Join(dir, "codes.tsv"), "types": "zip"})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := fixtureDir(t)

	table, err := LoadFile(filepath.Join(dir, "teams.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"size", "team"}, table.Columns)

	table, err = LoadFile(filepath.Join(dir, "orders.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = LoadFile(filepath.Join(dir, "orders.parquet"))
	assert.ErrorIs(t, err, ErrUnknownSourceType)
}
