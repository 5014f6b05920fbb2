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

package csvimport

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/rowgrid/core/rows"
)

func TestImportBasicCSV(t *testing.T) {
	csvData := `name,age,score,active
Alice,30,1.5,true
Bob,25,2,false
Charlie,35,3.25,TRUE`

	table, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "score", "active"}, table.Columns)
	assert.Equal(t, []ColumnType{ColumnTypeString, ColumnTypeInt64, ColumnTypeFloat64, ColumnTypeBool}, table.Types)
	require.Len(t, table.Records, 3)
	if diff := cmp.Diff(rows.Row{"name": "Alice", "age": int64(30), "score": 1.5, "active": true}, table.Records[0]); diff != "" {
		t.Errorf("first record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2.0, table.Records[1]["score"])
}

func TestImportWithoutHeader(t *testing.T) {
	options := DefaultOptions()
	options.HasHeader = false

	table, err := ImportFromReader(strings.NewReader("Alice,30\nBob,25"), options)
	require.NoError(t, err)
	assert.Equal(t, []string{"column_1", "column_2"}, table.Columns)
	assert.Equal(t, "Bob", table.Records[1]["column_1"])
}

func TestImportWithColumnSources(t *testing.T) {
	options := DefaultOptions()
	options.ColumnSources["zip"] = ColumnSource{Name: "postcode", Type: ColumnTypeString}

	table, err := ImportFromReader(strings.NewReader("zip,city\n01234,Springfield"), options)
	require.NoError(t, err)
	assert.Equal(t, []string{"postcode", "city"}, table.Columns)
	assert.Equal(t, "01234", table.Records[0]["postcode"])
}

func TestImportWithDelimiter(t *testing.T) {
	options := DefaultOptions()
	options.Delimiter = ';'

	table, err := ImportFromReader(strings.NewReader("a;b\n1;x"), options)
	require.NoError(t, err)
	assert.Equal(t, rows.Row{"a": int64(1), "b": "x"}, table.Records[0])
}

func TestImportErrors(t *testing.T) {
	_, err := ImportFromReader(strings.NewReader(""), DefaultOptions())
	assert.ErrorContains(t, err, "empty")

	_, err = ImportFromReader(strings.NewReader("a,b\n"), DefaultOptions())
	assert.ErrorContains(t, err, "no data rows")

	_, err = ImportFromFile("/does/not/exist.csv", DefaultOptions())
	assert.Error(t, err)
}

func TestImportEmptyAndUnparsableValues(t *testing.T) {
	options := DefaultOptions()
	options.SampleSize = 1

	table, err := ImportFromReader(strings.NewReader("n,label\n1,\n,x\nmany,y"), options)
	require.NoError(t, err)
	assert.Equal(t, ColumnTypeInt64, table.Types[0])

	_, present := table.Records[0]["label"]
	assert.False(t, present, "empty cells are absent")
	_, present = table.Records[1]["n"]
	assert.False(t, present)
	assert.Equal(t, "many", table.Records[2]["n"], "values outside the sample keep their text")
}

func TestParseColumnType(t *testing.T) {
	for in, want := range map[string]ColumnType{"": ColumnTypeAuto, "INT": ColumnTypeInt64, "float64": ColumnTypeFloat64, "bool": ColumnTypeBool, "string": ColumnTypeString} {
		got, err := ParseColumnType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseColumnType("decimal")
	assert.Error(t, err)
}
