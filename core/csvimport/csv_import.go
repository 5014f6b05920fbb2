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

// Package csvimport reads CSV data into grid records with per-column type
// detection.
package csvimport

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/rows"
)

// ColumnType specifies the value type of a column.
type ColumnType int

const (
	// ColumnTypeAuto detects the type from sampled data (default).
	ColumnTypeAuto ColumnType = iota
	ColumnTypeString
	ColumnTypeInt64
	ColumnTypeFloat64
	ColumnTypeBool
)

// String returns the name used in configuration files.
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt64:
		return "int64"
	case ColumnTypeFloat64:
		return "float64"
	case ColumnTypeBool:
		return "bool"
	default:
		return "auto"
	}
}

// ParseColumnType maps a configuration name to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColumnTypeAuto, nil
	case "string":
		return ColumnTypeString, nil
	case "int", "int64":
		return ColumnTypeInt64, nil
	case "float", "float64":
		return ColumnTypeFloat64, nil
	case "bool":
		return ColumnTypeBool, nil
	}
	return ColumnTypeAuto, errors.Errorf("unknown column type %q", s)
}

// ColumnSource configures how one CSV column is imported.
type ColumnSource struct {
	// Name renames the field (defaults to the header).
	Name string
	Type ColumnType
}

// ImportOptions configures CSV import behavior.
type ImportOptions struct {
	// HasHeader indicates whether the first record holds column names.
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma).
	Delimiter rune
	// ColumnSources configures specific columns by header name.
	ColumnSources map[string]ColumnSource
	// SampleSize is the number of rows sampled for type detection.
	SampleSize int
}

// DefaultOptions returns default import options.
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]ColumnSource),
		SampleSize:    100,
	}
}

// Table is an imported CSV file: field names in file order and one record
// per data line. Empty cells are absent from their record, and values that
// do not parse as their column's type are kept as strings.
type Table struct {
	Columns []string
	Types   []ColumnType
	Records []rows.Row
}

// ImportFromFile imports the CSV file at path.
func ImportFromFile(path string, options ImportOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from r.
func ImportFromReader(r io.Reader, options ImportOptions) (*Table, error) {
	csvReader := csv.NewReader(r)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	if len(records) == 0 {
		return nil, errors.New("CSV file is empty")
	}

	var headers []string
	dataRows := records
	if options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = "column_" + strconv.Itoa(i+1)
		}
	}
	if len(dataRows) == 0 {
		return nil, errors.New("CSV file has no data rows")
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}

	table := &Table{
		Columns: make([]string, len(headers)),
		Types:   detectColumnTypes(headers, dataRows, sampleSize, options.ColumnSources),
		Records: make([]rows.Row, 0, len(dataRows)),
	}
	for i, h := range headers {
		table.Columns[i] = strings.TrimSpace(h)
		if src, ok := options.ColumnSources[h]; ok && src.Name != "" {
			table.Columns[i] = src.Name
		}
	}

	for _, record := range dataRows {
		row := make(rows.Row, len(headers))
		for i, name := range table.Columns {
			if i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			if v, err := parseValue(value, table.Types[i]); err == nil {
				row[name] = v
			} else {
				row[name] = value
			}
		}
		table.Records = append(table.Records, row)
	}
	return table, nil
}

func parseValue(s string, t ColumnType) (any, error) {
	switch t {
	case ColumnTypeInt64:
		return strconv.ParseInt(s, 10, 64)
	case ColumnTypeFloat64:
		return strconv.ParseFloat(s, 64)
	case ColumnTypeBool:
		return ParseBool(s)
	}
	return s, nil
}

// ParseBool parses "true", "false", "yes", "no", "t", "f", "y", "n", "1" and
// "0", ignoring case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "t", "y":
		return true, nil
	case "false", "0", "no", "f", "n":
		return false, nil
	}
	return false, errors.Errorf("cannot parse %q as boolean", s)
}

// detectColumnTypes picks the narrowest type every sampled non-empty value
// parses as: int64, then float64, then bool (true/false only), else string.
func detectColumnTypes(headers []string, dataRows [][]string, sampleSize int, sources map[string]ColumnSource) []ColumnType {
	types := make([]ColumnType, len(headers))
	n := min(sampleSize, len(dataRows))

	for i, header := range headers {
		if src, ok := sources[header]; ok && src.Type != ColumnTypeAuto {
			types[i] = src.Type
			continue
		}

		isInt, isFloat, isBool, seen := true, true, true, false
		for _, record := range dataRows[:n] {
			if i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				isFloat = false
			}
			if l := strings.ToLower(value); l != "true" && l != "false" {
				isBool = false
			}
		}

		switch {
		case !seen:
			types[i] = ColumnTypeString
		case isInt:
			types[i] = ColumnTypeInt64
		case isFloat:
			types[i] = ColumnTypeFloat64
		case isBool:
			types[i] = ColumnTypeBool
		default:
			types[i] = ColumnTypeString
		}
	}
	return types
}
