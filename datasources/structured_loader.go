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
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/google/rowgrid/core/rows"
)

// JSONLoader implements Loader for files holding a JSON array of objects.
// Integral numbers load as int64, other numbers as float64.
//
// Required config keys:
//   - file_path: path to the JSON file
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// SourceType returns "json".
func (l *JSONLoader) SourceType() string {
	return "json"
}

// Load decodes the file.
func (l *JSONLoader) Load(config map[string]string) (*Table, error) {
	data, err := readSourceFile(config)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decoding JSON records")
	}
	for _, r := range records {
		for k, v := range r {
			if n, ok := v.(json.Number); ok {
				r[k] = jsonNumber(n)
			}
		}
	}
	return newTable(records), nil
}

func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// YAMLLoader implements Loader for files holding a YAML sequence of mappings.
//
// Required config keys:
//   - file_path: path to the YAML file
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// SourceType returns "yaml".
func (l *YAMLLoader) SourceType() string {
	return "yaml"
}

// Load decodes the file.
func (l *YAMLLoader) Load(config map[string]string) (*Table, error) {
	data, err := readSourceFile(config)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "decoding YAML records")
	}
	for _, r := range records {
		for k, v := range r {
			if i, ok := v.(int); ok {
				r[k] = int64(i)
			}
		}
	}
	return newTable(records), nil
}

func readSourceFile(config map[string]string) ([]byte, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, errors.New("file_path is required")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source file")
	}
	return data, nil
}

// newTable collects the union of record keys, in lexical order, as columns.
func newTable(records []map[string]any) *Table {
	seen := map[string]bool{}
	t := &Table{Records: make([]rows.Row, len(records))}
	for i, r := range records {
		t.Records[i] = rows.Row(r)
		for k := range r {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
	}
	sort.Strings(t.Columns)
	return t
}
