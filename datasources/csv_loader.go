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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/csvimport"
)

// CsvLoader implements Loader for CSV files with type detection.
//
// Required config keys:
//   - file_path: path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: field delimiter (default: ",")
//   - sample_size: rows sampled for type detection (default: 100)
//   - types: per-column types, e.g. "zip=string,amount=float64"
type CsvLoader struct{}

// NewCsvLoader creates a new CSV loader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// Load imports the file.
func (l *CsvLoader) Load(config map[string]string) (*Table, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, errors.New("file_path is required")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()
	return LoadCSV(f, config)
}

// LoadCSV imports CSV data from r using the CsvLoader config keys other than
// file_path.
func LoadCSV(r io.Reader, config map[string]string) (*Table, error) {
	options := csvimport.DefaultOptions()
	if config["has_header"] == "false" {
		options.HasHeader = false
	}
	if d := config["delimiter"]; d != "" {
		options.Delimiter = []rune(d)[0]
	}
	if s := config["sample_size"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrap(err, "sample_size")
		}
		options.SampleSize = n
	}
	if list := config["types"]; list != "" {
		for _, entry := range strings.Split(list, ",") {
			name, typ, ok := strings.Cut(entry, "=")
			if !ok {
				return nil, errors.Errorf("types entry %q is not name=type", entry)
			}
			t, err := csvimport.ParseColumnType(typ)
			if err != nil {
				return nil, err
			}
			options.ColumnSources[strings.TrimSpace(name)] = csvimport.ColumnSource{Type: t}
		}
	}

	imported, err := csvimport.ImportFromReader(r, options)
	if err != nil {
		return nil, err
	}
	return &Table{Columns: imported.Columns, Records: imported.Records}, nil
}
