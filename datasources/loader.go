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

// Package datasources loads named data sets for grids from CSV, JSON or YAML
// files, or from tables registered in code.
package datasources

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/rows"
)

// Table is a loaded data set: field names in display order and the records.
type Table struct {
	Columns []string
	Records []rows.Row
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Source describes one data set offered by a Manager.
type Source struct {
	Name        string            `yaml:"name" validate:"required"`
	Type        string            `yaml:"type" validate:"required"`
	Description string            `yaml:"description"`
	Config      map[string]string `yaml:"config"`
	// Columns restricts and orders the displayed fields; empty shows all.
	Columns []string `yaml:"columns"`
	// Grid holds per-source grid options. Request options override them.
	Grid config.Options `yaml:"grid"`
}

// Config is the top-level data source document.
type Config struct {
	Sources []Source `yaml:"sources" validate:"dive"`
}

// Loader reads the data of one source type.
// Built-in loaders handle "csv", "json" and "yaml"; callers can register
// loaders for other formats.
type Loader interface {
	// SourceType returns the identifier used in Source.Type.
	SourceType() string

	// Load reads the data described by a source's Config.
	Load(config map[string]string) (*Table, error)
}

// DefaultLoaders returns the built-in loaders.
func DefaultLoaders() []Loader {
	return []Loader{NewCsvLoader(), NewJSONLoader(), NewYAMLLoader()}
}

// pathKeys are Config entries resolved against the config file's directory.
var pathKeys = map[string]bool{"file_path": true}

func resolveConfigPaths(cfg map[string]string, baseDir string) map[string]string {
	if baseDir == "" {
		return cfg
	}
	resolved := make(map[string]string, len(cfg))
	for k, v := range cfg {
		if pathKeys[k] && v != "" && !filepath.IsAbs(v) {
			v = filepath.Join(baseDir, v)
		}
		resolved[k] = v
	}
	return resolved
}

// LoadFile loads a single data file, picking the loader by extension:
// .csv, .json, .yaml or .yml.
func LoadFile(path string) (*Table, error) {
	var l Loader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		l = NewCsvLoader()
	case ".json":
		l = NewJSONLoader()
	case ".yaml", ".yml":
		l = NewYAMLLoader()
	default:
		return nil, errors.Wrapf(ErrUnknownSourceType, "extension of %s", path)
	}
	return l.Load(map[string]string{"file_path": path})
}
