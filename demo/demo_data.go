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

// Package demo provides sample data sets and a ready-made server over them.
package demo

import (
	"embed"
	"path"

	"github.com/pkg/errors"

	"github.com/google/rowgrid/datasources"
)

//go:embed data/*.csv data/sources.yaml
var dataFS embed.FS

// Sources returns a manager holding the embedded demo sources.
func Sources() (*datasources.Manager, error) {
	raw, err := dataFS.ReadFile("data/sources.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "reading demo sources")
	}
	cfg, err := datasources.ParseConfig(raw)
	if err != nil {
		return nil, err
	}

	m := datasources.NewManager(embeddedCsvLoader{})
	for i := range cfg.Sources {
		src := cfg.Sources[i]
		src.Type = embeddedCsvLoader{}.SourceType()
		m.AddSource(&src)
	}
	return m, nil
}

// embeddedCsvLoader reads CSV sources from the embedded data directory.
type embeddedCsvLoader struct{}

func (embeddedCsvLoader) SourceType() string { return "demo-csv" }

func (embeddedCsvLoader) Load(config map[string]string) (*datasources.Table, error) {
	f, err := dataFS.Open(path.Join("data", config["file_path"]))
	if err != nil {
		return nil, errors.Wrap(err, "opening demo data")
	}
	defer f.Close()
	return datasources.LoadCSV(f, config)
}
