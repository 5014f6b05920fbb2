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

package demo

import (
	"github.com/go-logr/logr"

	"github.com/google/rowgrid/core/server"
)

// SetupDemoServer creates a server over the demo sources.
func SetupDemoServer(log logr.Logger, opts ...server.Option) (*server.Server, error) {
	sources, err := Sources()
	if err != nil {
		return nil, err
	}
	sources.SetLogger(log)
	for _, name := range sources.SourceNames() {
		table, err := sources.LoadData(name)
		if err != nil {
			return nil, err
		}
		log.Info("demo source ready", "source", name, "records", table.Len(), "columns", len(table.Columns))
	}
	opts = append([]server.Option{
		server.WithLogger(log),
		server.WithTitle("rowgrid demo", "Grouped, virtualized grids over sample data"),
	}, opts...)
	return server.NewServer(sources, opts...)
}
