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
	"github.com/google/rowgrid/core/aggregates"
	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/plugins"
)

// Env is what the built-in factories are configured from.
type Env struct {
	Config    config.Resolved
	Reducers  *aggregates.Registry
	Clipboard ClipboardWriter
}

// DefaultRegistry registers every built-in feature, configured from env.
func DefaultRegistry(env Env) *plugins.Registry {
	cfg := env.Config.Clone()
	reg := plugins.NewRegistry()
	reg.MustRegister(NameGrouping, func() plugins.Plugin { return NewGrouping(cfg, env.Reducers) })
	reg.MustRegister(NameFiltering, func() plugins.Plugin { return NewFiltering(cfg.Filters) })
	reg.MustRegister(NameSorting, func() plugins.Plugin { return NewSorting(cfg.SortBy) })
	reg.MustRegister(NameSelection, func() plugins.Plugin { return NewSelection() })
	reg.MustRegister(NameClipboard, func() plugins.Plugin { return NewClipboard(env.Clipboard) })
	reg.MustRegister(NameReorder, func() plugins.Plugin { return NewReorder() })
	return reg
}
