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
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownSource is returned for a source name the manager does not know.
	ErrUnknownSource = errors.New("unknown data source")
	// ErrUnknownSourceType is returned when no loader handles a source's type.
	ErrUnknownSourceType = errors.New("no loader registered for source type")
)

var validate = validator.New()

// Manager handles loading and caching of data sources.
// Source metadata is registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	sources map[string]*Source
	order   []string

	// Cached tables indexed by source name, populated lazily.
	tables map[string]*Table

	loaders map[string]Loader

	// Base directory for resolving relative paths.
	baseDir string

	log logr.Logger
}

// NewManager creates a manager with the given loaders.
func NewManager(loaders ...Loader) *Manager {
	m := &Manager{
		sources: make(map[string]*Source),
		tables:  make(map[string]*Table),
		loaders: make(map[string]Loader),
		log:     logr.Discard(),
	}
	for _, l := range loaders {
		m.RegisterLoader(l)
	}
	return m
}

// SetLogger sets the logger used for load events.
func (m *Manager) SetLogger(log logr.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log.WithName("datasources")
}

// RegisterLoader registers a loader for its source type, replacing any
// previous one.
func (m *Manager) RegisterLoader(loader Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// LoadConfig reads a YAML data source document. Relative file paths resolve
// against the document's directory.
func (m *Manager) LoadConfig(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", configPath)
	}
	m.SetBaseDir(filepath.Dir(configPath))
	for i := range cfg.Sources {
		m.AddSource(&cfg.Sources[i])
	}
	return nil
}

// ParseConfig decodes and validates a data source document. Unknown keys are
// rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding data sources")
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validating data sources")
	}
	seen := map[string]bool{}
	for _, s := range cfg.Sources {
		if seen[s.Name] {
			return nil, errors.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true
	}
	return &cfg, nil
}

// SetBaseDir sets the directory relative file paths resolve against.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// AddSource registers a source, replacing one of the same name and dropping
// its cached data.
func (m *Manager) AddSource(source *Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[source.Name]; !ok {
		m.order = append(m.order, source.Name)
	}
	m.sources[source.Name] = source
	delete(m.tables, source.Name)
}

// RegisterTable registers an in-memory table as a source named name.
func (m *Manager) RegisterTable(name, description string, table *Table) {
	m.AddSource(&Source{Name: name, Type: "memory", Description: description})
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = table
}

// SourceNames returns source names in registration order.
func (m *Manager) SourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Source returns the named source.
func (m *Manager) Source(name string) (*Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sources[name]
	return s, ok
}

// LoadData returns the data of a source, loading it on first use.
func (m *Manager) LoadData(sourceName string) (*Table, error) {
	m.mu.RLock()
	if table, ok := m.tables[sourceName]; ok {
		m.mu.RUnlock()
		return table, nil
	}
	source, ok := m.sources[sourceName]
	if !ok {
		m.mu.RUnlock()
		return nil, errors.Wrapf(ErrUnknownSource, "%q", sourceName)
	}
	loader, hasLoader := m.loaders[source.Type]
	baseDir, log := m.baseDir, m.log
	m.mu.RUnlock()

	if !hasLoader {
		return nil, errors.Wrapf(ErrUnknownSourceType, "%q", source.Type)
	}

	table, err := loader.Load(resolveConfigPaths(source.Config, baseDir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load source %q", sourceName)
	}
	if len(source.Columns) > 0 {
		table.Columns = append([]string(nil), source.Columns...)
	}
	log.V(1).Info("loaded data source", "source", sourceName, "type", source.Type, "records", table.Len())

	m.mu.Lock()
	defer m.mu.Unlock()
	// a concurrent load may have won; keep the first table
	if cached, ok := m.tables[sourceName]; ok {
		return cached, nil
	}
	m.tables[sourceName] = table
	return table, nil
}

// InvalidateCache drops the cached data of a source. In-memory tables cannot
// be reloaded and are kept.
func (m *Manager) InvalidateCache(sourceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sources[sourceName]; ok && s.Type == "memory" {
		return
	}
	delete(m.tables, sourceName)
}

// IsLoaded reports whether the data of a source is cached.
func (m *Manager) IsLoaded(sourceName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[sourceName]
	return ok
}

// LoadedSources returns the names of all cached sources, sorted.
func (m *Manager) LoadedSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
