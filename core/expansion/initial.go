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

package expansion

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/google/rowgrid/core/grouping"
)

// DefaultKind selects how a DefaultExpanded setting picks keys.
type DefaultKind int

const (
	// DefaultNone expands nothing.
	DefaultNone DefaultKind = iota
	// DefaultAll expands every group at every depth.
	DefaultAll
	// DefaultIndex expands the top-level group at a position.
	DefaultIndex
	// DefaultKeys expands explicit composite keys.
	DefaultKeys
)

// DefaultExpanded is the declarative default-expansion setting: a bool, a
// top-level index, a key or a key list. The zero value expands nothing.
type DefaultExpanded struct {
	kind  DefaultKind
	index int
	keys  []string
}

// ExpandNone returns the setting that leaves every group collapsed.
func ExpandNone() DefaultExpanded { return DefaultExpanded{} }

// ExpandEverything returns the setting that expands every group.
func ExpandEverything() DefaultExpanded { return DefaultExpanded{kind: DefaultAll} }

// ExpandIndex returns the setting that expands the i-th top-level group.
func ExpandIndex(i int) DefaultExpanded { return DefaultExpanded{kind: DefaultIndex, index: i} }

// ExpandKeys returns the setting that expands the given composite keys and their ancestors.
func ExpandKeys(keys ...string) DefaultExpanded {
	return DefaultExpanded{kind: DefaultKeys, keys: append([]string(nil), keys...)}
}

// FromBool maps true to ExpandEverything and false to ExpandNone.
func FromBool(b bool) DefaultExpanded {
	if b {
		return ExpandEverything()
	}
	return ExpandNone()
}

// Kind returns the setting kind.
func (d DefaultExpanded) Kind() DefaultKind { return d.kind }

// KeyCount returns the number of explicit keys.
func (d DefaultExpanded) KeyCount() int { return len(d.keys) }

// Keys resolves the setting against the keys of the first build. Requested keys
// also pull in their ancestors so the group is reachable.
func (d DefaultExpanded) Keys(all []string, topLevel []string) []string {
	switch d.kind {
	case DefaultAll:
		return append([]string(nil), all...)
	case DefaultIndex:
		if d.index < 0 || d.index >= len(topLevel) {
			return nil
		}
		return []string{topLevel[d.index]}
	case DefaultKeys:
		var out []string
		for _, k := range d.keys {
			out = append(out, grouping.AncestorKeys(k)...)
			out = append(out, k)
		}
		return lo.Uniq(out)
	default:
		return nil
	}
}

func (d DefaultExpanded) String() string {
	switch d.kind {
	case DefaultAll:
		return "true"
	case DefaultIndex:
		return strconv.Itoa(d.index)
	case DefaultKeys:
		return "[" + strings.Join(d.keys, ", ") + "]"
	default:
		return "false"
	}
}

// UnmarshalYAML accepts `true`/`false`, an integer index, a single key or a
// list of keys.
func (d *DefaultExpanded) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		switch value.ShortTag() {
		case "!!bool":
			var b bool
			if err := value.Decode(&b); err != nil {
				return errors.Wrap(err, "defaultExpanded")
			}
			*d = FromBool(b)
		case "!!int":
			var i int
			if err := value.Decode(&i); err != nil {
				return errors.Wrap(err, "defaultExpanded")
			}
			*d = ExpandIndex(i)
		case "!!null":
			*d = ExpandNone()
		default:
			*d = ExpandKeys(value.Value)
		}
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := value.Decode(&keys); err != nil {
			return errors.Wrap(err, "defaultExpanded")
		}
		*d = ExpandKeys(keys...)
		return nil
	default:
		return errors.Errorf("defaultExpanded: unsupported YAML node at line %d", value.Line)
	}
}
