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

package grouping

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/rows"
)

// ErrResolverFault is returned when a PathResolver panics or produces a path
// that cannot be turned into a composite key. Callers degrade the whole dataset
// to ungrouped mode when they see it.
var ErrResolverFault = errors.New("group path resolver fault")

// PathResolver maps a row to its group path, outermost segment first. A nil or
// empty path leaves the row out of the grouped view. Resolvers must be pure and
// cheap: they run once per row on every pass.
type PathResolver func(row rows.Row) []any

// ByFields groups by the values of the given fields, in order. A missing first
// field leaves the row ungrouped; a missing deeper field truncates the path.
func ByFields(fields ...string) PathResolver {
	fields = append([]string(nil), fields...)
	return func(row rows.Row) []any {
		var path []any
		for _, f := range fields {
			v, ok := row[f]
			if !ok || v == nil {
				break
			}
			path = append(path, v)
		}
		return path
	}
}

// ByFunc adapts a single-level key function. A nil result leaves the row ungrouped.
func ByFunc(key func(row rows.Row) any) PathResolver {
	return func(row rows.Row) []any {
		v := key(row)
		if v == nil {
			return nil
		}
		return []any{v}
	}
}

// ResolvePath runs the resolver for one row and converts the path to string
// segments. Panics and malformed segments are reported as ErrResolverFault.
func ResolvePath(resolve PathResolver, row rows.Row) (segments []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = errors.Wrapf(ErrResolverFault, "resolver panicked: %v", r)
		}
	}()

	path := resolve(row)
	if len(path) == 0 {
		return nil, nil
	}
	segments = make([]string, len(path))
	for i, p := range path {
		if p == nil {
			return nil, errors.Wrapf(ErrResolverFault, "nil segment at depth %d", i)
		}
		s := rows.FormatValue(p)
		if strings.Contains(s, KeySeparator) {
			return nil, errors.Wrapf(ErrResolverFault, "segment %q contains the key separator", s)
		}
		segments[i] = s
	}
	return segments, nil
}
