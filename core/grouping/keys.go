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

import "strings"

// KeySeparator joins path segments into a composite key. Segments must not
// contain it.
const KeySeparator = "||"

// JoinKey builds the composite key for a path.
func JoinKey(segments ...string) string {
	return strings.Join(segments, KeySeparator)
}

// SplitKey returns the path segments of a composite key.
func SplitKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, KeySeparator)
}

// KeyDepth returns the depth of the group a composite key identifies, 0 for a
// top-level group. It only inspects the key, so it works for stale keys too.
func KeyDepth(key string) int {
	return strings.Count(key, KeySeparator)
}

// ParentKey returns the composite key of the parent group, or "" for top-level keys.
func ParentKey(key string) string {
	i := strings.LastIndex(key, KeySeparator)
	if i < 0 {
		return ""
	}
	return key[:i]
}

// AncestorKeys returns the keys of every ancestor of key, outermost first.
func AncestorKeys(key string) []string {
	segments := SplitKey(key)
	if len(segments) < 2 {
		return nil
	}
	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, JoinKey(segments[:i]...))
	}
	return out
}

// IsAncestor reports whether ancestor is a strict ancestor of key.
func IsAncestor(ancestor, key string) bool {
	return len(key) > len(ancestor) && strings.HasPrefix(key, ancestor+KeySeparator)
}

// IsRelated reports whether a and b are equal or one is an ancestor of the other.
func IsRelated(a, b string) bool {
	return a == b || IsAncestor(a, b) || IsAncestor(b, a)
}

// LastSegment returns the value of the group a composite key identifies.
func LastSegment(key string) string {
	i := strings.LastIndex(key, KeySeparator)
	if i < 0 {
		return key
	}
	return key[i+len(KeySeparator):]
}
