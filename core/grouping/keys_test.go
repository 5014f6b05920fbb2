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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeKeys(t *testing.T) {
	key := JoinKey("EU", "DE", "Berlin")
	assert.Equal(t, "EU||DE||Berlin", key)
	assert.Equal(t, []string{"EU", "DE", "Berlin"}, SplitKey(key))
	assert.Equal(t, 2, KeyDepth(key))
	assert.Equal(t, 0, KeyDepth("EU"))
	assert.Equal(t, "EU||DE", ParentKey(key))
	assert.Equal(t, "", ParentKey("EU"))
	assert.Equal(t, []string{"EU", "EU||DE"}, AncestorKeys(key))
	assert.Nil(t, AncestorKeys("EU"))
	assert.Nil(t, SplitKey(""))
	assert.Equal(t, "Berlin", LastSegment(key))
	assert.Equal(t, "EU", LastSegment("EU"))
}

func TestIsAncestor(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"EU", "EU||DE", true},
		{"EU", "EU||DE||Berlin", true},
		{"EU||DE", "EU", false},
		{"EU", "EUR||DE", false},
		{"EU", "EU", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAncestor(tt.a, tt.b), "IsAncestor(%q, %q)", tt.a, tt.b)
	}
	assert.True(t, IsRelated("EU||DE", "EU"))
	assert.True(t, IsRelated("EU", "EU"))
	assert.False(t, IsRelated("EU||DE", "EU||FR"))
}

func TestByFieldsTruncatesAtMissingField(t *testing.T) {
	resolve := ByFields("region", "country", "city")
	assert.Equal(t, []any{"EU", "DE"}, resolve(map[string]any{"region": "EU", "country": "DE"}))
	assert.Nil(t, resolve(map[string]any{"country": "DE"}))
}
