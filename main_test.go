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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "costs.csv")
	require.NoError(t, os.WriteFile(data, []byte("dept,name,cost\nA,One,10\nA,Two,15\nB,Three,7\n"), 0o644))
	cfg := filepath.Join(dir, "grid.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("aggregators:\n  cost: sum\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"show", "--data", data, "--config", cfg, "--group", "dept", "--expand-all", "--columns", "name,cost"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "▾ A (2)  cost Σ 25", lines[1])
	assert.Equal(t, "▾ B (1)  cost Σ 7", lines[4])
	assert.Contains(t, lines[6], "rows 1-5 of 5")
}
