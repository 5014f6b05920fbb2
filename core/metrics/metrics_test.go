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

package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreIndependent(t *testing.T) {
	a := New("a")
	b := New("b")

	a.ObservePass(time.Millisecond, 10, 3)
	a.ObservePass(time.Millisecond, 12, 4)
	a.Fault(KindReducer, 2)
	a.Fault(KindPlugin, 0)
	a.Warning(KindConfig, 1)
	a.Coalesced()
	a.Frame()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.passes))
	assert.Equal(t, 12.0, testutil.ToFloat64(a.rowCount))
	assert.Equal(t, 4.0, testutil.ToFloat64(a.groupCount))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.faults.WithLabelValues(KindReducer)))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.warnings.WithLabelValues(KindConfig)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.passes))
	assert.Equal(t, 1, testutil.CollectAndCount(a.faults))
}

func TestSnapshot(t *testing.T) {
	c := New("s")
	c.ObservePass(time.Millisecond, 7, 2)
	c.Fault(KindResolver, 1)
	c.Warning(KindPlugin, 3)

	s, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Passes)
	assert.Equal(t, 7.0, s.Rows)
	assert.Equal(t, 2.0, s.Groups)
	assert.Equal(t, map[string]float64{KindResolver: 1}, s.Faults)
	assert.Equal(t, map[string]float64{KindPlugin: 3}, s.Warnings)
}

func TestHandlerServesRegistry(t *testing.T) {
	c := New("grid-1")
	c.Frame()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `rowgrid_frames_total{grid="grid-1"} 1`)
}
