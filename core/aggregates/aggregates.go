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

// Package aggregates computes per-group reductions over the data rows a group
// owns transitively. Built-in reductions keep intermediate state that is
// combined up the grouping hierarchy, so every row is read once per pass.
package aggregates

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/rowgrid/core/rows"
)

// AggregateType names a built-in reduction.
type AggregateType string

const (
	AggSum    AggregateType = "sum"
	AggAvg    AggregateType = "avg"
	AggMin    AggregateType = "min"
	AggMax    AggregateType = "max"
	AggCount  AggregateType = "count"
	AggStdDev AggregateType = "stddev"
	AggUnique AggregateType = "unique"
	AggTrue   AggregateType = "true"
	AggRatio  AggregateType = "ratio"
)

// AggregateSymbol returns the short symbol shown next to an aggregate.
func AggregateSymbol(t AggregateType) string {
	switch t {
	case AggSum:
		return "Σ"
	case AggAvg:
		return "μ"
	case AggMin:
		return "↓"
	case AggMax:
		return "↑"
	case AggCount:
		return "#"
	case AggStdDev:
		return "σ"
	case AggUnique:
		return "∪"
	case AggTrue:
		return "✓"
	case AggRatio:
		return "%"
	default:
		return ""
	}
}

// AggregateState is intermediate reduction state for one group and field.
type AggregateState interface {
	// Add accumulates one cell value. Values the state cannot use are skipped.
	Add(value any)
	// Combine merges a child group's state into this one.
	Combine(other AggregateState)
	// Value returns the reduction for aggType, or nil when there is nothing to show.
	Value(aggType AggregateType) any
}

// NumericAggState stores intermediate state for numeric aggregates.
// It can derive sum, avg, stddev, min, max, and count.
type NumericAggState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of values
	SumSq float64 // Sum of squared values (for stddev)
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState() *NumericAggState {
	return &NumericAggState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Add accumulates a numeric value; non-numeric values are ignored.
func (s *NumericAggState) Add(value any) {
	v, ok := rows.ToFloat(value)
	if !ok {
		return
	}
	s.Count++
	s.Sum += v
	s.SumSq += v * v
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
}

// Combine merges another numeric state into this one.
func (s *NumericAggState) Combine(other AggregateState) {
	o, ok := other.(*NumericAggState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Avg returns the average (mean) of the values.
func (s *NumericAggState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the population standard deviation.
func (s *NumericAggState) StdDev() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := s.Avg()
	// Variance = E[X²] - (E[X])²
	variance := (s.SumSq / float64(s.Count)) - (mean * mean)
	if variance < 0 {
		// floating point noise
		variance = 0
	}
	return math.Sqrt(variance)
}

// Value returns the reduction for aggType.
func (s *NumericAggState) Value(aggType AggregateType) any {
	if aggType == AggCount {
		return s.Count
	}
	if s.Count == 0 {
		return nil
	}
	switch aggType {
	case AggSum:
		return s.Sum
	case AggAvg:
		return s.Avg()
	case AggStdDev:
		return s.StdDev()
	case AggMin:
		return s.Min
	case AggMax:
		return s.Max
	default:
		return nil
	}
}

// BoolAggState stores intermediate state for boolean aggregates.
type BoolAggState struct {
	Count     int64 // Total count
	TrueCount int64 // Count of true values
}

// NewBoolAggState creates a new empty boolean aggregate state.
func NewBoolAggState() *BoolAggState {
	return &BoolAggState{}
}

// Add accumulates a boolean value. Strings "true"/"false" are accepted.
func (s *BoolAggState) Add(value any) {
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return
		}
		b = parsed
	default:
		return
	}
	s.Count++
	if b {
		s.TrueCount++
	}
}

// Combine merges another boolean state into this one.
func (s *BoolAggState) Combine(other AggregateState) {
	o, ok := other.(*BoolAggState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.TrueCount += o.TrueCount
}

// Ratio returns the ratio of true values to total (0.0 to 1.0).
func (s *BoolAggState) Ratio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TrueCount) / float64(s.Count)
}

// Value returns the reduction for aggType.
func (s *BoolAggState) Value(aggType AggregateType) any {
	switch aggType {
	case AggCount:
		return s.Count
	case AggTrue:
		return s.TrueCount
	case AggRatio:
		if s.Count == 0 {
			return nil
		}
		return s.Ratio()
	default:
		return nil
	}
}

// StringAggState stores intermediate state for distinct-value aggregates.
type StringAggState struct {
	Count     int64               // Total count of non-nil values
	UniqueSet map[string]struct{} // Set of unique values
}

// NewStringAggState creates a new empty string aggregate state.
func NewStringAggState() *StringAggState {
	return &StringAggState{
		UniqueSet: make(map[string]struct{}),
	}
}

// Add accumulates any non-nil value by its display string.
func (s *StringAggState) Add(value any) {
	if value == nil {
		return
	}
	s.Count++
	s.UniqueSet[fmt.Sprint(value)] = struct{}{}
}

// Combine merges another string state into this one.
func (s *StringAggState) Combine(other AggregateState) {
	o, ok := other.(*StringAggState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	for k := range o.UniqueSet {
		s.UniqueSet[k] = struct{}{}
	}
}

// UniqueCount returns the number of unique values.
func (s *StringAggState) UniqueCount() int {
	return len(s.UniqueSet)
}

// Value returns the reduction for aggType.
func (s *StringAggState) Value(aggType AggregateType) any {
	switch aggType {
	case AggCount:
		return s.Count
	case AggUnique:
		return int64(s.UniqueCount())
	default:
		return nil
	}
}

// FormatValue formats an aggregate result for display. nil renders blank.
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return formatNumber(n)
	case float32:
		return formatNumber(float64(n))
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	default:
		return fmt.Sprint(v)
	}
}

// formatNumber formats a float64 for display, using appropriate precision.
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	// up to 2 decimal places, trailing zeros trimmed
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
