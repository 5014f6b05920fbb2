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

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/views"
)

// GridResponse is the JSON form of one window.
type GridResponse struct {
	Source   string          `json:"source"`
	Columns  []string        `json:"columns"`
	Groups   grid.GroupState `json:"groups"`
	Window   Window          `json:"window"`
	Rows     []Row           `json:"rows"`
	Warnings []string        `json:"warnings,omitempty"`
	Next     string          `json:"next,omitempty"`
	Prev     string          `json:"prev,omitempty"`
}

// Window is the geometry of a response.
type Window struct {
	Start        int `json:"start"`
	End          int `json:"end"`
	VisibleStart int `json:"visibleStart"`
	VisibleEnd   int `json:"visibleEnd"`
	ScrollOffset int `json:"scrollOffset"`
	TotalHeight  int `json:"totalHeight"`
	RowCount     int `json:"rowCount"`
}

// Row is one row of a response. Group rows carry aggregates in Cells.
type Row struct {
	Index    int               `json:"index"`
	Key      string            `json:"key"`
	Group    bool              `json:"group"`
	Label    string            `json:"label,omitempty"`
	Depth    int               `json:"depth"`
	Expanded bool              `json:"expanded,omitempty"`
	Selected bool              `json:"selected,omitempty"`
	Classes  string            `json:"classes,omitempty"`
	Cells    map[string]string `json:"cells"`
}

func (s *Server) handleAPI(c *gin.Context) {
	v, status, err := s.buildView(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	defer v.grid.Close()

	frame := v.grid.Frame()
	vm := views.Build(v.grid, frame, v.query, v.source.Name, v.columns())
	resp := GridResponse{
		Source:   v.source.Name,
		Columns:  v.columns(),
		Groups:   vm.Groups,
		Warnings: vm.Warnings,
		Window: Window{
			Start:        frame.Start,
			End:          frame.End,
			VisibleStart: frame.VisibleStart,
			VisibleEnd:   frame.VisibleEnd,
			ScrollOffset: frame.ScrollOffset,
			TotalHeight:  frame.TotalHeight,
			RowCount:     frame.RowCount,
		},
		Rows: make([]Row, 0, len(vm.Rows)),
	}
	if vm.HasNext {
		resp.Next = vm.NextURL.String()
	}
	if vm.HasPrev {
		resp.Prev = vm.PrevURL.String()
	}
	for _, r := range vm.Rows {
		row := Row{Index: r.Index, Key: r.Key, Group: r.IsGroup, Label: r.Label, Depth: r.Depth, Expanded: r.Expanded, Selected: r.Selected, Classes: r.Classes, Cells: map[string]string{}}
		for _, cell := range r.Cells {
			if cell.Value != "" {
				row.Cells[cell.Column] = cell.Value
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	c.JSON(http.StatusOK, resp)
}
