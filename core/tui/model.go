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

// Package tui is an interactive terminal viewer for a grid.
package tui

import (
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/plugins"
	"github.com/google/rowgrid/core/rendering"
	"github.com/google/rowgrid/core/views"
)

// frameInterval paces the grid's frame queue.
const frameInterval = 16 * time.Millisecond

// chrome is the number of lines around the rows: title, header, status and
// help.
const chrome = 4

type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Model drives a grid from terminal input. The grid must use the default
// frame queue; every tick runs its queued frames.
type Model struct {
	grid     *grid.Grid
	renderer *rendering.ASCIIRenderer
	title    lipgloss.Style
	help     lipgloss.Style
	name     string
	columns  []string

	width, height int
	frames        int
	quitting      bool
}

// New creates a viewer styled for out.
func New(g *grid.Grid, out io.Writer, name string, columns []string) Model {
	r := lipgloss.NewRenderer(out)
	return Model{
		grid:     g,
		renderer: rendering.NewASCIIRenderer(out),
		title:    r.NewStyle().Bold(true),
		help:     r.NewStyle().Faint(true),
		name:     name,
		columns:  columns,
	}
}

// Frames returns how many ticks ran at least one frame.
func (m Model) Frames() int { return m.frames }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return frameTick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.grid.SetViewportHeight(max(1, msg.Height-chrome))

	case frameMsg:
		if m.grid.Tick() > 0 {
			m.frames++
		}
		return m, frameTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.grid.Window().ViewportHeight()
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.grid.Key("up", false)
	case "down", "j":
		m.grid.Key("down", false)
	case "shift+up", "K":
		m.grid.Key("up", true)
	case "shift+down", "J":
		m.grid.Key("down", true)
	case "left", "h":
		m.grid.Key("left", false)
	case "right", "l":
		m.grid.Key("right", false)
	case "enter":
		m.grid.Key("enter", false)
	case " ", "space":
		m.grid.Key("space", false)
	case "esc":
		m.grid.Key("escape", false)
	case "ctrl+a":
		m.grid.HandleInput(plugins.InputEvent{Type: plugins.EventKey, Key: "a", Index: -1, Ctrl: true})
	case "pgdown", "ctrl+f":
		m.grid.ScrollBy(page)
	case "pgup", "ctrl+b":
		m.grid.ScrollBy(-page)
	case "home", "g":
		m.grid.ScrollTo(0)
	case "end", "G":
		m.grid.ScrollTo(m.grid.Window().TotalHeight())
	case "E":
		m.grid.ExpandAll()
	case "C":
		m.grid.CollapseAll()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	frame := m.grid.Frame()
	vm := views.Build(m.grid, frame, nil, m.name, m.columns)

	var sb strings.Builder
	sb.WriteString(m.title.Render(m.name))
	sb.WriteByte('\n')
	sb.WriteString(m.renderer.Render(vm))
	sb.WriteByte('\n')
	sb.WriteString(m.help.Render("↑/↓ move · ←/→ collapse/expand · enter toggle · space select · E/C all · q quit"))
	return sb.String()
}
