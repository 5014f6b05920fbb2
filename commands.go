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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/rendering"
	"github.com/google/rowgrid/core/server"
	"github.com/google/rowgrid/core/tui"
	"github.com/google/rowgrid/core/views"
	"github.com/google/rowgrid/datasources"
	"github.com/google/rowgrid/demo"
)

var (
	dataPath   string
	configPath string
	groupBy    []string
	columns    []string
	expandAll  bool
	addr       string
	sourcesCfg string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grids over HTTP",
	Long:  "Serve the sources listed in --sources, or the built-in demo data when none are given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, flush := newLogger()
		defer flush()

		var opts []server.Option
		if configPath != "" {
			gridOpts, err := config.Load(configPath)
			if err != nil {
				return err
			}
			opts = append(opts, server.WithGridOptions(gridOpts))
		}

		var srv *server.Server
		var err error
		if sourcesCfg == "" {
			srv, err = demo.SetupDemoServer(log, opts...)
		} else {
			sources := datasources.NewManager(datasources.DefaultLoaders()...)
			sources.SetLogger(log)
			if err := sources.LoadConfig(sourcesCfg); err != nil {
				return err
			}
			srv, err = server.NewServer(sources, append([]server.Option{server.WithLogger(log)}, opts...)...)
		}
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a data file as a grouped grid",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, flush := newLogger()
		defer flush()

		g, cols, err := openGrid(log)
		if err != nil {
			return err
		}
		defer g.Close()
		g.Flush()
		g.SetViewportHeight(max(1, g.Window().TotalHeight()))

		vm := views.Build(g, g.Frame(), nil, filepath.Base(dataPath), cols)
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendering.NewASCIIRenderer(cmd.OutOrStdout()).Render(vm))
		return err
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse a data file interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, flush := newLogger()
		defer flush()

		g, cols, err := openGrid(log)
		if err != nil {
			return err
		}
		defer g.Close()

		p := tea.NewProgram(tui.New(g, os.Stdout, filepath.Base(dataPath), cols), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		_, err = p.Run()
		return err
	},
}

// openGrid loads --data into a grid configured from --config and the view
// flags.
func openGrid(log logr.Logger) (*grid.Grid, []string, error) {
	if dataPath == "" {
		return nil, nil, errors.New("--data is required")
	}
	table, err := datasources.LoadFile(dataPath)
	if err != nil {
		return nil, nil, err
	}

	var opts config.Options
	if configPath != "" {
		if opts, err = config.Load(configPath); err != nil {
			return nil, nil, err
		}
	}
	if len(groupBy) > 0 {
		opts.GroupBy = groupBy
	}

	g := grid.New(opts, grid.WithDefaults(config.TerminalDefaults()), grid.WithLogger(log))
	g.SetData(table.Records)
	if expandAll {
		g.ExpandAll()
	}
	for _, w := range g.Warnings() {
		log.Info("grid warning", "code", w.Code, "message", w.Message)
	}

	cols := columns
	if len(cols) == 0 {
		cols = table.Columns
	}
	return g, cols, nil
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&sourcesCfg, "sources", "", "YAML data source document; serves demo data when empty")
	serveCmd.Flags().StringVar(&configPath, "config", "", "YAML grid options applied to every grid")

	for _, c := range []*cobra.Command{showCmd, tuiCmd} {
		c.Flags().StringVar(&dataPath, "data", "", "CSV, JSON or YAML data file")
		c.Flags().StringVar(&configPath, "config", "", "YAML grid options")
		c.Flags().StringSliceVar(&groupBy, "group", nil, "fields to group by, outermost first")
		c.Flags().StringSliceVar(&columns, "columns", nil, "fields to show")
		c.Flags().BoolVar(&expandAll, "expand-all", false, "start with every group expanded")
		_ = c.MarkFlagRequired("data")
	}

	rootCmd.AddCommand(serveCmd, showCmd, tuiCmd)
}
