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

// Package server serves grids over HTTP: HTML pages, a JSON view of the same
// window, and Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/google/rowgrid/core/config"
	"github.com/google/rowgrid/core/grid"
	"github.com/google/rowgrid/core/query"
	"github.com/google/rowgrid/core/rendering"
	"github.com/google/rowgrid/core/views"
	"github.com/google/rowgrid/datasources"
)

// Server renders grids built from the sources of a datasources.Manager.
// Every request builds its grid from the URL, so the server holds no view
// state.
type Server struct {
	sources  *datasources.Manager
	renderer *rendering.HTMLRenderer
	log      logr.Logger
	defaults config.Resolved

	gridOptions config.Options
	title       string
	subtitle    string

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithGridOptions sets options every grid starts from. View state (grouping,
// filters and sorting) always comes from the request URL.
func WithGridOptions(opts config.Options) Option {
	return func(s *Server) { s.gridOptions = opts }
}

// WithTitle sets the landing page title and subtitle.
func WithTitle(title, subtitle string) Option {
	return func(s *Server) { s.title, s.subtitle = title, subtitle }
}

// NewServer creates a server over sources.
func NewServer(sources *datasources.Manager, opts ...Option) (*Server, error) {
	renderer, err := rendering.NewHTMLRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create renderer")
	}
	s := &Server{
		sources:  sources,
		renderer: renderer,
		log:      logr.Discard(),
		title:    "rowgrid",
		registry: prometheus.NewRegistry(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithName("server")

	defaults, warnings := config.Resolve(s.gridOptions, config.Defaults(), config.WithLogger(s.log))
	if len(warnings) > 0 {
		s.log.Info("server grid options produced warnings", "count", len(warnings))
	}
	defaults.GroupBy, defaults.Filters, defaults.SortBy = nil, nil, nil
	s.defaults = defaults

	s.registry.MustRegister(collectors.NewGoCollector())
	f := promauto.With(s.registry)
	s.requests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "rowgrid_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	s.latency = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rowgrid_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	return s, nil
}

// Registry returns the registry behind /metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Router returns the HTTP routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/", s.handleLanding)
	r.GET("/grid", s.handleGrid)
	r.GET("/grid/metrics", s.handleGridMetrics)
	r.GET("/api/grid", s.handleAPI)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return nil
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		s.latency.WithLabelValues(route).Observe(elapsed.Seconds())
		s.log.V(1).Info("request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "elapsed", elapsed)
	}
}

func (s *Server) handleLanding(c *gin.Context) {
	vm := views.LandingViewModel{Title: s.title, Subtitle: s.subtitle}
	for _, name := range s.sources.SourceNames() {
		src, _ := s.sources.Source(name)
		info := views.SourceInfo{Name: name, Description: src.Description, URL: landingQuery(src).ToSafeURL()}
		if table, err := s.sources.LoadData(name); err != nil {
			s.log.Error(err, "loading source for landing page", "source", name)
		} else {
			info.RecordCount = table.Len()
		}
		vm.Sources = append(vm.Sources, info)
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderLanding(c.Writer, vm); err != nil {
		s.log.Error(err, "rendering landing page")
	}
}

// landingQuery opens a source with its configured view state.
func landingQuery(src *datasources.Source) *query.Query {
	return &query.Query{Path: "/grid", Source: src.Name, Columns: src.Columns, GroupBy: src.Grid.GroupBy, Filters: src.Grid.Filters, Sort: src.Grid.SortBy}
}

// view is one request's grid.
type view struct {
	query  *query.Query
	source *datasources.Source
	table  *datasources.Table
	grid   *grid.Grid
}

func (s *Server) buildView(c *gin.Context) (*view, int, error) {
	q := query.NewQuery(c.Request.URL)
	if q.Source == "" {
		return nil, http.StatusBadRequest, errors.New("missing source parameter")
	}
	src, ok := s.sources.Source(q.Source)
	if !ok {
		return nil, http.StatusNotFound, errors.Wrapf(datasources.ErrUnknownSource, "%q", q.Source)
	}
	table, err := s.sources.LoadData(q.Source)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	opts := src.Grid
	viewOpts := q.Options()
	opts.GroupBy, opts.Filters, opts.SortBy = viewOpts.GroupBy, viewOpts.Filters, viewOpts.SortBy

	g := grid.New(opts, grid.WithDefaults(s.defaults), grid.WithLogger(s.log))
	g.SetData(table.Records)
	q.Apply(g)
	return &view{query: q, source: src, table: table, grid: g}, http.StatusOK, nil
}

func (v *view) columns() []string {
	if len(v.query.Columns) > 0 {
		return v.query.Columns
	}
	return v.table.Columns
}

func (v *view) model() views.GridViewModel {
	title := v.source.Name
	if v.source.Description != "" {
		title = v.source.Description
	}
	return views.Build(v.grid, v.grid.Frame(), v.query, title, v.columns())
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error(err, "request failed", "path", c.Request.URL.Path)
	}
	c.String(status, err.Error())
}

func (s *Server) handleGrid(c *gin.Context) {
	v, status, err := s.buildView(c)
	if err != nil {
		s.fail(c, status, err)
		return
	}
	defer v.grid.Close()

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(c.Writer, v.model()); err != nil {
		s.log.Error(err, "rendering grid", "source", v.source.Name)
	}
}

func (s *Server) handleGridMetrics(c *gin.Context) {
	v, status, err := s.buildView(c)
	if err != nil {
		s.fail(c, status, err)
		return
	}
	defer v.grid.Close()
	v.grid.Frame()
	v.grid.Metrics().Handler().ServeHTTP(c.Writer, c.Request)
}
