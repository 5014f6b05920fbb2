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

// Package rendering paints grid view models as HTML or terminal text.
package rendering

import (
	"embed"
	"io"

	"github.com/google/safehtml/template"
	"github.com/pkg/errors"

	"github.com/google/rowgrid/core/views"
)

//go:embed templates/*
var templateFS embed.FS

// HTMLRenderer renders view models with the embedded templates.
type HTMLRenderer struct {
	gridTemplate    *template.Template
	landingTemplate *template.Template
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	gridTemplate, err := template.New("grid.html").ParseFS(trustedFS, "templates/grid.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing grid template")
	}
	landingTemplate, err := template.New("landing.html").ParseFS(trustedFS, "templates/landing.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing landing template")
	}
	return &HTMLRenderer{gridTemplate: gridTemplate, landingTemplate: landingTemplate}, nil
}

// Render writes the grid page.
func (r *HTMLRenderer) Render(w io.Writer, vm views.GridViewModel) error {
	return r.gridTemplate.Execute(w, vm)
}

// RenderLanding writes the landing page.
func (r *HTMLRenderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	return r.landingTemplate.Execute(w, vm)
}
