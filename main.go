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

// Command rowgrid serves, prints or browses grouped, virtualized grids.
package main

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "rowgrid",
	Short:        "Grouped, virtualized data grids for the browser and the terminal",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging with debug output")
}

// newLogger returns a zap-backed logger and its flush function.
func newLogger() (logr.Logger, func()) {
	var (
		z   *zap.Logger
		err error
	)
	if verbose {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), func() {}
	}
	return zapr.NewLogger(z), func() { _ = z.Sync() }
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
