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

package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnknownOption is returned when a YAML document names an option that does
// not exist.
var ErrUnknownOption = errors.New("unknown grid option")

// Load reads options from a YAML file.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "reading grid config %s", path)
	}
	opts, err := Parse(data)
	if err != nil {
		return Options{}, errors.Wrapf(err, "parsing grid config %s", path)
	}
	return opts, nil
}

// Parse decodes options from YAML. Unknown keys are rejected with
// ErrUnknownOption.
func Parse(data []byte) (Options, error) {
	var opts Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&opts)
	if err == nil || err == io.EOF {
		return opts, nil
	}
	// the strict pass fails for unknown keys and for bad values; a lenient
	// pass tells them apart
	var lenient Options
	if yaml.Unmarshal(data, &lenient) == nil {
		return Options{}, errors.Wrap(ErrUnknownOption, err.Error())
	}
	return Options{}, errors.Wrap(err, "decoding options")
}
