// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	res, err := cueutil.ParseAndDecode[map[string]any](
//	    []byte(schema), data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
//
// Errors carry the file name and the JSON-style path of the offending field,
// e.g. "config.cue: version.abbrev: invalid value 2 (out of bound >=4)".
package cueutil
