// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the schema-validated CUE decoding shared by the
// descriptor, state and configuration loaders.
//
// Every CUE document bundlegraph reads goes through the same three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with the schema definition
//  3. Validate and decode into a Go struct
//
// # Usage
//
//	//go:embed module_schema.cue
//	var moduleSchema []byte
//
//	result, err := cueutil.ParseAndDecode[moduleFile](
//	    moduleSchema,
//	    data,
//	    "#Module",
//	    cueutil.WithFilename("lib.core/module.cue"),
//	)
//	if err != nil {
//	    return nil, err // error carries the CUE path of the offending field
//	}
//	return result.Value, nil
package cueutil
