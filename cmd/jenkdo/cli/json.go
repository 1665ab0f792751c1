// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/nwidger/jsoncolor"
)

// JSONOutput is an embeddable struct that adds --json output support to
// a command's parameter struct.
//
//	type triggerParams struct {
//	    cli.JSONOutput
//	    Params []string `flag:"param" desc:"build parameter K=V"`
//	}
//
//	// In Run:
//	if done, err := params.EmitJSON(stdout, handle); done {
//	    return err
//	}
//	// ... text formatting ...
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result as indented JSON to w if --json is set.
// Returns (true, nil) on success, (true, err) on write failure, or
// (false, nil) when --json is not set and the caller should proceed
// with text formatting.
func (j *JSONOutput) EmitJSON(w io.Writer, result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(w, normalizeNilSlice(result))
}

// WriteJSON writes value as indented JSON to w, coloured when w is a
// terminal.
func WriteJSON(w io.Writer, value any) error {
	var data []byte
	var err error
	if IsTerminal(w) {
		data, err = jsoncolor.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// normalizeNilSlice returns an empty slice of the same type if value
// is a nil slice, so that JSON serialization produces [] instead of
// null.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
