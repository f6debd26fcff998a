// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
)

// JSONOutput adds --json to a command's params when embedded.
//
//	type listParams struct {
//	    cli.CacheFlags
//	    cli.JSONOutput
//	}
//
//	if done, err := params.EmitJSON(result); done {
//	    return err
//	}
//	printList(os.Stdout, result)
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"print machine-readable JSON instead of text"`
}

// EmitJSON prints result to stdout when --json is set and reports
// whether it did. A false return means the caller prints text.
func (j *JSONOutput) EmitJSON(result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(os.Stdout, result)
}

// WriteJSON writes value to w as indented JSON. Nil slices, at the top
// level or in struct fields, are written as [] rather than null so that
// consumers can iterate "entries" or "failures" without a null check.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(emptySlices(value))
}

// emptySlices returns value with nil slices replaced by empty ones. It
// descends into structs (by value or pointer) and slices of structs;
// other values are returned unchanged.
func emptySlices(value any) any {
	if value == nil {
		return nil
	}
	normalized := normalize(reflect.ValueOf(value))
	return normalized.Interface()
}

func normalize(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return v
		}
		copied := reflect.New(v.Elem().Type())
		copied.Elem().Set(normalize(v.Elem()))
		return copied

	case reflect.Struct:
		copied := reflect.New(v.Type()).Elem()
		copied.Set(v)
		for i := range v.NumField() {
			field := copied.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(normalize(field))
		}
		return copied

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		if v.Type().Elem().Kind() != reflect.Struct {
			return v
		}
		copied := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			copied.Index(i).Set(normalize(v.Index(i)))
		}
		return copied
	}
	return v
}
