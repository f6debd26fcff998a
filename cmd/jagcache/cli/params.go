// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// requiredAnnotation marks flags declared with required:"true".
const requiredAnnotation = "jagcache_required"

// FlagsFromParams creates a [pflag.FlagSet] bound to the tagged fields
// of params, a pointer to a struct. It panics when params cannot be
// bound: that is a bug in the command definition, not bad user input.
//
//	var params extractParams
//	command := &cli.Command{
//	    Params: func() any { return &params },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        // params is populated here
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// flagSpec is the parsed struct tag set of one field.
type flagSpec struct {
	name        string
	shorthand   string
	description string
	defaultText string
	required    bool
}

// parseFlagSpec reads the tags of field. The second result is false for
// fields without a flag tag.
//
//   - flag:"name" or flag:"name,n" sets the long name and optional
//     one-letter shorthand.
//   - desc:"..." is the help text.
//   - default:"..." is parsed according to the field type.
//   - required:"true" makes the command fail when the flag is not given.
func parseFlagSpec(field reflect.StructField) (flagSpec, bool, error) {
	tag := field.Tag.Get("flag")
	if tag == "" {
		return flagSpec{}, false, nil
	}
	spec := flagSpec{
		description: field.Tag.Get("desc"),
		defaultText: field.Tag.Get("default"),
	}
	spec.name, spec.shorthand, _ = strings.Cut(tag, ",")
	if len(spec.shorthand) > 1 {
		return flagSpec{}, false, fmt.Errorf("flag --%s: shorthand %q is longer than one letter", spec.name, spec.shorthand)
	}
	if required := field.Tag.Get("required"); required != "" {
		value, err := strconv.ParseBool(required)
		if err != nil {
			return flagSpec{}, false, fmt.Errorf("flag --%s: required tag: %w", spec.name, err)
		}
		spec.required = value
	}
	return spec, true, nil
}

// BindFlags registers a pflag for every tagged field of params, a
// pointer to a struct. Supported field types are string, bool, int,
// and []string. Embedded structs are bound recursively, which is how
// shared groups such as [CacheFlags] and [JSONOutput] compose.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(structValue.Field(i), flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		spec, ok, err := parseFlagSpec(field)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		if !ok {
			continue
		}
		if err := bindField(structValue.Field(i).Addr().Interface(), spec, flagSet); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		if spec.required {
			if err := flagSet.SetAnnotation(spec.name, requiredAnnotation, []string{"true"}); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

// bindField registers one flag pointing at target.
func bindField(target any, spec flagSpec, flagSet *pflag.FlagSet) error {
	switch pointer := target.(type) {
	case *string:
		flagSet.StringVarP(pointer, spec.name, spec.shorthand, spec.defaultText, spec.description)

	case *bool:
		var initial bool
		if spec.defaultText != "" {
			parsed, err := strconv.ParseBool(spec.defaultText)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", spec.name, err)
			}
			initial = parsed
		}
		flagSet.BoolVarP(pointer, spec.name, spec.shorthand, initial, spec.description)

	case *int:
		var initial int
		if spec.defaultText != "" {
			parsed, err := strconv.Atoi(spec.defaultText)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", spec.name, err)
			}
			initial = parsed
		}
		flagSet.IntVarP(pointer, spec.name, spec.shorthand, initial, spec.description)

	case *[]string:
		var initial []string
		if spec.defaultText != "" {
			initial = strings.Split(spec.defaultText, ",")
		}
		flagSet.StringSliceVarP(pointer, spec.name, spec.shorthand, initial, spec.description)

	default:
		return fmt.Errorf("unsupported type %s for flag --%s", reflect.TypeOf(target).Elem(), spec.name)
	}
	return nil
}

// missingRequired returns the names of required flags that were not
// given on the command line, sorted by name.
func missingRequired(flagSet *pflag.FlagSet) []string {
	var missing []string
	flagSet.VisitAll(func(flag *pflag.Flag) {
		if _, ok := flag.Annotations[requiredAnnotation]; ok && !flag.Changed {
			missing = append(missing, "--"+flag.Name)
		}
	})
	return missing
}
