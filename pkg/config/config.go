// Package config loads service configuration from an optional YAML file and
// environment variables using struct tags:
//
//	env:"NAME"        environment variable that overrides the field
//	yaml:"name"       key in the YAML file
//	default:"value"   applied when the field is still zero after loading
//	required:"true"   the field must be non-zero once loading has finished
//
// Nested structs are walked recursively.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator interface allows config structs to implement custom validation logic.
// It runs after files, environment variables and defaults have been applied.
type Validator interface {
	Validate() error
}

// setFromString assigns raw to field according to the field's type.
func setFromString(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to duration: %w", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %w", raw, err)
		}
		field.SetInt(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to convert %s to float: %w", raw, err)
		}
		field.SetFloat(v)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to bool: %w", raw, err)
		}
		field.SetBool(v)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			slice.Index(i).SetString(strings.TrimSpace(p))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

// fieldKey identifies a field by its struct type and name so that identically
// named fields in different nested structs do not collide.
func fieldKey(t reflect.Type, f reflect.StructField) string {
	return t.Name() + "." + f.Name
}

// applyEnv overlays environment variables and records which fields were set.
func applyEnv(val reflect.Value, set map[string]bool) error {
	t := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyEnv(field, set); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := setFromString(field, raw); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		set[fieldKey(t, sf)] = true
	}
	return nil
}

// applyDefaults fills zero fields from default tags and reports missing required fields.
func applyDefaults(val reflect.Value, set map[string]bool) error {
	var result error
	t := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyDefaults(field, set); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}

		def, hasDefault := sf.Tag.Lookup("default")
		if field.IsZero() && hasDefault && def != "" && !set[fieldKey(t, sf)] {
			if err := setFromString(field, def); err != nil {
				result = multierror.Append(result, fmt.Errorf("default for %s: %w", sf.Name, err))
			}
			continue
		}

		if field.IsZero() && isRequired(sf) && !hasDefault {
			result = multierror.Append(result, fmt.Errorf("required field env:%s / yaml:%s is missing",
				sf.Tag.Get("env"), sf.Tag.Get("yaml")))
		}
	}
	return result
}

func isRequired(sf reflect.StructField) bool {
	v := strings.ToLower(sf.Tag.Get("required"))
	return v == "true" || v == "1"
}

func finish[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	set := make(map[string]bool)

	if err := applyEnv(val, set); err != nil {
		return err
	}
	if err := applyDefaults(val, set); err != nil {
		var zero T
		*dest = zero
		return err
	}

	if v, ok := any(*dest).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	} else if v, ok := any(dest).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// GetConfigFromEnvVars loads configuration from environment variables only.
//
//	var cfg MyConfig
//	err := GetConfigFromEnvVars(&cfg)
func GetConfigFromEnvVars[T any](dest *T) error {
	return finish(dest)
}

// GetConfig loads configuration from a YAML file first, then overlays environment
// variables. ${VAR} references inside the file are expanded from the environment.
// If filepath is empty, only environment variables are used. If allowFileErrors
// is true, an unreadable or invalid file falls back to environment variables.
func GetConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if filepath == "" {
		return finish(dest)
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		if allowFileErrors {
			return finish(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), dest); err != nil {
		if allowFileErrors {
			var zero T
			*dest = zero
			return finish(dest)
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return finish(dest)
}
