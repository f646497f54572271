// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const dotEnvFile = ".env"

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedSliceType    = errors.New("unsupported slice type")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

var durationType = reflect.TypeFor[time.Duration]()

// readEnv fills the fields of the struct pointed to by dst from the environment
// variables named in their `env:"NAME[,overwrite]"` tags.
//
// Without overwrite, a variable only fills a field that still holds its zero value.
// Nested structs are walked recursively.
func readEnv(dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer {
		return fmt.Errorf("%w, got %s", errExpectedPointerToStruct, v.Kind())
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w, got a pointer to %s", errExpectedPointerToStruct, v.Kind())
	}

	t := v.Type()

	for i := range v.NumField() {
		field, sf := v.Field(i), t.Field(i)

		if !field.CanSet() {
			continue
		}

		name, overwrite, tagged := envTag(sf)
		if !tagged {
			if field.Kind() == reflect.Struct && field.Type() != durationType {
				if err := readEnv(field.Addr().Interface()); err != nil {
					return err
				}
			}

			continue
		}

		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		if !overwrite && !field.IsZero() {
			continue
		}

		if err := setField(field, sf.Name, name, value); err != nil {
			return err
		}
	}

	return nil
}

func envTag(sf reflect.StructField) (name string, overwrite, ok bool) {
	tag, ok := sf.Tag.Lookup("env")
	if !ok || tag == "" {
		return "", false, false
	}

	parts := strings.Split(tag, ",")

	return parts[0], slices.Contains(parts[1:], "overwrite"), true
}

// setField parses value into field according to the field's type.
func setField(field reflect.Value, fieldName, envName, value string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("failed to parse duration for %s from env var %s (%s): %w", fieldName, envName, value, err)
		}

		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(value)
	case field.CanInt():
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse int for %s from env var %s (%s): %w", fieldName, envName, value, err)
		}

		field.SetInt(n)
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to parse bool for %s from env var %s (%s): %w", fieldName, envName, value, err)
		}

		field.SetBool(b)
	case field.Kind() == reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w for field %s", errUnsupportedSliceType, fieldName)
		}

		field.Set(reflect.ValueOf(splitList(value)))
	default:
		return fmt.Errorf("%w for field %s: %s", errUnsupportedFieldType, fieldName, field.Kind())
	}

	return nil
}

// splitList splits a comma-separated list, dropping blank items.
func splitList(s string) []string {
	items := []string{}

	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// useDotEnv loads variables from a .env file in the working directory or, failing
// that, next to the executable. A missing file is not an error.
func useDotEnv() error {
	for _, path := range dotEnvCandidates() {
		loaded, err := loadDotEnv(path)
		if err != nil {
			return err
		}

		if loaded {
			return nil
		}
	}

	log.Debug().Msg("No .env file found, skipping")

	return nil
}

func dotEnvCandidates() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, dotEnvFile))
	} else {
		log.Warn().Err(err).Msg("Could not get current working directory")
	}

	if exe, err := os.Executable(); err == nil {
		if p := filepath.Join(filepath.Dir(exe), dotEnvFile); !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}

	return paths
}

// loadDotEnv sets the variables defined in the file at path that are not already set.
// It reports whether the file existed.
func loadDotEnv(path string) (bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is the working or executable directory
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not read .env file")

		return false, nil
	}

	for i, raw := range strings.Split(string(data), "\n") {
		key, value, ok := parseDotEnvLine(raw)
		if !ok {
			if line := strings.TrimSpace(raw); line != "" && !strings.HasPrefix(line, "#") {
				log.Warn().Str("path", path).Int("line", i+1).Msg("Invalid format in .env file")
			}

			continue
		}

		if _, set := os.LookupEnv(key); set {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return true, fmt.Errorf("could not set %s from %s: %w", key, path, err)
		}
	}

	log.Info().Str("path", path).Msg("Loaded configuration from .env file")

	return true, nil
}

// parseDotEnvLine parses KEY=value, with an optional "export " prefix and matching
// quotes around the value.
func parseDotEnvLine(raw string) (key, value string, ok bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	line = strings.TrimPrefix(line, "export ")

	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}

	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" {
		return "", "", false
	}

	if len(value) >= 2 && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
		value = value[1 : len(value)-1]
	}

	return key, value, true
}
