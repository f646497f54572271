// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// genconfig writes the example configuration files under deploy/ from the defaults of
// config.BuildConfig.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/i18nbundle/config"
	"codeberg.org/pixivfe/i18nbundle/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/i18nbundle.yaml.example"
	dirPerm        = 0o755
	filePerm       = 0o644

	placeholderNode = "desktop.bundles/index"

	envFileHeader = `# i18nbundle configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
# Lists are comma-separated.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# i18nbundle configuration (via configuration file)
#
# Copy this file to i18nbundle.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
	requiresYAMLComment = `  # requires:
  #   jquery:
  #     globals: jQuery
  #     commonJS: jquery`
)

func main() {
	audit.SetDefaultLogger()

	cfg := &config.BuildConfig{}
	cfg.SetDefaults()

	cfg.Node.Name = placeholderNode

	if err := writeFile(envOutputFile, envFile(cfg)); err != nil {
		log.Fatal().Err(err).Str("path", envOutputFile).Msg("Failed to write .env example")
	}

	log.Info().Str("path", envOutputFile).Msg("Generated .env example")

	content, err := yamlFile(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	if err := writeFile(yamlOutputFile, content); err != nil {
		log.Fatal().Err(err).Str("path", yamlOutputFile).Msg("Failed to write YAML example")
	}

	log.Info().Str("path", yamlOutputFile).Msg("Generated YAML example")
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(content), filePerm)
}

// envFile renders every env-tagged field of cfg, grouped by section.
func envFile(cfg *config.BuildConfig) string {
	var sb strings.Builder

	sb.WriteString(envFileHeader)

	writeEnvSection(&sb, "General", reflect.ValueOf(*cfg), false)

	sb.WriteString("\n")

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeEnvSection(sb *strings.Builder, name string, val reflect.Value, nested bool) {
	typ := val.Type()

	var lines []string

	for i := range typ.NumField() {
		field, value := typ.Field(i), val.Field(i)

		tag, ok := field.Tag.Lookup("env")
		if !ok {
			if value.Kind() == reflect.Struct && !nested && field.Tag.Get("yaml") != "-" {
				writeEnvSection(sb, field.Name, value, true)
			}

			continue
		}

		envVarName, _, _ := strings.Cut(tag, ",")

		lines = append(lines, envLine(envVarName, value))
	}

	if len(lines) == 0 {
		return
	}

	fmt.Fprintf(sb, "## %s\n", name)

	for _, line := range lines {
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
}

func envLine(name string, value reflect.Value) string {
	switch {
	case name == "I18NBUNDLE_NODE":
		// The only setting without a usable default.
		return fmt.Sprintf("%s=\"%v\"", name, value.Interface())
	case value.Kind() == reflect.Slice:
		items := make([]string, value.Len())
		for i := range value.Len() {
			items[i] = fmt.Sprint(value.Index(i).Interface())
		}

		return fmt.Sprintf("# %s=%s", name, strings.Join(items, ","))
	case value.Kind() == reflect.String && value.Len() == 0:
		return fmt.Sprintf("# %s=", name)
	default:
		return fmt.Sprintf("# %s=%v", name, value.Interface())
	}
}

// yamlFile renders cfg as YAML with every setting but node.name commented out.
func yamlFile(cfg *config.BuildConfig) (string, error) {
	out, err := cfg.YAML()
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString(yamlFileHeader)

	for line := range strings.SplitSeq(string(out), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "node:") are treated as section headers.
		if !strings.HasPrefix(line, " ") && strings.HasSuffix(trimmed, ":") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		if strings.HasPrefix(trimmed, "name: ") {
			sb.WriteString(line + "\n")

			continue
		}

		if strings.HasPrefix(trimmed, "requires:") {
			sb.WriteString(requiresYAMLComment + "\n")

			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	return sb.String(), nil
}
