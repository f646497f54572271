// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/i18nbundle/core/source"
)

// linePattern finds the first line number reported by a compiler.
var linePattern = regexp.MustCompile(`(?i)\bline[: ]+(\d+)`)

// CompileError is returned when the external compiler rejects the template source.
type CompileError struct {
	// Message is the compiler's diagnostic output, verbatim.
	Message string

	// Position is the fragment location of the reported line, if one was found.
	Position *source.Position

	Err error
}

func (e *CompileError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return e.Err.Error()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ExecCompiler runs an external compiler. The template source is written to its
// standard input and the compiled code is read from its standard output.
type ExecCompiler struct {
	Options Options
}

// Args returns the full argument list passed to the compiler command.
func (c *ExecCompiler) Args() ([]string, error) {
	opts := c.Options.withDefaults()

	if len(opts.Command) == 0 {
		return nil, errNoCommand
	}

	args := make([]string, 0, len(opts.Command)+6)
	args = append(args, opts.Command[1:]...)
	args = append(args,
		"--export-name", opts.ExportName,
		"--apply-func-name", opts.ApplyFuncName,
	)

	if opts.Cache {
		args = append(args, "--cache")
	}

	if len(opts.Requires) > 0 {
		// Map keys are sorted by encoding/json.
		data, err := json.Marshal(opts.Requires)
		if err != nil {
			return nil, err
		}

		args = append(args, "--requires", string(data))
	}

	return args, nil
}

// Compile implements [Compiler].
func (c *ExecCompiler) Compile(ctx context.Context, src *source.Aggregate) (string, error) {
	args, err := c.Args()
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Options.Command[0], args...)
	cmd.Stdin = strings.NewReader(src.Text())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		return "", newCompileError(src, strings.TrimSpace(stderr.String()), err)
	}

	log.Debug().
		Str("sys", "templates").
		Str("command", c.Options.Command[0]).
		Int("fragments", src.Len()).
		Int("bytes", stdout.Len()).
		Msg("Compiled templates")

	return stdout.String(), nil
}

func newCompileError(src *source.Aggregate, message string, err error) *CompileError {
	ce := &CompileError{Message: message, Err: err}

	if m := linePattern.FindStringSubmatch(message); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			if pos, ok := src.LocateLine(line); ok {
				ce.Position = &pos
			}
		}
	}

	if ce.Message == "" {
		ce.Message = fmt.Sprintf("template compiler failed: %v", err)
	}

	return ce
}
