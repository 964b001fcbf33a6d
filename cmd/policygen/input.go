/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the text a command operates on: a file (or "-" for
// stdin) wins over positional arguments, which win over stdin. Empty text is
// returned as is from every source, with a warning.
func (pctx *PolicygenContext) readInput(args []string, file string,
	what string) (string, error) {

	text, err := pctx.readSource(args, file, what)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintf(pctx.stderr, "warning: the %v is empty\n", what)
	}

	return text, nil
}

func (pctx *PolicygenContext) readSource(args []string, file string,
	what string) (string, error) {

	if file == "-" {
		return pctx.readStdin(what)
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("Failed to read %v: %w", file, err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	return pctx.readStdin(what)
}

func (pctx *PolicygenContext) readStdin(what string) (string, error) {
	if pctx.isTerminal() {
		fmt.Fprintf(pctx.stderr, "Enter the %v; finish with Ctrl-D:\n", what)
	}

	data, err := io.ReadAll(pctx.stdin)
	if err != nil {
		return "", fmt.Errorf("Failed to read %v from stdin: %w", what, err)
	}

	return string(data), nil
}
