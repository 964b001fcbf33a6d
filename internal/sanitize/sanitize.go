/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package sanitize turns raw model output into something that can be
// persisted: code fences are removed and, when JSON is expected, the payload
// is parsed and shape checked. Parse problems never fail; they are reported
// through the result's outcome.
package sanitize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mikeb26/policygen/internal/types"
)

var ErrParseFailure = errors.New("structured parse failed")

// RequiredKeys are the top-level keys a policy rule must carry: the
// condition and the effect.
var RequiredKeys = []string{"if", "then"}

// WrapperKeys name objects that sometimes hold the real payload one level
// down. Only a single level is ever unwrapped.
var WrapperKeys = []string{"policyRule", "policy", "rule"}

const fence = "```"

// an opening fence owns its whole line: backticks plus an optional tag
var openFenceRE = regexp.MustCompile("^[ \t]*```[\\w+.-]*[ \t]*\r?$")

// StripFences removes the code fences that wrap the payload and trims
// surrounding whitespace. A fence opens on a line of its own and closes at
// the start of a later line; text after a closing fence is kept. Backticks
// anywhere else are left alone.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	open := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case !open && openFenceRE.MatchString(line):
			open = true
			continue
		case open && strings.HasPrefix(trimmed, fence):
			open = false
			line = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
			if line == "" {
				continue
			}
		}
		out = append(out, line)
	}

	// a closing fence glued to the last line of the payload
	if open && len(out) > 0 {
		last := strings.TrimRight(out[len(out)-1], " \t\r")
		if strings.HasSuffix(last, fence) {
			out[len(out)-1] = strings.TrimSuffix(last, fence)
		}
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// decodeJSON parses exactly one JSON value, keeping numbers as json.Number
// so nothing is lost when the value is written back out.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	return v, nil
}

// Sanitize post-processes one backend response.
func Sanitize(raw string, form types.ExpectedForm) types.GenerationResult {
	cleaned := StripFences(raw)

	if form != types.FormJSON {
		return types.GenerationResult{
			Raw:     cleaned,
			Content: cleaned,
			Parsed:  cleaned,
			Outcome: types.OutcomeSuccess,
		}
	}

	v, err := decodeJSON([]byte(cleaned))
	if err != nil {
		return types.GenerationResult{
			Raw:      cleaned,
			Content:  cleaned,
			Outcome:  types.OutcomeUnparsed,
			ParseErr: fmt.Errorf("%w: %v", ErrParseFailure, err),
		}
	}

	obj, isObj := v.(map[string]any)
	if isObj && hasRequiredKeys(obj) {
		return types.GenerationResult{
			Raw:     cleaned,
			Content: cleaned,
			Parsed:  obj,
			Outcome: types.OutcomeSuccess,
		}
	}

	if isObj {
		for _, k := range WrapperKeys {
			inner, ok := obj[k].(map[string]any)
			if !ok || !hasRequiredKeys(inner) {
				continue
			}
			content, err := unwrapText(cleaned, k)
			if err != nil {
				break
			}
			return types.GenerationResult{
				Raw:     cleaned,
				Content: content,
				Parsed:  inner,
				Outcome: types.OutcomeSuccess,
			}
		}
	}

	return types.GenerationResult{
		Raw:     cleaned,
		Content: cleaned,
		Outcome: types.OutcomeFallback,
		ParseErr: fmt.Errorf("%w: expected an object with keys %v",
			ErrParseFailure, RequiredKeys),
	}
}

// unwrapText returns the text of the object stored under key, re-indented
// but otherwise byte for byte what the model produced.
func unwrapText(text string, key string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, fields[key], "", "  "); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func hasRequiredKeys(obj map[string]any) bool {
	for _, k := range RequiredKeys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

// ParseStringList parses a fenced or bare JSON array of strings. An empty
// array is treated as a failed extraction.
func ParseStringList(raw string) ([]string, error) {
	cleaned := StripFences(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrParseFailure)
	}

	out := make([]string, 0, len(items))
	for ii, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: element %v is %T, want string",
				ErrParseFailure, ii, item)
		}
		out = append(out, s)
	}

	return out, nil
}
