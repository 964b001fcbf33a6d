/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikeb26/policygen/internal"
)

var ErrInvalidProject = errors.New("invalid project name")

// DefaultProjectName is used when a run is started without a name.
func DefaultProjectName(now time.Time) string {
	return internal.ProjectNamePrefix + now.Format(internal.NameTimeFormat)
}

// DefaultEvaluationName is used when an evaluation is requested without a
// name.
func DefaultEvaluationName(now time.Time) string {
	return internal.EvaluationPrefix + now.Format(internal.NameTimeFormat)
}

// ValidateProject rejects names that are empty or could not be used as a
// file name prefix inside a category directory.
func ValidateProject(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProject)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidProject, name)
	}
	return nil
}
