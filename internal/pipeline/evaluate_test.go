/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_DefaultsNameAndRequirements(t *testing.T) {
	env := newTestEnv(t, Options{})
	instr := prompts.Evaluation("", "")
	env.completer.EXPECT().
		Complete(gomock.Any(), instr.Role, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msg string) (string, error) {
			assert.Contains(t, msg, prompts.DefaultEvaluationRequirements)
			assert.Contains(t, msg, "my deployment")
			return "```\nScore: 7/10\n```", nil
		})

	path, err := env.pipeline.Evaluate(context.Background(), "",
		"my deployment", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.root, "evaluations",
		"evaluation_20260102_030405_evaluation.txt"), path)
	assert.Equal(t, "Score: 7/10", readFile(t, path))
}

func TestEvaluate_BackendFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	backendErr := errors.New("unavailable")
	env.completer.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", backendErr)

	_, err := env.pipeline.Evaluate(context.Background(), "review", "x", "y")
	assert.ErrorIs(t, err, backendErr)
	assert.Empty(t, env.files(t))
}

func TestEvaluate_InvalidName(t *testing.T) {
	env := newTestEnv(t, Options{})

	_, err := env.pipeline.Evaluate(context.Background(), "../x", "x", "y")
	assert.ErrorIs(t, err, ErrInvalidProject)
}
