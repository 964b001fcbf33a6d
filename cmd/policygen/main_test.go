/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/config"
	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/mikeb26/policygen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPolicy = `{"if": {"field": "type", "in": ["Microsoft.Web/sites"]}, "then": {"effect": "deny"}}`

type testCli struct {
	pctx      *PolicygenContext
	completer *types.MockCompleter
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	outDir    string
	built     int
}

// newTestCli wires a context with a mock backend and a clean azure
// environment rooted in a temp output directory.
func newTestCli(t *testing.T, stdin string) *testCli {
	t.Helper()

	for _, k := range []string{config.EnvVendor, config.EnvModel,
		config.EnvTimeout, config.EnvMaxRetries, config.EnvReasoningEffort,
		config.EnvAuditLog, config.EnvMethod, config.EnvParallel,
		config.EnvAzureDeployment, config.EnvAzureAPIVersion} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvAzureEndpoint, "https://example.openai.azure.com")
	t.Setenv(config.EnvAzureAPIKey, "secret")

	tc := &testCli{
		completer: types.NewMockCompleter(gomock.NewController(t)),
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		outDir:    t.TempDir(),
	}
	t.Setenv(config.EnvOutputDir, tc.outDir)

	tc.pctx = &PolicygenContext{
		logger:     zap.NewNop(),
		stdin:      strings.NewReader(stdin),
		stdout:     tc.stdout,
		stderr:     tc.stderr,
		isTerminal: func() bool { return false },
		newCompleter: func(ctx context.Context, cfg *config.Config,
			logger *zap.Logger) (types.Completer, error) {
			tc.built++
			return tc.completer, nil
		},
		now: func() time.Time {
			return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
		},
	}

	return tc
}

func (tc *testCli) run(args ...string) error {
	cmd := newRootCmd(tc.pctx)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func (tc *testCli) expect(role string) *gomock.Call {
	return tc.completer.EXPECT().Complete(gomock.Any(), role, gomock.Any())
}

func TestGenerate_FromArgs(t *testing.T) {
	tc := newTestCli(t, "")
	tc.expect(prompts.Policy.Role).Return(testPolicy, nil)
	tc.expect(prompts.Validator.Role).Return("console.log('ok')", nil)

	err := tc.run("generate", "-p", "demo", "Allow", "web", "apps")
	require.NoError(t, err)

	out := tc.stdout.String()
	question := filepath.Join(tc.outDir, "questions", "demo_question.txt")
	assert.Contains(t, out, "Saved: "+question)
	assert.Contains(t, out, "Generated files for demo")
	assert.Contains(t, out, filepath.Join(tc.outDir, "summaries", "demo_summary.json"))

	data, err := os.ReadFile(question)
	require.NoError(t, err)
	assert.Equal(t, "Allow web apps", string(data))
}

func TestGenerate_FromStdin(t *testing.T) {
	tc := newTestCli(t, "Deploy an Event Hub\n")
	tc.expect(prompts.Policy.Role).Return(testPolicy, nil)
	tc.expect(prompts.Validator.Role).Return("console.log('ok')", nil)

	require.NoError(t, tc.run("generate", "--project", "eh"))

	data, err := os.ReadFile(filepath.Join(tc.outDir, "questions",
		"eh_question.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Deploy an Event Hub\n", string(data))
}

func TestGenerate_FromSpecFile(t *testing.T) {
	tc := newTestCli(t, "")
	specPath := filepath.Join(t.TempDir(), "spec.txt")
	require.NoError(t, os.WriteFile(specPath, []byte("from a file"), 0o600))
	tc.expect(prompts.Policy.Role).Return(testPolicy, nil)
	tc.expect(prompts.Validator.Role).Return("console.log('ok')", nil)

	require.NoError(t, tc.run("generate", "-p", "file", "-f", specPath,
		"--parallel"))
	assert.FileExists(t, filepath.Join(tc.outDir, "validators",
		"file_validator.js"))
}

func TestGenerate_EmptyInputIsForwarded(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(emptyFile, nil, 0o600))

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{name: "stdin", stdin: "   \n", want: "   \n"},
		{name: "spec file", args: []string{"-f", emptyFile}, want: ""},
		{name: "argument", args: []string{""}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCli(t, tt.stdin)
			tc.expect(prompts.Policy.Role).Return(testPolicy, nil)
			tc.expect(prompts.Validator.Role).Return("console.log('ok')", nil)

			args := append([]string{"generate", "-p", "empty"}, tt.args...)
			require.NoError(t, tc.run(args...))
			assert.Contains(t, tc.stderr.String(),
				"warning: the specification is empty")

			data, err := os.ReadFile(filepath.Join(tc.outDir, "questions",
				"empty_question.txt"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

type closingCompleter struct {
	types.Completer
	closed int
}

func (c *closingCompleter) Close() error {
	c.closed++
	return nil
}

func TestGenerate_ReleasesBackendAndCreatesCategories(t *testing.T) {
	tc := newTestCli(t, "")
	closer := &closingCompleter{Completer: tc.completer}
	tc.pctx.newCompleter = func(ctx context.Context, cfg *config.Config,
		logger *zap.Logger) (types.Completer, error) {
		return closer, nil
	}
	tc.expect(prompts.Validator.Role).Return("console.log('ok')", nil)

	require.NoError(t, tc.run("validator", "-p", "demo", "spec"))
	assert.Equal(t, 1, closer.closed)

	for _, c := range internal.CategoryDirs {
		assert.DirExists(t, filepath.Join(tc.outDir, c))
	}
}

func TestGenerate_MissingConfigFailsBeforeBackend(t *testing.T) {
	tc := newTestCli(t, "")
	t.Setenv(config.EnvAzureEndpoint, "")
	t.Setenv(config.EnvAzureAPIKey, "")

	err := tc.run("generate", "-p", "demo", "spec")
	assert.ErrorIs(t, err, config.ErrConfigurationMissing)
	assert.Contains(t, err.Error(), config.EnvAzureEndpoint)
	assert.Contains(t, err.Error(), config.EnvAzureAPIKey)
	assert.Zero(t, tc.built)

	_, statErr := os.Stat(filepath.Join(tc.outDir, "questions"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_BackendFailureReported(t *testing.T) {
	tc := newTestCli(t, "")
	tc.expect(prompts.Policy.Role).Return("", assert.AnError)

	err := tc.run("generate", "-p", "demo", "spec")
	assert.ErrorIs(t, err, assert.AnError)
	assert.FileExists(t, filepath.Join(tc.outDir, "questions",
		"demo_question.txt"))
}

func TestPolicy_TemplateMethod(t *testing.T) {
	tc := newTestCli(t, "")
	tc.expect(prompts.Resources.Role).Return(`["Microsoft.Web/sites"]`, nil)

	require.NoError(t, tc.run("policy", "-p", "tpl", "--method", "template",
		"a web app"))
	assert.Contains(t, tc.stdout.String(), "Policy created (success, 1 resource types)")
	assert.FileExists(t, filepath.Join(tc.outDir, "policies",
		"tpl_policy_metadata.json"))
}

func TestValidator_Standalone(t *testing.T) {
	tc := newTestCli(t, "")
	tc.expect(prompts.Validator.Role).Return("console.log('ok')", nil)

	require.NoError(t, tc.run("validator", "-p", "val", "spec"))
	assert.FileExists(t, filepath.Join(tc.outDir, "validators", "package.json"))
	assert.FileExists(t, filepath.Join(tc.outDir, "validators", ".env.example"))
	assert.NoFileExists(t, filepath.Join(tc.outDir, "questions", "val_question.txt"))
}

func TestEvaluate(t *testing.T) {
	tc := newTestCli(t, "")
	tc.completer.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Score: 9/10", nil)

	require.NoError(t, tc.run("evaluate", "my deployment"))
	path := filepath.Join(tc.outDir, "evaluations",
		"evaluation_20260304_050607_evaluation.txt")
	assert.Contains(t, tc.stdout.String(), "Evaluation: "+path)
	assert.FileExists(t, path)
}

func TestCatalog(t *testing.T) {
	tc := newTestCli(t, "")

	require.NoError(t, tc.run("catalog", "needs", "an", "APIM", "instance"))
	lines := strings.Split(strings.TrimSpace(tc.stdout.String()), "\n")
	assert.Contains(t, lines, "Microsoft.Resources")
	assert.Contains(t, lines, "Microsoft.ApiManagement/service")
	assert.Zero(t, tc.built)
}

func TestConfig(t *testing.T) {
	tc := newTestCli(t, "")

	require.NoError(t, tc.run("config", "--vendor", "azure"))
	out := tc.stdout.String()
	assert.Contains(t, out, "vendor: azure")
	assert.Contains(t, out, "credential: set (AZURE_OPENAI_API_KEY)")
	assert.Contains(t, out, "configuration OK")
	assert.NotContains(t, out, "secret")
}

func TestConfig_FlagOverridesVendor(t *testing.T) {
	tc := newTestCli(t, "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	err := tc.run("config", "--vendor", "anthropic")
	assert.ErrorIs(t, err, config.ErrConfigurationMissing)
	assert.Contains(t, tc.stdout.String(), "credential: missing (ANTHROPIC_API_KEY)")
}

func TestVersion(t *testing.T) {
	tc := newTestCli(t, "")

	require.NoError(t, tc.run("version"))
	assert.Equal(t, "policygen-"+DevVersionText+"\n", tc.stdout.String())
}
