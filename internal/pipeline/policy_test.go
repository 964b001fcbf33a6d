/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/catalog"
	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/mikeb26/policygen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notInTypes digs the allow-list out of a template policy.
func notInTypes(t *testing.T, content string) []string {
	t.Helper()

	var policy struct {
		If struct {
			AllOf []struct {
				Not *struct {
					Field string   `json:"field"`
					In    []string `json:"in"`
				} `json:"not"`
				AnyOf []any `json:"anyOf"`
			} `json:"allOf"`
		} `json:"if"`
		Then struct {
			Effect string `json:"effect"`
		} `json:"then"`
	}
	require.NoError(t, json.Unmarshal([]byte(content), &policy))
	require.Len(t, policy.If.AllOf, 2)
	require.NotNil(t, policy.If.AllOf[0].Not)
	assert.Equal(t, "type", policy.If.AllOf[0].Not.Field)
	assert.Len(t, policy.If.AllOf[1].AnyOf, 2)
	assert.Equal(t, "deny", policy.Then.Effect)

	return policy.If.AllOf[0].Not.In
}

func TestGeneratePolicy_Template(t *testing.T) {
	env := newTestEnv(t, Options{Method: internal.MethodTemplate})
	env.expect(prompts.Resources.Role).
		Return("```json\n[\"Microsoft.Web/sites\", \"Microsoft.Web/serverFarms\"]\n```", nil)

	out, err := env.pipeline.GeneratePolicy(context.Background(), "web",
		"A web app on an app service plan")
	require.NoError(t, err)

	ids := notInTypes(t, readFile(t, out.Path))
	assert.Equal(t, []string{"Microsoft.Web/sites", "Microsoft.Web/serverFarms"}, ids)
	assert.Equal(t, types.OutcomeSuccess, out.Result.Outcome)
	assert.Equal(t, 2, out.Metadata.ResourceTypesCount)
	assert.Equal(t, "template", out.Metadata.GenerationMethod)
	assert.Equal(t, "web_policy.json", out.Metadata.OutputFile)
	assert.Equal(t, filepath.Join(env.root, "policies", "web_policy_metadata.json"),
		out.MetadataPath)
}

func TestGeneratePolicy_TemplateBackendFailureUsesCatalog(t *testing.T) {
	env := newTestEnv(t, Options{Method: internal.MethodTemplate})
	env.expect(prompts.Resources.Role).Return("", errors.New("no backend"))

	spec := types.Specification("Deploy an Event Hub namespace and a Storage account")
	out, err := env.pipeline.GeneratePolicy(context.Background(), "eh", spec)
	require.NoError(t, err)

	ids := notInTypes(t, readFile(t, out.Path))
	if diff := cmp.Diff(catalog.Lookup(spec), ids); diff != "" {
		t.Errorf("catalog fallback mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, ids, "Microsoft.Resources")
	assert.Contains(t, ids, "Microsoft.Resources/deployments")
	assert.Contains(t, ids, "Microsoft.EventHub/namespaces")
	assert.Contains(t, ids, "Microsoft.Storage/storageAccounts")
	assert.Equal(t, len(ids), out.Metadata.ResourceTypesCount)
}

func TestGeneratePolicy_TemplateCancelledDoesNotUseCatalog(t *testing.T) {
	env := newTestEnv(t, Options{Method: internal.MethodTemplate})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env.expect(prompts.Resources.Role).Return("", context.Canceled)

	out, err := env.pipeline.GeneratePolicy(ctx, "demo", "Deploy a Storage account")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Empty(t, env.files(t))
}

func TestGeneratePolicy_TemplateGarbageUsesCatalog(t *testing.T) {
	env := newTestEnv(t, Options{Method: internal.MethodTemplate})
	env.expect(prompts.Resources.Role).Return("Sure! Here are the types: ...", nil)

	out, err := env.pipeline.GeneratePolicy(context.Background(), "plain",
		"nothing recognisable")
	require.NoError(t, err)

	assert.Equal(t, catalog.Base, notInTypes(t, readFile(t, out.Path)))
}

func TestGeneratePolicy_MetadataSidecar(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.expect(prompts.Policy.Role).Return(policyJSON, nil)

	out, err := env.pipeline.GeneratePolicy(context.Background(), "demo",
		"the requirements")
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, out.MetadataPath)), &meta))
	assert.Equal(t, "the requirements", meta["requirements"])
	assert.Equal(t, float64(2), meta["resource_types_count"])
	assert.Equal(t, "demo_policy.json", meta["output_file"])
	assert.Equal(t, "autonomous_ai", meta["generation_method"])
	assert.Equal(t, "success", meta["parse_outcome"])
	assert.Equal(t, "2026-01-02T03:04:05Z", meta["created_at"])
}

func TestGeneratePolicy_UnknownMethod(t *testing.T) {
	env := newTestEnv(t, Options{Method: "guess"})

	_, err := env.pipeline.GeneratePolicy(context.Background(), "demo", "spec")
	assert.Error(t, err)
	assert.Empty(t, env.files(t))
}

func TestTemplatePolicyStorageConstraints(t *testing.T) {
	res, err := templatePolicy([]string{"Microsoft.Storage/storageAccounts"})
	require.NoError(t, err)

	assert.Contains(t, res.Content, `"Microsoft.Storage/storageAccounts/sku.tier"`)
	assert.Contains(t, res.Content, `"Microsoft.Storage/storageAccounts/accessTier"`)
	for _, sku := range allowedStorageSKUs {
		assert.Contains(t, res.Content, sku)
	}
}

func TestCountResourceTypes(t *testing.T) {
	tests := []struct {
		name   string
		policy string
		want   int
	}{
		{"none", `{"if": {"field": "location", "in": ["eastus"]}, "then": {}}`, 0},
		{"top level", `{"if": {"field": "type", "in": ["a", "b"]}, "then": {}}`, 2},
		{"nested", `{"if": {"allOf": [
			{"not": {"field": "type", "in": ["a", "b", "c"]}},
			{"anyOf": [{"field": "type", "in": ["d"]}]}
		]}, "then": {}}`, 4},
		{"equals ignored", `{"if": {"field": "type", "equals": "a"}, "then": {}}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed any
			require.NoError(t, json.Unmarshal([]byte(tt.policy), &parsed))
			assert.Equal(t, tt.want, countResourceTypes(parsed))
		})
	}

	assert.Zero(t, countResourceTypes(nil))
}
