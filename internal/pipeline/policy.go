/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/catalog"
	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/mikeb26/policygen/internal/sanitize"
	"github.com/mikeb26/policygen/internal/types"
	"go.uber.org/zap"
)

// PolicyOutput describes a persisted policy and its metadata sidecar.
type PolicyOutput struct {
	Path         string
	MetadataPath string
	Result       types.GenerationResult
	Metadata     types.PolicyMetadata
	// ResourceTypes is only populated by the template method
	ResourceTypes []string
	// Artifacts holds the policy write followed by the sidecar write.
	Artifacts []types.PersistedArtifact
}

// GeneratePolicy produces policies/<project>_policy.json and its
// _policy_metadata.json sidecar using the configured method.
func (p *Pipeline) GeneratePolicy(ctx context.Context, project string,
	spec types.Specification) (*PolicyOutput, error) {

	project, err := p.resolveProject(project)
	if err != nil {
		return nil, err
	}

	p.emit(project, StepPolicy, types.ProgressPhaseStart, "", p.method)

	req := types.ArtifactRequest{
		Project: project,
		Spec:    spec,
		Kind:    types.ArtifactPolicy,
	}
	out := &PolicyOutput{}
	var count int
	switch p.method {
	case internal.MethodTemplate:
		out.ResourceTypes, err = p.extractResourceTypes(ctx, req)
		if err == nil {
			out.Result, err = templatePolicy(out.ResourceTypes)
		}
		count = len(out.ResourceTypes)
	case internal.MethodAutonomous:
		out.Result, err = p.autonomousPolicy(ctx, req)
		count = countResourceTypes(out.Result.Parsed)
	default:
		err = fmt.Errorf("unknown policy method %q", p.method)
	}
	if err != nil {
		return nil, err
	}

	filename := project + internal.PolicySuffix
	policy, err := p.persist(project, StepPolicy, internal.PoliciesDir,
		filename, out.Result.Content)
	if err != nil {
		return nil, err
	}
	out.Path = policy.Path

	out.Metadata = types.PolicyMetadata{
		CreatedAt:          p.now(),
		Requirements:       string(spec),
		ResourceTypesCount: count,
		OutputFile:         filename,
		GenerationMethod:   internal.GenerationMethodLabels[p.method],
		ParseOutcome:       out.Result.Outcome,
	}
	metadata, err := p.persistJSON(project, StepPolicy,
		internal.PoliciesDir, project+internal.MetadataSuffix, out.Metadata)
	if err != nil {
		return nil, err
	}
	out.MetadataPath = metadata.Path
	out.Artifacts = []types.PersistedArtifact{policy, metadata}

	p.emit(project, StepPolicy, types.ProgressPhaseEnd, out.Path,
		string(out.Result.Outcome))
	return out, nil
}

// autonomousPolicy has the model author the whole policy document. A
// backend failure is terminal; a response in the wrong shape is not.
func (p *Pipeline) autonomousPolicy(ctx context.Context,
	req types.ArtifactRequest) (types.GenerationResult, error) {

	res, err := p.generate(ctx, req)
	if err != nil {
		return res, err
	}

	switch res.Outcome {
	case types.OutcomeSuccess:
		p.logger.Debug("policy parsed", zap.String("project", req.Project))
	case types.OutcomeFallback, types.OutcomeUnparsed:
		p.logger.Warn("policy response kept as text for manual review",
			zap.String("project", req.Project),
			zap.String("outcome", string(res.Outcome)),
			zap.Error(res.ParseErr))
	}

	return res, nil
}

// extractResourceTypes asks the model for the resource type identifiers the
// specification needs. A backend or parse failure falls back to the static
// catalog; cancellation of ctx does not.
func (p *Pipeline) extractResourceTypes(ctx context.Context,
	req types.ArtifactRequest) ([]string, error) {

	instr := prompts.Resources.Build(req.Spec)
	raw, err := p.completer.Complete(ctx, instr.Role, instr.User)
	if err == nil {
		var ids []string
		ids, err = sanitize.ParseStringList(raw)
		if err == nil {
			p.logger.Debug("resource types extracted",
				zap.String("project", req.Project), zap.Int("count", len(ids)))
			return ids, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%v: %w", prompts.Resources.Name, ctxErr)
	}

	ids := catalog.Lookup(req.Spec)
	p.logger.Warn("resource type extraction failed; using catalog",
		zap.String("project", req.Project), zap.Error(err),
		zap.Int("count", len(ids)))
	return ids, nil
}

// templatePolicy fills the fixed deny template: anything outside ids is
// denied, as are storage accounts outside the allowed tier and SKUs.
func templatePolicy(ids []string) (types.GenerationResult, error) {
	policy := map[string]any{
		"if": map[string]any{
			"allOf": []any{
				map[string]any{
					"not": map[string]any{"field": "type", "in": ids},
				},
				map[string]any{"anyOf": storageConstraints()},
			},
		},
		"then": map[string]any{"effect": "deny"},
	}

	data, err := json.MarshalIndent(policy, "", "  ")
	if err != nil {
		return types.GenerationResult{}, fmt.Errorf("Failed to render policy: %w", err)
	}

	return types.GenerationResult{
		Raw:     string(data),
		Content: string(data),
		Parsed:  policy,
		Outcome: types.OutcomeSuccess,
	}, nil
}

const storageAccountType = "Microsoft.Storage/storageAccounts"

var allowedStorageSKUs = []string{
	"Standard_LRS",
	"Standard_GRS",
	"Standard_RAGRS",
	"Standard_ZRS",
}

func storageConstraints() []any {
	isStorage := map[string]any{"field": "type", "equals": storageAccountType}
	return []any{
		map[string]any{
			"allOf": []any{
				isStorage,
				map[string]any{"not": map[string]any{"allOf": []any{
					map[string]any{
						"field":  storageAccountType + "/sku.tier",
						"equals": "Standard",
					},
					map[string]any{
						"field":  storageAccountType + "/accessTier",
						"equals": "Hot",
					},
				}}},
			},
		},
		map[string]any{
			"allOf": []any{
				isStorage,
				map[string]any{"not": map[string]any{
					"field": storageAccountType + "/sku.name",
					"in":    allowedStorageSKUs,
				}},
			},
		},
	}
}

// countResourceTypes counts the identifiers listed by every
// {"field": "type", "in": [...]} condition in a parsed policy.
func countResourceTypes(parsed any) int {
	count := 0
	var walk func(v any)
	walk = func(v any) {
		switch node := v.(type) {
		case map[string]any:
			if node["field"] == "type" {
				if ids, ok := node["in"].([]any); ok {
					count += len(ids)
				}
			}
			for _, child := range node {
				walk(child)
			}
		case []any:
			for _, child := range node {
				walk(child)
			}
		}
	}
	walk(parsed)

	return count
}
