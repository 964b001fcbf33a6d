/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"context"

	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/types"
)

// ValidatorOutput describes a persisted validator script and the two
// support files written next to it.
type ValidatorOutput struct {
	Path        string
	PackagePath string
	EnvPath     string
	// Artifacts holds the script, package.json and .env.example writes.
	Artifacts []types.PersistedArtifact
}

// validatorPackage is the npm manifest written alongside each validator.
type validatorPackage struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description"`
	Main         string            `json:"main"`
	Scripts      map[string]string `json:"scripts"`
	Dependencies map[string]string `json:"dependencies"`
}

var validatorDependencies = map[string]string{
	"@azure/identity":       "^3.3.0",
	"@azure/arm-appservice": "^13.0.0",
	"@azure/arm-eventhub":   "^5.1.0",
	"@azure/arm-network":    "^32.0.0",
	"@azure/arm-storage":    "^18.1.0",
	"axios":                 "^1.6.0",
	"dotenv":                "^16.3.1",
}

const validatorEnvExample = `# Azure Service Principal Credentials
tenantId=your-tenant-id
clientId=your-client-id
clientSecret=your-client-secret
subscriptionId=your-subscription-id
resourceGroupName=your-resource-group
`

func newValidatorPackage(project string) validatorPackage {
	script := project + internal.ValidatorSuffix
	return validatorPackage{
		Name:        project + "-validator",
		Version:     "1.0.0",
		Description: "Auto-generated validator for " + project,
		Main:        script,
		Scripts: map[string]string{
			"start": "node " + script,
		},
		Dependencies: validatorDependencies,
	}
}

// GenerateValidator produces validators/<project>_validator.js plus the
// shared package.json and .env.example. The script is plain text and is
// persisted as returned, minus code fences.
func (p *Pipeline) GenerateValidator(ctx context.Context, project string,
	spec types.Specification) (*ValidatorOutput, error) {

	project, err := p.resolveProject(project)
	if err != nil {
		return nil, err
	}

	p.emit(project, StepValidator, types.ProgressPhaseStart, "", "")

	res, err := p.generate(ctx, types.ArtifactRequest{
		Project: project,
		Spec:    spec,
		Kind:    types.ArtifactValidator,
	})
	if err != nil {
		return nil, err
	}

	script, err := p.persist(project, StepValidator, internal.ValidatorsDir,
		project+internal.ValidatorSuffix, res.Content)
	if err != nil {
		return nil, err
	}
	pkg, err := p.persistJSON(project, StepValidator,
		internal.ValidatorsDir, internal.ValidatorPkgFile,
		newValidatorPackage(project))
	if err != nil {
		return nil, err
	}
	env, err := p.persist(project, StepValidator, internal.ValidatorsDir,
		internal.ValidatorEnvFile, validatorEnvExample)
	if err != nil {
		return nil, err
	}

	out := &ValidatorOutput{
		Path:        script.Path,
		PackagePath: pkg.Path,
		EnvPath:     env.Path,
		Artifacts:   []types.PersistedArtifact{script, pkg, env},
	}

	p.emit(project, StepValidator, types.ProgressPhaseEnd, out.Path, "")
	return out, nil
}
