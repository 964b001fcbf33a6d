/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package prompts holds the fixed role instructions sent to the model and
// the user-message wrappers the specification is interpolated into.
package prompts

import (
	_ "embed"
	"fmt"

	"github.com/mikeb26/policygen/internal/types"
)

//go:embed policy_role.txt
var policyRole string

//go:embed validator_role.txt
var validatorRole string

//go:embed resources_role.txt
var resourcesRole string

//go:embed evaluator_role.txt
var evaluatorRole string

// Instruction is the (role, user) message pair sent to the backend.
type Instruction struct {
	Role string
	User string
}

// Template pairs a role instruction with a user message wrapper. UserFmt
// must contain exactly one %s which receives the specification.
type Template struct {
	Name    string
	Role    string
	UserFmt string
}

// Build interpolates spec into the user wrapper. The specification is not
// validated or transformed; empty or malformed text is forwarded as is.
func (t Template) Build(spec types.Specification) Instruction {
	return Instruction{
		Role: t.Role,
		User: fmt.Sprintf(t.UserFmt, string(spec)),
	}
}

const policyUserFmt = `
Read these specifications carefully and generate the Azure Policy:

%s

Analyze what Azure resources are needed and create the policy JSON.
Output ONLY the JSON, nothing else.
`

const validatorUserFmt = `
Read these specifications carefully and generate the complete validation JavaScript:

%s

Analyze:
1. What Azure service is this? (Function App, Event Hub, etc.)
2. What needs to be validated? (Extract from specifications)
3. What are the expected values? (Names, counts, settings)
4. How many validation checks are needed?

Create a complete, runnable JavaScript validation script.
Output ONLY JavaScript code, nothing else.
`

const resourcesUserFmt = `%s

List ALL Azure resource types as JSON array: ["type1", "type2", ...]`

const evaluationUserFmt = `
Evaluate this deployment:

%s

Requirements:
%s

Provide detailed evaluation with scores.
`

// DefaultEvaluationRequirements is used when an evaluation is requested
// without explicit requirements.
const DefaultEvaluationRequirements = "Check all Azure best practices"

var (
	Policy = Template{
		Name:    "policy_generator",
		Role:    policyRole,
		UserFmt: policyUserFmt,
	}
	Validator = Template{
		Name:    "validator_generator",
		Role:    validatorRole,
		UserFmt: validatorUserFmt,
	}
	Resources = Template{
		Name:    "resource_extractor",
		Role:    resourcesRole,
		UserFmt: resourcesUserFmt,
	}
)

// ForKind returns the template used to generate an artifact of the given
// kind. Summaries are assembled locally and have no template.
func ForKind(kind types.ArtifactKind) (Template, error) {
	switch kind {
	case types.ArtifactPolicy:
		return Policy, nil
	case types.ArtifactValidator:
		return Validator, nil
	}
	return Template{}, fmt.Errorf("no prompt template for artifact kind %q", kind)
}

// Evaluation builds the instruction for grading a submitted deployment
// against requirements.
func Evaluation(submission string, requirements string) Instruction {
	if requirements == "" {
		requirements = DefaultEvaluationRequirements
	}
	return Instruction{
		Role: evaluatorRole,
		User: fmt.Sprintf(evaluationUserFmt, submission, requirements),
	}
}
