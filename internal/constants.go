/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package internal

const CommandName = "policygen"

const DefaultAzureAPIVersion = "2024-12-01-preview"

const DefaultOutputDir = "generated_outputs"

// output categories; each is a subdirectory of the output root
const (
	QuestionsDir   = "questions"
	PoliciesDir    = "policies"
	ValidatorsDir  = "validators"
	EvaluationsDir = "evaluations"
	SummariesDir   = "summaries"
)

var CategoryDirs = []string{
	QuestionsDir,
	PoliciesDir,
	ValidatorsDir,
	EvaluationsDir,
	SummariesDir,
}

const (
	QuestionSuffix    = "_question.txt"
	PolicySuffix      = "_policy.json"
	MetadataSuffix    = "_policy_metadata.json"
	ValidatorSuffix   = "_validator.js"
	EvaluationSuffix  = "_evaluation.txt"
	SummarySuffix     = "_summary.json"
	ValidatorPkgFile  = "package.json"
	ValidatorEnvFile  = ".env.example"
	ProjectNamePrefix = "auto_"
	EvaluationPrefix  = "evaluation_"
	NameTimeFormat    = "20060102_150405"
)

const (
	MethodAutonomous = "autonomous"
	MethodTemplate   = "template"
)

// values recorded in the manifest's generation_method field
var GenerationMethodLabels = map[string]string{
	MethodAutonomous: "autonomous_ai",
	MethodTemplate:   "template",
}
