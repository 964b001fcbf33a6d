/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

import (
	"fmt"
	"time"
)

// Specification is free-text task description used as generation context.
// It is never interpreted, only interpolated into prompts and persisted
// verbatim.
type Specification string

type ArtifactKind string

const (
	ArtifactPolicy    ArtifactKind = "policy"
	ArtifactValidator ArtifactKind = "validator"
	ArtifactSummary   ArtifactKind = "summary"
)

// ArtifactRequest is built per generation step and never persisted.
type ArtifactRequest struct {
	Project string
	Spec    Specification
	Kind    ArtifactKind
}

// ExpectedForm tells the sanitizer whether a structured parse should be
// attempted.
type ExpectedForm int

const (
	FormPlainText ExpectedForm = iota
	FormJSON
)

func (f ExpectedForm) String() string {
	switch f {
	case FormPlainText:
		return "text"
	case FormJSON:
		return "json"
	}
	return fmt.Sprintf("form(%d)", int(f))
}

type ParseOutcome string

const (
	OutcomeSuccess  ParseOutcome = "success"
	OutcomeFallback ParseOutcome = "fallback"
	OutcomeUnparsed ParseOutcome = "unparsed"
)

// GenerationResult is the sanitized form of one backend response.
//
// Raw always holds the fence-stripped text so it can be persisted for manual
// inspection. Parsed is a map[string]any for JSON results (numbers decode as
// json.Number) and a string for plain text results; it is nil unless Outcome
// is OutcomeSuccess. Content is
// what should be written to disk.
type GenerationResult struct {
	Raw     string
	Content string
	Parsed  any
	Outcome ParseOutcome
	// ParseErr holds the reason structured parsing did not succeed
	ParseErr error
}

// PersistedArtifact records a single write made by the artifact store.
type PersistedArtifact struct {
	Category string
	Path     string
	Content  string
}

// Manifest is written once per pipeline run after every artifact has been
// persisted.
type Manifest struct {
	ProjectName        string       `json:"project_name"`
	GeneratedAt        time.Time    `json:"generated_at"`
	QuestionFile       string       `json:"question_file"`
	PolicyFile         string       `json:"policy_file"`
	ValidatorFile      string       `json:"validator_file"`
	PackageFile        string       `json:"package_file"`
	EnvFile            string       `json:"env_file"`
	MetadataFile       string       `json:"metadata_file"`
	GenerationMethod   string       `json:"generation_method"`
	PolicyParseOutcome ParseOutcome `json:"policy_parse_outcome"`
	AIGenerated        bool         `json:"ai_generated"`
}

// ArtifactPaths returns the five artifact paths recorded in the manifest,
// keyed by their JSON field name.
func (m *Manifest) ArtifactPaths() map[string]string {
	return map[string]string{
		"question_file":  m.QuestionFile,
		"policy_file":    m.PolicyFile,
		"validator_file": m.ValidatorFile,
		"package_file":   m.PackageFile,
		"env_file":       m.EnvFile,
	}
}

// PolicyMetadata is the sidecar written next to each generated policy.
type PolicyMetadata struct {
	CreatedAt          time.Time    `json:"created_at"`
	Requirements       string       `json:"requirements"`
	ResourceTypesCount int          `json:"resource_types_count"`
	OutputFile         string       `json:"output_file"`
	GenerationMethod   string       `json:"generation_method"`
	ParseOutcome       ParseOutcome `json:"parse_outcome"`
}
