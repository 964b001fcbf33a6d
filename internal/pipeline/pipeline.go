/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package pipeline turns a free-text specification into persisted
// artifacts: the specification itself, a policy, a validator script with its
// support files and a summary manifest referencing all of them.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/mikeb26/policygen/internal/sanitize"
	"github.com/mikeb26/policygen/internal/store"
	"github.com/mikeb26/policygen/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	StepQuestion   = "question"
	StepPolicy     = "policy"
	StepValidator  = "validator"
	StepSummary    = "summary"
	StepEvaluation = "evaluation"
)

type Options struct {
	// Method is internal.MethodAutonomous (default) or
	// internal.MethodTemplate.
	Method string
	// Parallel generates the policy and the validator concurrently.
	Parallel bool
	Logger   *zap.Logger
	// Progress, if set, receives every progress event. Calls are
	// serialized even in parallel mode.
	Progress func(types.ProgressEvent)
	// Now defaults to time.Now.
	Now func() time.Time
}

type Pipeline struct {
	completer types.Completer
	store     *store.Store
	method    string
	parallel  bool
	logger    *zap.Logger
	now       func() time.Time

	progressMu sync.Mutex
	progress   func(types.ProgressEvent)
}

// Result is what a completed run produced.
type Result struct {
	Manifest    *types.Manifest
	SummaryPath string
	Policy      *PolicyOutput
	Validator   *ValidatorOutput
	// Artifacts lists every write in manifest order: question, policy,
	// validator files and finally the summary.
	Artifacts []types.PersistedArtifact
}

func New(completer types.Completer, st *store.Store, opts Options) *Pipeline {
	p := &Pipeline{
		completer: completer,
		store:     st,
		method:    opts.Method,
		parallel:  opts.Parallel,
		logger:    opts.Logger,
		now:       opts.Now,
		progress:  opts.Progress,
	}
	if p.method == "" {
		p.method = internal.MethodAutonomous
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}

	return p
}

func (p *Pipeline) emit(project string, step string, phase types.ProgressPhase,
	path string, text string) {

	if p.progress == nil {
		return
	}

	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.progress(types.ProgressEvent{
		Project:     project,
		Step:        step,
		Phase:       phase,
		Time:        p.now(),
		Path:        path,
		DisplayText: text,
	})
}

// persist writes one artifact and reports it as saved.
func (p *Pipeline) persist(project string, step string, category string,
	filename string, content string) (types.PersistedArtifact, error) {

	a, err := p.store.Save(category, filename, content)
	if err != nil {
		return a, err
	}
	p.saved(project, step, a)

	return a, nil
}

func (p *Pipeline) persistJSON(project string, step string, category string,
	filename string, v any) (types.PersistedArtifact, error) {

	a, err := p.store.SaveJSON(category, filename, v)
	if err != nil {
		return a, err
	}
	p.saved(project, step, a)

	return a, nil
}

func (p *Pipeline) saved(project string, step string, a types.PersistedArtifact) {
	p.logger.Debug("artifact saved", zap.String("project", project),
		zap.String("path", a.Path), zap.Int("bytes", len(a.Content)))
	p.emit(project, step, types.ProgressPhaseSaved, a.Path, "")
}

// generate runs one prompt for req and sanitizes the response into the form
// its kind expects. Only backend failures are returned as errors.
func (p *Pipeline) generate(ctx context.Context,
	req types.ArtifactRequest) (types.GenerationResult, error) {

	tmpl, err := prompts.ForKind(req.Kind)
	if err != nil {
		return types.GenerationResult{}, err
	}
	instr := tmpl.Build(req.Spec)

	raw, err := p.completer.Complete(ctx, instr.Role, instr.User)
	if err != nil {
		return types.GenerationResult{}, fmt.Errorf("%v: %w", tmpl.Name, err)
	}

	form := types.FormPlainText
	if req.Kind == types.ArtifactPolicy {
		form = types.FormJSON
	}
	res := sanitize.Sanitize(raw, form)
	p.logger.Debug("response sanitized", zap.String("project", req.Project),
		zap.String("kind", string(req.Kind)),
		zap.String("outcome", string(res.Outcome)))

	return res, nil
}

// resolveProject applies the default name and validates the result.
func (p *Pipeline) resolveProject(project string) (string, error) {
	if project == "" {
		project = DefaultProjectName(p.now())
	}
	if err := ValidateProject(project); err != nil {
		return "", err
	}
	return project, nil
}

// PersistSpec writes the specification verbatim to
// questions/<project>_question.txt.
func (p *Pipeline) PersistSpec(project string,
	spec types.Specification) (types.PersistedArtifact, error) {

	return p.persist(project, StepQuestion, internal.QuestionsDir,
		project+internal.QuestionSuffix, string(spec))
}

// Run executes a full generation for project. An empty project name is
// replaced by DefaultProjectName. On failure the returned error is a
// *StageError and whatever was persisted before the failure stays on disk.
func (p *Pipeline) Run(ctx context.Context, project string,
	spec types.Specification) (*Result, error) {

	project, err := p.resolveProject(project)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With(zap.String("project", project),
		zap.String("method", p.method), zap.Bool("parallel", p.parallel),
		zap.String("output", p.store.Root()))
	logger.Info("pipeline started")

	state := StateInit
	fail := func(err error) (*Result, error) {
		logger.Error("pipeline failed", zap.Stringer("reached", state),
			zap.Error(err))
		return nil, &StageError{Reached: state, Failed: state + 1, Err: err}
	}
	advance := func(s State) {
		state = s
		logger.Debug("pipeline state", zap.Stringer("state", s))
	}

	p.emit(project, StepQuestion, types.ProgressPhaseStart, "", "")
	question, err := p.PersistSpec(project, spec)
	if err != nil {
		return fail(err)
	}
	p.emit(project, StepQuestion, types.ProgressPhaseEnd, question.Path, "")
	advance(StateSpecPersisted)

	var policy *PolicyOutput
	var validator *ValidatorOutput
	if p.parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			policy, err = p.GeneratePolicy(gctx, project, spec)
			return err
		})
		g.Go(func() error {
			var err error
			validator, err = p.GenerateValidator(gctx, project, spec)
			return err
		})
		err = g.Wait()
		if policy != nil {
			advance(StatePolicyGenerated)
		}
		if err != nil {
			return fail(err)
		}
	} else {
		policy, err = p.GeneratePolicy(ctx, project, spec)
		if err != nil {
			return fail(err)
		}
		advance(StatePolicyGenerated)

		validator, err = p.GenerateValidator(ctx, project, spec)
		if err != nil {
			return fail(err)
		}
	}
	advance(StateValidatorGenerated)

	p.emit(project, StepSummary, types.ProgressPhaseStart, "", "")
	manifest := &types.Manifest{
		ProjectName:        project,
		GeneratedAt:        p.now(),
		QuestionFile:       question.Path,
		PolicyFile:         policy.Path,
		ValidatorFile:      validator.Path,
		PackageFile:        validator.PackagePath,
		EnvFile:            validator.EnvPath,
		MetadataFile:       policy.MetadataPath,
		GenerationMethod:   internal.GenerationMethodLabels[p.method],
		PolicyParseOutcome: policy.Result.Outcome,
		AIGenerated:        true,
	}
	summary, err := p.persistJSON(project, StepSummary,
		internal.SummariesDir, project+internal.SummarySuffix, manifest)
	if err != nil {
		return fail(err)
	}
	advance(StateManifestWritten)
	p.emit(project, StepSummary, types.ProgressPhaseEnd, summary.Path, "")

	advance(StateDone)
	logger.Info("pipeline complete", zap.String("summary", summary.Path))

	artifacts := []types.PersistedArtifact{question}
	artifacts = append(artifacts, policy.Artifacts...)
	artifacts = append(artifacts, validator.Artifacts...)
	artifacts = append(artifacts, summary)

	return &Result{
		Manifest:    manifest,
		SummaryPath: summary.Path,
		Policy:      policy,
		Validator:   validator,
		Artifacts:   artifacts,
	}, nil
}
