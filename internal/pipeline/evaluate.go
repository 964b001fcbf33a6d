/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package pipeline

import (
	"context"
	"fmt"

	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/mikeb26/policygen/internal/sanitize"
	"github.com/mikeb26/policygen/internal/types"
	"go.uber.org/zap"
)

// Evaluate grades submission against requirements (defaulting to general
// best practices) and persists the model's plain text report to
// evaluations/<name>_evaluation.txt.
func (p *Pipeline) Evaluate(ctx context.Context, name string,
	submission string, requirements string) (string, error) {

	if name == "" {
		name = DefaultEvaluationName(p.now())
	}
	if err := ValidateProject(name); err != nil {
		return "", err
	}

	p.emit(name, StepEvaluation, types.ProgressPhaseStart, "", "")

	instr := prompts.Evaluation(submission, requirements)
	raw, err := p.completer.Complete(ctx, instr.Role, instr.User)
	if err != nil {
		return "", fmt.Errorf("evaluator: %w", err)
	}
	res := sanitize.Sanitize(raw, types.FormPlainText)

	report, err := p.persist(name, StepEvaluation, internal.EvaluationsDir,
		name+internal.EvaluationSuffix, res.Content)
	if err != nil {
		return "", err
	}

	p.logger.Info("evaluation saved", zap.String("path", report.Path))
	p.emit(name, StepEvaluation, types.ProgressPhaseEnd, report.Path, "")
	return report.Path, nil
}
