/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"

	"github.com/mikeb26/policygen/internal/prompts"
	"github.com/spf13/cobra"
)

func newEvaluateCmd(pctx *PolicygenContext) *cobra.Command {
	var name, submissionFile, requirements string
	cmd := &cobra.Command{
		Use:   "evaluate [submission...]",
		Short: "Have the model grade a deployment against requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			submission, err := pctx.readInput(args, submissionFile, "submission")
			if err != nil {
				return err
			}
			p, release, err := pctx.newPipeline(cmd)
			if err != nil {
				return err
			}
			defer release()
			path, err := p.Evaluate(cmd.Context(), name, submission,
				requirements)
			if err != nil {
				return err
			}
			fmt.Fprintf(pctx.stdout, "Evaluation: %v\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "",
		"evaluation name (default evaluation_<timestamp>)")
	cmd.Flags().StringVarP(&submissionFile, "submission-file", "f", "",
		`read the submission from this file ("-" for stdin)`)
	cmd.Flags().StringVarP(&requirements, "requirements", "r", "",
		fmt.Sprintf("requirements to grade against (default %q)",
			prompts.DefaultEvaluationRequirements))

	return cmd
}
