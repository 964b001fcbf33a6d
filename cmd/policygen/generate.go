/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/pipeline"
	"github.com/mikeb26/policygen/internal/store"
	"github.com/mikeb26/policygen/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateFlags struct {
	project  string
	specFile string
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "",
		"project name used as the file name prefix (default auto_<timestamp>)")
	cmd.Flags().StringVarP(&f.specFile, "spec-file", "f", "",
		`read the specification from this file ("-" for stdin)`)
}

func registerMethodFlag(pctx *PolicygenContext, cmd *cobra.Command) {
	cmd.Flags().StringVarP(&pctx.method, "method", "m", "",
		fmt.Sprintf("policy generation method: %v or %v",
			internal.MethodAutonomous, internal.MethodTemplate))
}

// newPipeline loads and validates configuration, then wires the backend
// client and artifact store into a pipeline. Nothing touches the network
// or the output directory before validation succeeds. The returned func
// releases the backend client and must be called once the pipeline is done.
func (pctx *PolicygenContext) newPipeline(cmd *cobra.Command) (*pipeline.Pipeline,
	func(), error) {

	cfg, err := pctx.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := pctx.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	st := store.New(cfg.OutputDir)
	if err := st.Ensure(internal.CategoryDirs...); err != nil {
		return nil, nil, err
	}

	completer, err := pctx.newCompleter(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		c, ok := completer.(io.Closer)
		if !ok {
			return
		}
		if err := c.Close(); err != nil {
			logger.Warn("failed to close backend client", zap.Error(err))
		}
	}

	var printMu sync.Mutex
	progress := func(ev types.ProgressEvent) {
		printMu.Lock()
		defer printMu.Unlock()
		switch ev.Phase {
		case types.ProgressPhaseStart:
			fmt.Fprintf(pctx.stderr, "Generating %v...\n", ev.Step)
		case types.ProgressPhaseSaved:
			fmt.Fprintf(pctx.stdout, "Saved: %v\n", ev.Path)
		case types.ProgressPhaseEnd:
		}
	}

	return pipeline.New(completer, st, pipeline.Options{
		Method:   cfg.Method,
		Parallel: cfg.Parallel,
		Logger:   logger,
		Progress: progress,
		Now:      pctx.now,
	}), release, nil
}

func newGenerateCmd(pctx *PolicygenContext) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "generate [specification...]",
		Short: "Generate the policy, validator and summary for a specification",
		Long: `Persists the specification, generates a policy (plus metadata) and a
validator script (plus package.json and .env.example), then writes a summary
manifest. If generation fails part way, files already written are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateMain(cmd, pctx, &flags, args)
		},
	}
	flags.register(cmd)
	registerMethodFlag(pctx, cmd)
	cmd.Flags().BoolVar(&pctx.parallel, "parallel", false,
		"generate the policy and validator concurrently")

	return cmd
}

func generateMain(cmd *cobra.Command, pctx *PolicygenContext,
	flags *generateFlags, args []string) error {

	spec, err := pctx.readInput(args, flags.specFile, "specification")
	if err != nil {
		return err
	}
	p, release, err := pctx.newPipeline(cmd)
	if err != nil {
		return err
	}
	defer release()

	res, err := p.Run(cmd.Context(), flags.project, types.Specification(spec))
	if err != nil {
		return err
	}

	m := res.Manifest
	fmt.Fprintf(pctx.stdout, "\nGenerated files for %v:\n", m.ProjectName)
	fmt.Fprintf(pctx.stdout, "  1. Question:  %v\n", m.QuestionFile)
	fmt.Fprintf(pctx.stdout, "  2. Policy:    %v (%v)\n", m.PolicyFile,
		m.PolicyParseOutcome)
	fmt.Fprintf(pctx.stdout, "  3. Validator: %v\n", m.ValidatorFile)
	fmt.Fprintf(pctx.stdout, "  4. Package:   %v\n", m.PackageFile)
	fmt.Fprintf(pctx.stdout, "  5. Env:       %v\n", m.EnvFile)
	fmt.Fprintf(pctx.stdout, "  6. Summary:   %v\n", res.SummaryPath)

	return nil
}

func newPolicyCmd(pctx *PolicygenContext) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "policy [specification...]",
		Short: "Generate only a policy and its metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := pctx.readInput(args, flags.specFile, "specification")
			if err != nil {
				return err
			}
			p, release, err := pctx.newPipeline(cmd)
			if err != nil {
				return err
			}
			defer release()
			out, err := p.GeneratePolicy(cmd.Context(), flags.project,
				types.Specification(spec))
			if err != nil {
				return err
			}
			fmt.Fprintf(pctx.stdout, "Policy created (%v, %v resource types)\n",
				out.Result.Outcome, out.Metadata.ResourceTypesCount)
			return nil
		},
	}
	flags.register(cmd)
	registerMethodFlag(pctx, cmd)

	return cmd
}

func newValidatorCmd(pctx *PolicygenContext) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "validator [specification...]",
		Short: "Generate only a validator script and its support files",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := pctx.readInput(args, flags.specFile, "specification")
			if err != nil {
				return err
			}
			p, release, err := pctx.newPipeline(cmd)
			if err != nil {
				return err
			}
			defer release()
			_, err = p.GenerateValidator(cmd.Context(), flags.project,
				types.Specification(spec))
			return err
		},
	}
	flags.register(cmd)

	return cmd
}
