/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mikeb26/policygen/internal"
	"github.com/mikeb26/policygen/internal/config"
	"github.com/mikeb26/policygen/internal/llmclient"
	"github.com/mikeb26/policygen/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

//go:embed version.txt
var versionText string

const DevVersionText = "v0.devbuild"

type completerFactory func(ctx context.Context, cfg *config.Config,
	logger *zap.Logger) (types.Completer, error)

// PolicygenContext carries flag values and process I/O for every
// subcommand.
type PolicygenContext struct {
	configPath      string
	verbose         bool
	vendor          string
	model           string
	outputDir       string
	method          string
	parallel        bool
	reasoningEffort string
	timeout         time.Duration

	logger *zap.Logger

	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool

	newCompleter completerFactory
	now          func() time.Time
}

func NewPolicygenContext() *PolicygenContext {
	return &PolicygenContext{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		newCompleter: newEINOCompleter,
		now:          time.Now,
	}
}

func newEINOCompleter(ctx context.Context, cfg *config.Config,
	logger *zap.Logger) (types.Completer, error) {

	client, err := llmclient.NewEINOClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newRootCmd(pctx *PolicygenContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   internal.CommandName,
		Short: "Generate Azure policies and validators from a free-text specification",
		Long: `policygen reads a free-text task specification and asks a language model to
author an Azure Policy rule and a JavaScript validation script for it. Every
artifact is written below the output directory together with a summary
manifest listing what was produced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if pctx.logger != nil {
				return nil
			}
			logConfig := zap.NewProductionConfig()
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if pctx.verbose {
				logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			pctx.logger, err = logConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if pctx.logger != nil {
				_ = pctx.logger.Sync()
			}
		},
	}
	rootCmd.SetIn(pctx.stdin)
	rootCmd.SetOut(pctx.stdout)
	rootCmd.SetErr(pctx.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&pctx.configPath, "config", "c", "",
		"optional YAML configuration file")
	flags.BoolVarP(&pctx.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&pctx.vendor, "vendor", "",
		fmt.Sprintf("model vendor, one of %v", config.SupportedVendors()))
	flags.StringVar(&pctx.model, "model", "", "model or deployment name")
	flags.StringVarP(&pctx.outputDir, "output-dir", "o", "",
		"root directory for generated artifacts")
	flags.StringVar(&pctx.reasoningEffort, "reasoning", "",
		"reasoning effort: low, medium or high")
	flags.DurationVar(&pctx.timeout, "timeout", 0,
		"per-call backend timeout")

	rootCmd.AddCommand(
		newGenerateCmd(pctx),
		newPolicyCmd(pctx),
		newValidatorCmd(pctx),
		newEvaluateCmd(pctx),
		newCatalogCmd(pctx),
		newConfigCmd(pctx),
		newVersionCmd(pctx),
	)

	return rootCmd
}

// loadConfig resolves configuration with command line flags taking
// priority. Validation is left to the caller.
func (pctx *PolicygenContext) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]string)
	set := func(flag string, env string, value string) {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[env] = value
		}
	}
	set("vendor", config.EnvVendor, pctx.vendor)
	set("model", config.EnvModel, pctx.model)
	set("output-dir", config.EnvOutputDir, pctx.outputDir)
	set("method", config.EnvMethod, pctx.method)
	set("parallel", config.EnvParallel, strconv.FormatBool(pctx.parallel))
	set("reasoning", config.EnvReasoningEffort, pctx.reasoningEffort)
	set("timeout", config.EnvTimeout, pctx.timeout.String())

	return config.Load(pctx.configPath, overrides)
}

func versionMain(pctx *PolicygenContext) error {
	fmt.Fprintf(pctx.stdout, "%v-%v\n", internal.CommandName,
		strings.TrimSpace(versionText))
	return nil
}

func newVersionCmd(pctx *PolicygenContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the policygen version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionMain(pctx)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	pctx := NewPolicygenContext()
	err := newRootCmd(pctx).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", internal.CommandName, err)
		stop()
		os.Exit(1)
	}
}
