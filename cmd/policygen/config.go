/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"

	"github.com/mikeb26/policygen/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(pctx *PolicygenContext) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration and check it for problems",
		Long: `Resolves configuration from the config file, .env and the environment,
prints it (credentials excluded) and validates it without contacting the
backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configMain(cmd, pctx)
		},
	}
}

func configMain(cmd *cobra.Command, pctx *PolicygenContext) error {
	cfg, err := pctx.loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("Failed to render configuration: %w", err)
	}
	fmt.Fprint(pctx.stdout, string(out))

	info, ok := internal.GetVendorInfo(cfg.Vendor)
	if ok && cfg.APIKey != "" {
		fmt.Fprintf(pctx.stdout, "credential: set (%v)\n", info.KeyEnv)
	} else if ok {
		fmt.Fprintf(pctx.stdout, "credential: missing (%v)\n", info.KeyEnv)
		fmt.Fprintf(pctx.stdout, "  obtain a %v key from %v\n", info.FullName,
			info.ApiKeyUrl)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(pctx.stdout, "configuration OK")

	return nil
}
