/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"

	"github.com/mikeb26/policygen/internal/catalog"
	"github.com/mikeb26/policygen/internal/types"
	"github.com/spf13/cobra"
)

func newCatalogCmd(pctx *PolicygenContext) *cobra.Command {
	var specFile string
	cmd := &cobra.Command{
		Use:   "catalog [specification...]",
		Short: "Print the fallback resource types for a specification",
		Long: `Prints the resource type identifiers the template method falls back to
when the model cannot list them. No backend is contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := pctx.readInput(args, specFile, "specification")
			if err != nil {
				return err
			}
			for _, id := range catalog.Lookup(types.Specification(spec)) {
				fmt.Fprintln(pctx.stdout, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&specFile, "spec-file", "f", "",
		`read the specification from this file ("-" for stdin)`)

	return cmd
}
