// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.
//
// shamir-secret-sharing-app is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newCombineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "combine [share...]",
		Short: "Recover a secret from shares",
		Long: `Recover a secret from at least threshold shares of one split.

Shares are taken from the arguments or, when none are given, from stdin one
per line. Blank lines are ignored. Combining fewer shares than the split's
threshold either fails or yields a value that is not the secret.`,
		Example: `  shamir combine 8011c9a04f2... 8031c9a04f2... 8051c9a04f2...
  head -3 shares.txt | shamir combine -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shares := args
			if len(shares) == 0 {
				var err error
				if shares, err = readLines(a.in); err != nil {
					return fmt.Errorf("failed to read shares from stdin: %w", err)
				}
			}

			s, closeFn, err := a.newSharer(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()
			a.printVerbose("Combining %d shares", len(shares))

			result, err := s.Combine(cmd.Context(), shares)
			if result == nil {
				return err
			}
			if perr := NewPrinter(string(a.opts.OutputFormat), a.out).PrintCombineResult(result); perr != nil {
				return perr
			}
			return a.resultError(err)
		},
	}
}
