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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// maxShareLine bounds a single share read from stdin.
const maxShareLine = 4 << 20

func (a *app) newSplitCommand() *cobra.Command {
	var (
		shares    int
		threshold int
		secret    string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into shares",
		Long: `Split a secret into --shares shares, any --threshold of which recover it.

The secret is taken from --secret or, when the flag is absent, from stdin
with one trailing newline removed. Shares are printed one per line.`,
		Example: `  shamir split --shares 5 --threshold 3 --secret "hunter2"
  printf 'hunter2' | shamir split -n 5 -t 3 --bits 16 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("secret") {
				data, err := io.ReadAll(a.in)
				if err != nil {
					return fmt.Errorf("failed to read secret from stdin: %w", err)
				}
				secret = trimNewline(string(data))
			}

			s, closeFn, err := a.newSharer(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeFn()
			a.printVerbose("Splitting %d bytes into %d shares (threshold %d)", len(secret), shares, threshold)

			result, err := s.Split(cmd.Context(), secret, shares, threshold)
			if result == nil {
				return err
			}
			if perr := NewPrinter(string(a.opts.OutputFormat), a.out).PrintSplitResult(result); perr != nil {
				return perr
			}
			return a.resultError(err)
		},
	}

	cmd.Flags().IntVarP(&shares, "shares", "n", 0, "total number of shares to create (2-255)")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "number of shares required to recover the secret")
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "secret to split (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("shares")
	_ = cmd.MarkFlagRequired("threshold")

	return cmd
}

// resultError converts a failed envelope into the command's error. In JSON
// mode the envelope already carries it.
func (a *app) resultError(err error) error {
	if err == nil {
		return nil
	}
	if a.opts.OutputFormat == OutputFormatJSON {
		return &reportedError{err: err}
	}
	return err
}

// trimNewline removes one trailing LF or CRLF.
func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// readLines returns the non-blank lines of r, trimmed.
func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxShareLine)

	var lines []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
