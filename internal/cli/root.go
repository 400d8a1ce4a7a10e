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
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	opts   *Options
}

// reportedError marks a failure whose envelope was already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCommand builds the command tree reading from in and writing results
// to out and diagnostics to errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		in:     in,
		out:    out,
		errOut: errOut,
	}

	rootCmd := &cobra.Command{
		Use:   "shamir",
		Short: "Shamir's Secret Sharing - split and recover secrets",
		Long: `shamir splits a text secret into N shares such that any T of them
recover it and fewer reveal nothing about it.

Shares are self-describing text: the field width, share id and a split tag
are encoded in each one, so combine needs no parameters besides the shares.

Entropy sources:
  - auto:     best available (PKCS#11 > TPM2 > software)
  - software: operating system CSPRNG
  - tpm2:     TPM 2.0 hardware RNG (requires the tpm2 build tag)
  - pkcs11:   HSM RNG (requires the pkcs11 build tag)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.loadOptions()
			if err != nil {
				return err
			}
			a.opts = opts
			return nil
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (YAML, same format as the server configuration)")
	flags.StringP("output", "o", string(OutputFormatText), "output format (text, json)")
	flags.Int("bits", 0, "field width in bits for new splits, 8-20 (default 8)")
	flags.String("rng", "", "entropy source (auto, software, tpm2, pkcs11)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("server", "", "split and combine through a remote server (http://host:port or https://host:port)")
	flags.String("tls-ca", "", "CA certificate file for verifying --server")
	flags.Bool("tls-insecure", false, "skip TLS certificate verification for --server (not recommended)")
	a.bindSettings(flags)

	rootCmd.AddCommand(a.newSplitCommand())
	rootCmd.AddCommand(a.newCombineCommand())
	rootCmd.AddCommand(a.newServeCommand())
	rootCmd.AddCommand(a.newVersionCommand())

	return rootCmd
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, in io.Reader, out, errOut io.Writer) int {
	cmd := NewRootCommand(in, out, errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		format := string(OutputFormatText)
		if f, ferr := cmd.PersistentFlags().GetString("output"); ferr == nil {
			format = f
		}
		_ = NewPrinter(format, errOut).PrintError(err) // best-effort
	}
	return 1
}

// Execute runs the CLI against the process's standard streams.
func Execute() int {
	return Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
