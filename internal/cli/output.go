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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputFormatText:
		return OutputFormatText, nil
	case OutputFormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (must be text or json)", s)
	}
}

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	f, err := ParseOutputFormat(format)
	if err != nil {
		f = OutputFormatText
	}
	return &Printer{
		format: f,
		writer: writer,
	}
}

// PrintSplitResult prints the shares one per line, or the envelope in JSON
// mode. Text mode prints nothing for a failed result.
func (p *Printer) PrintSplitResult(result *sharing.SplitResult) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(result)
	}
	for _, share := range result.Shares {
		if _, err := fmt.Fprintln(p.writer, share); err != nil {
			return err
		}
	}
	return nil
}

// PrintCombineResult prints the secret, or the envelope in JSON mode.
func (p *Printer) PrintCombineResult(result *sharing.CombineResult) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(result)
	}
	if !result.Success {
		return nil
	}
	_, err := fmt.Fprintln(p.writer, result.Secret)
	return err
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}
	_, werr := fmt.Fprintf(p.writer, "Error: %s\n", err)
	return werr
}

// printJSON prints data as indented JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
