// Package output renders command results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Supported formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Printer writes results in the selected format
type Printer struct {
	Format string
	Out    io.Writer
}

// New returns a printer for format, defaulting to a table
func New(format string, out io.Writer) (*Printer, error) {
	switch format {
	case "", FormatTable:
		return &Printer{Format: FormatTable, Out: out}, nil
	case FormatJSON, FormatYAML:
		return &Printer{Format: format, Out: out}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q, must be one of: table, json, yaml", format)
	}
}

// Structured reports whether results are printed as JSON or YAML
func (p *Printer) Structured() bool {
	return p.Format != FormatTable
}

// Print writes v as JSON or YAML, or calls table with a tab-aligned writer
func (p *Printer) Print(v any, table func(w io.Writer)) error {
	switch p.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
}
