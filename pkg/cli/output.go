// Package cli holds the output, input and styling helpers shared by the sim
// command-line tool.
//
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON})
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatRaw   OutputFormat = "raw"
)

// ParseOutputFormat accepts yaml, json, table or raw. An empty string means
// yaml.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatYAML, nil
	case FormatYAML, FormatJSON, FormatTable, FormatRaw:
		return f, nil
	}
	return "", fmt.Errorf("cli: unsupported output format %q", s)
}

// OutputOptions configures Output.
type OutputOptions struct {
	Format OutputFormat

	// File receives the output instead of stdout.
	File string

	// Indent for JSON. Defaults to two spaces.
	Indent string

	// Writer overrides File and stdout.
	Writer io.Writer
}

// Tabular is implemented by results that can render as a table.
type Tabular interface {
	Table() (headers []string, rows [][]string)
}

// Output writes result in the requested format. Table output needs a
// Tabular result; other results fall back to YAML.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	switch {
	case opts.Writer != nil:
		w = opts.Writer
	case opts.File != "":
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("cli: create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, result, opts.Indent)
	case FormatYAML, "":
		return writeYAML(w, result)
	case FormatTable:
		if t, ok := result.(Tabular); ok {
			headers, rows := t.Table()
			_, err := fmt.Fprintln(w, RenderTable(DefaultStyles, headers, rows))
			return err
		}
		return writeYAML(w, result)
	case FormatRaw:
		return writeRaw(w, result)
	}
	return fmt.Errorf("cli: unsupported output format %q", opts.Format)
}

func writeJSON(w io.Writer, result any, indent string) error {
	if indent == "" {
		indent = "  "
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func writeYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("cli: format yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func writeRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := io.WriteString(w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, v.String())
		return err
	}
	return writeYAML(w, result)
}

// PrintSuccess prints a message with a check mark.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// PrintWarning prints to stderr.
func PrintWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}
