/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
	// FormatText outputs data as a flattened, human-readable table
	FormatText Format = "text"
)

// IsUnknown reports whether the format is not one of the supported values.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatText:
		return false
	default:
		return true
	}
}

// SupportedFormats returns a list of all supported output formats.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatText)}
}

// Writer serializes report data to an output destination in one format.
// Close must be called when using NewFileWriterOrStdout.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a Writer with the specified format and destination.
// If output is nil, os.Stdout is used. Unknown formats default to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &Writer{format: format, output: output}
}

// NewStdoutWriter creates a Writer that outputs to stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, nil)
}

// NewFileWriterOrStdout creates a Writer for the given file path, falling
// back to stdout when the path is empty or the file cannot be created.
// Call Close to release the file handle.
func NewFileWriterOrStdout(format Format, path string) *Writer {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewStdoutWriter(format)
	}

	file, err := os.Create(trimmed)
	if err != nil {
		slog.Error("failed to create output file, falling back to stdout",
			"error", err, "path", trimmed)
		return NewStdoutWriter(format)
	}

	w := NewWriter(format, file)
	w.closer = file
	return w
}

// Serialize writes v to the output in the configured format.
func (w *Writer) Serialize(v any) error {
	switch w.format {
	case FormatYAML:
		enc := yaml.NewEncoder(w.output)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		return w.serializeText(v)
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.output.Write(data)
		return err
	}
}

// Close releases the underlying file handle, if any.
func (w *Writer) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

var titler = cases.Title(language.English)

// serializeText renders v as aligned label/value rows with dotted keys
// flattened and title-cased for readability.
func (w *Writer) serializeText(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to flatten value: %w", err)
	}

	var m any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to flatten value: %w", err)
	}

	flat := map[string]string{}
	flatten("", m, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w.output, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		label := titler.String(strings.ReplaceAll(strings.ReplaceAll(k, "_", " "), ".", " "))
		fmt.Fprintf(tw, "%s:\t%s\n", label, flat[k])
	}
	return tw.Flush()
}

func flatten(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []any:
		for i, child := range val {
			flatten(fmt.Sprintf("%s.%d", prefix, i), child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprintf("%v", val)
	}
}
