package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/poiesic/docket/chunker"
	"gopkg.in/yaml.v3"
)

// TabularExtractor renders rows of CSV, TSV, JSON and YAML files as
// "<id>: key=value, ..." records separated by chunker.RecordSeparator.
// Spreadsheet formats are recognized but not supported.
type TabularExtractor struct{}

// Extract renders the rows of a tabular file.
func (TabularExtractor) Extract(_ context.Context, name string, data []byte) (string, error) {
	switch ext := Extension(name); ext {
	case "csv":
		return renderDelimited(data, ',')
	case "tsv":
		return renderDelimited(data, '\t')
	case "json":
		var v any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("invalid JSON: %w", err)
		}
		return renderObjects(v)
	case "yml", "yaml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return "", fmt.Errorf("invalid YAML: %w", err)
		}
		return renderObjects(normalizeYAML(v))
	default:
		return "", fmt.Errorf("%w: .%s spreadsheets", ErrUnsupportedFormat, ext)
	}
}

func renderDelimited(data []byte, delimiter rune) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return "", ErrNoText
	}
	if err != nil {
		return "", err
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var b strings.Builder
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if isBlankRow(row) {
			continue
		}

		pairs := make([]string, 0, len(headers))
		for i, header := range headers {
			if i >= len(row) {
				break
			}
			if value := strings.TrimSpace(row[i]); value != "" {
				pairs = append(pairs, header+"="+value)
			}
		}
		writeRecord(&b, strings.TrimSpace(row[0]), pairs)
	}
	return b.String(), nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// renderObjects renders a single object or an array of objects.
// Array elements that are not objects are ignored.
func renderObjects(v any) (string, error) {
	var b strings.Builder
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				writeObject(&b, obj, "unknown")
			}
		}
	case map[string]any:
		writeObject(&b, v, "root")
	default:
		return "", errors.New("must be an object or an array of objects")
	}
	return b.String(), nil
}

func writeObject(b *strings.Builder, obj map[string]any, fallbackID string) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) == 0 {
		return
	}

	id := fallbackID
	if s, ok := scalarString(obj["id"]); ok {
		id = s
	} else if s, ok := scalarString(obj[keys[0]]); ok {
		id = s
	}

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		if value := formatValue(obj[k]); value != "" {
			pairs = append(pairs, k+"="+value)
		}
	}
	writeRecord(b, id, pairs)
}

func writeRecord(b *strings.Builder, id string, pairs []string) {
	b.WriteString(id)
	b.WriteString(":")
	if len(pairs) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(pairs, ", "))
	}
	b.WriteString("\n" + chunker.RecordSeparator + "\n")
}

func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, v != ""
	case json.Number, int, int64, float64, bool:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := scalarString(v); ok {
		return s
	}
	if _, ok := v.(string); ok {
		return ""
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

// normalizeYAML converts mappings with non-string keys so that YAML
// documents render like their JSON equivalents.
func normalizeYAML(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeYAML(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	default:
		return v
	}
}
