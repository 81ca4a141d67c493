package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatMarkdown, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", raw)
	}
}

// Table is the tabular rendering of a value for text and markdown output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular values choose their own columns for text and markdown.
type Tabular interface {
	Table() Table
}

// Message is a one-line acknowledgement.
type Message string

func (m Message) Table() Table {
	return Table{Headers: []string{"message"}, Rows: [][]string{{string(m)}}}
}

var headerColor = color.New(color.Bold, color.FgCyan)

func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatText:
		if t, ok := v.(Tabular); ok {
			return writeText(w, t.Table())
		}
		return writeJSON(w, v)
	case FormatMarkdown:
		if t, ok := v.(Tabular); ok {
			return writeMarkdown(w, t.Table())
		}
		return writeJSON(w, v)
	case FormatYAML:
		return writeYAML(w, v)
	case FormatJSON, "":
		return writeJSON(w, v)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// writeYAML goes through JSON so field names match the json tags.
func writeYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "(none)")
		return err
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(upper(t.Headers), "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, rest, _ := strings.Cut(buf.String(), "\n")
	if _, err := fmt.Fprintln(w, headerColor.Sprint(header)); err != nil {
		return err
	}
	_, err := io.WriteString(w, rest)
	return err
}

func writeMarkdown(w io.Writer, t Table) error {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
