package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/broady/typarg/internal/query"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type printer struct {
	w      io.Writer
	format string

	key  *color.Color
	name *color.Color
	kind *color.Color
}

func newPrinter(w io.Writer, format string) *printer {
	p := &printer{
		w:      w,
		format: format,
		key:    color.New(color.Faint),
		name:   color.New(color.FgCyan, color.Bold),
		kind:   color.New(color.FgYellow),
	}
	enabled := colorEnabled(w)
	for _, c := range []*color.Color{p.key, p.name, p.kind} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// value writes v as JSON or YAML.
func (p *printer) value(v any) error {
	if p.format == formatYAML {
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) result(res *query.Result) error {
	if p.format != formatText {
		return p.value(res)
	}
	rows := [][]string{
		{"subject", res.Subject},
		{"query", res.Query},
		{"kind", res.Kind},
		{"type", res.Type},
	}
	if len(res.Bounds) > 0 {
		rows = append(rows, []string{"bounds", strings.Join(res.Bounds, " & ")})
	}
	return p.table(rows, p.key, p.name)
}

// table writes rows with columns aligned on display width. colors apply to
// the columns in order; a nil color leaves the column plain.
func (p *printer) table(rows [][]string, colors ...*color.Color) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i])
			}
			if i < len(colors) && colors[i] != nil {
				cell = colors[i].Sprint(cell)
			}
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}
