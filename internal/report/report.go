// Package report renders plans, splits and VPC inventories as terminal
// tables, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"gopkg.in/yaml.v3"

	"tasnim.dev/vpc-planner/internal/tui/theme"
	"tasnim.dev/vpc-planner/internal/utils"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json or yaml; "" means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q, want table, json or yaml", s)
	}
}

// Renderer writes reports to w. Styles are applied only when styled is set,
// so piped output stays free of escape sequences.
type Renderer struct {
	w      io.Writer
	format Format
	styled bool
}

func New(w io.Writer, format Format, styled bool) *Renderer {
	return &Renderer{w: w, format: format, styled: styled}
}

func (r *Renderer) Format() Format { return r.format }

// structured writes v as JSON or YAML. It reports false for table output.
func (r *Renderer) structured(v any) (bool, error) {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (r *Renderer) style(s lipgloss.Style) lipgloss.Style {
	if !r.styled {
		return lipgloss.NewStyle()
	}
	return s
}

func (r *Renderer) status(s string) string {
	if !r.styled {
		return s
	}
	return theme.RenderStatus(s)
}

func (r *Renderer) details() *utils.DetailBuilder {
	return utils.NewDetailBuilder(14, r.style(theme.SectionStyle)).WithLabelStyle(r.style(theme.LabelStyle))
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	header := r.style(theme.HeaderStyle)
	cell := theme.CellStyle
	if !r.styled {
		cell = lipgloss.NewStyle().Padding(0, 1)
		header = lipgloss.NewStyle().Padding(0, 1)
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.style(theme.BorderStyle)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

func (r *Renderer) write(s string) error {
	_, err := io.WriteString(r.w, s)
	return err
}
