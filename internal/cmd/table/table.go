// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (left).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

func (a Align) text() text.Align {
	switch a {
	case AlignCenter:
		return text.AlignCenter
	case AlignRight:
		return text.AlignRight
	default:
		return text.AlignLeft
	}
}

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// Render writes data as a rounded table. Short rows are padded with empty cells.
func Render(w io.Writer, data Data) error {
	columns := len(data.Headers)
	if columns == 0 {
		return nil
	}

	tw := prettytable.NewWriter()
	tw.SetStyle(prettytable.StyleRounded)

	header := make(prettytable.Row, columns)
	for i, h := range data.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range data.Rows {
		r := make(prettytable.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]prettytable.ColumnConfig, 0, columns)
	for i := range columns {
		align := AlignDefault
		if i < len(data.ColumnAlignment) {
			align = data.ColumnAlignment[i]
		}
		configs = append(configs, prettytable.ColumnConfig{
			Number:      i + 1,
			Align:       align.text(),
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}
