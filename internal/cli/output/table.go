package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table is a simple header-plus-rows table.
type Table struct {
	Header []string
	Rows   [][]string
	// RightAlign marks columns holding numbers.
	RightAlign []bool
}

// Table writes t as a box table in text mode and a markdown table otherwise.
// JSON callers render their own documents.
func (r *Renderer) Table(t Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		tw.AppendRow(tr)
	}

	var configs []table.ColumnConfig
	for i, right := range t.RightAlign {
		if right {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	tw.SetColumnConfigs(configs)

	if r.EffectiveMode() == ModeMarkdown {
		tw.RenderMarkdown()
		return
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
