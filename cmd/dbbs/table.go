package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"dbbs/pkg/domain"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderParseResult prints the episode table followed by the bit table.
func renderParseResult(result *domain.ParseResult) string {
	episodeRows := make([][]string, 0, len(result.Episodes))
	for _, ep := range result.Episodes {
		episodeRows = append(episodeRows, []string{
			fmt.Sprintf("%d", ep.Num),
			ep.Name,
			optional(ep.StreamLink),
		})
	}

	bitRows := make([][]string, 0, len(result.Bits))
	for _, b := range result.Bits {
		bitRows = append(bitRows, []string{
			fmt.Sprintf("%d", b.Episode),
			b.Name,
			optional(b.AltName),
			formatTimeCode(b.TimeCode),
			flags(b),
			fmt.Sprintf("%d", len(b.Links)),
		})
	}

	var sb strings.Builder
	sb.WriteString(renderTable(
		[]string{"Episode", "Name", "Stream"},
		episodeRows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
	sb.WriteString("\n")
	sb.WriteString(renderTable(
		[]string{"Episode", "Bit", "Alt Name", "Time", "Flags", "Links"},
		bitRows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	sb.WriteString("\n")
	if result.Timestamp != nil {
		fmt.Fprintf(&sb, "Generated %s\n", *result.Timestamp)
	}
	return sb.String()
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTimeCode(tc *domain.TimeCode) string {
	if tc == nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", tc.Hrs, tc.Mins, tc.Secs)
}

func flags(b domain.Bit) string {
	var out []string
	if b.IsHistoryRoad {
		out = append(out, "HR")
	}
	if b.IsLegendary {
		out = append(out, "legendary")
	}
	return strings.Join(out, ",")
}
