package services

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"propwatch/models"
)

// RenderStats formats store statistics as tables for terminal output.
func RenderStats(stats models.Stats) string {
	totals := table.NewWriter()
	totals.SetStyle(table.StyleLight)
	totals.AppendHeader(table.Row{"Metric", "Value"})
	totals.AppendRow(table.Row{"Total records", stats.TotalRecords})
	totals.AppendRow(table.Row{"Notified", stats.Notified})

	out := totals.Render()
	if len(stats.ByCounty) > 0 {
		out += "\n" + renderGroup("County", stats.ByCounty)
	}
	if len(stats.ByType) > 0 {
		out += "\n" + renderGroup("Record Type", stats.ByType)
	}
	return out
}

func renderGroup(label string, counts map[string]int64) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{label, "Count"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, counts[k]})
	}
	return t.Render()
}

// PrintStats writes the statistics report to stdout.
func PrintStats(stats models.Stats) {
	fmt.Println(RenderStats(stats))
}
