package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/reusee/taicell/cells"
	"github.com/reusee/taicell/charts"
	"github.com/reusee/taicell/frames"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func styleFunc(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func renderFrame(frame *frames.Frame, limit int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(styleFunc).
		Headers(frame.Columns()...)
	n := min(frame.Len(), limit)
	for i := range n {
		row := frame.Row(i)
		values := make([]string, len(row))
		for j, v := range row {
			values[j] = frames.FormatValue(v)
		}
		t.Row(values...)
	}
	ret := t.String()
	if frame.Len() > n {
		ret += "\n" + faintStyle.Render(fmt.Sprintf("... %d more rows", frame.Len()-n))
	}
	return ret
}

func renderCells(list []*cells.Cell) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(styleFunc).
		Headers("#", "state", "attempts", "step")
	for _, cell := range list {
		t.Row(
			fmt.Sprint(cell.ID),
			cell.State.String(),
			fmt.Sprint(cell.Attempts),
			cell.Step,
		)
	}
	return t.String()
}

func renderChart(chart *charts.Chart) string {
	b := new(strings.Builder)
	b.WriteString(chart.String())
	for _, series := range chart.Series {
		maxY := 0.0
		for _, y := range series.Y {
			maxY = max(maxY, y)
		}
		if maxY <= 0 || len(series.Y) > previewRows {
			continue
		}
		b.WriteString("\n")
		for i, y := range series.Y {
			var label string
			if i < len(series.X) {
				label = series.X[i]
			}
			width := max(int(y/maxY*40), 0)
			fmt.Fprintf(b, "\n  %-12s %s %g", label, strings.Repeat("#", width), y)
		}
	}
	return b.String()
}

func renderCell(cell *cells.Cell) string {
	b := new(strings.Builder)
	fmt.Fprintln(b, titleStyle.Render(fmt.Sprintf("cell %d [%s]", cell.ID, cell.State)))
	fmt.Fprintf(b, "step: %s\n", cell.Step)
	fmt.Fprintf(b, "attempts: %d, generation %v, execution %v\n", cell.Attempts, cell.GenDuration, cell.ExecDuration)
	if cell.Code != "" {
		fmt.Fprintf(b, "code:\n%s\n", indent(cell.Code))
	}
	if len(cell.Missing) > 0 {
		fmt.Fprintf(b, "missing modules: %s (approve %d / reject %d)\n", strings.Join(cell.Missing, ", "), cell.ID, cell.ID)
	}
	if cell.Stdout != "" {
		fmt.Fprintf(b, "output:\n%s\n", indent(cell.Stdout))
	}
	for _, display := range cell.Displayed {
		switch {
		case display.Frame != nil:
			fmt.Fprintln(b, renderFrame(display.Frame, previewRows))
		case display.Chart != nil:
			fmt.Fprintln(b, renderChart(display.Chart))
		default:
			fmt.Fprintln(b, display.Text)
		}
	}
	if cell.Result.Chart != nil {
		fmt.Fprintln(b, renderChart(cell.Result.Chart))
	}
	if cell.Error != "" {
		fmt.Fprintln(b, errorStyle.Render("error: "+cell.Error))
	}
	return strings.TrimRight(b.String(), "\n")
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
