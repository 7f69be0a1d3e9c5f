package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sootsim/internal/coupling"
)

// Plot draws ys as an asciigraph chart no wider than width columns.
func Plot(caption string, ys []float64, width, height int) string {
	if len(ys) == 0 {
		return ""
	}
	return asciigraph.Plot(downsample(ys, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(caption))
}

// downsample keeps every k-th value plus the last one.
func downsample(ys []float64, width int) []float64 {
	if width <= 0 || len(ys) <= width {
		return ys
	}
	stride := (len(ys) + width - 1) / width
	out := make([]float64, 0, width+1)
	for i := 0; i < len(ys); i += stride {
		out = append(out, ys[i])
	}
	if (len(ys)-1)%stride != 0 {
		out = append(out, ys[len(ys)-1])
	}
	return out
}

// RenderSummary renders the end state and metrics of a run.
func RenderSummary(title string, res *coupling.Result) string {
	var state, metrics [][2]string
	if n := res.Len(); n > 0 {
		last := n - 1
		state = [][2]string{
			{"steps", fmt.Sprintf("%d", res.Steps)},
			{"time", fmt.Sprintf("%.4e s", res.Times[last])},
			{"temperature", fmt.Sprintf("%.1f K", res.Temperature[last])},
			{"pressure", fmt.Sprintf("%.4e Pa", res.Pressure[last])},
			{"N", fmt.Sprintf("%.4e #/cc", res.NumberDensity[last])},
			{"FV", fmt.Sprintf("%.4e ppm", res.VolumeFraction[last])},
			{"residual", fmt.Sprintf("%.4e", res.Residual[last])},
			{"precursor", fmt.Sprintf("%.4e", res.ReactorPrecursor[last])},
		}
	}
	for _, name := range sortedKeys(res.Metrics) {
		metrics = append(metrics, [2]string{name, fmt.Sprintf("%.4g", res.Metrics[name])})
	}

	// Metric names are longer than the state labels; size the column so
	// none of them wrap.
	width := MetricLabel.GetWidth()
	for _, rows := range [][][2]string{state, metrics} {
		for _, row := range rows {
			width = max(width, lipgloss.Width(row[0])+2)
		}
	}
	label := MetricLabel.Width(width)

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(title)) + "\n")
	for _, row := range state {
		s.WriteString(label.Render(row[0]) + MetricValue.Render(row[1]) + "\n")
	}
	if len(metrics) > 0 {
		s.WriteString("\n" + Subtle.Render("metrics") + "\n")
		for _, row := range metrics {
			s.WriteString(label.Render(row[0]) + MetricValue.Render(row[1]) + "\n")
		}
	}
	return panelStyle().Render(strings.TrimRight(s.String(), "\n"))
}

// PlotResult stacks one chart per named column.
func PlotResult(res *coupling.Result, names []string, width, height int) (string, error) {
	charts := make([]string, 0, len(names))
	for _, name := range names {
		col, ok := res.Column(name)
		if !ok {
			return "", fmt.Errorf("unknown column %q", name)
		}
		charts = append(charts, Plot(name, col, width, height))
	}
	return lipgloss.JoinVertical(lipgloss.Left, charts...), nil
}
