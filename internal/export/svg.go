package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/sootsim/internal/coupling"
)

type Chart struct {
	Width  int
	Height int
	Stroke string
	Title  string
	// LogY plots log10(y) and drops non-positive values.
	LogY bool
}

func DefaultChart() Chart {
	return Chart{Width: 640, Height: 240, Stroke: "#00ff00"}
}

// SeriesToSVG draws y against x as a single polyline. It returns "" when
// fewer than two points are drawable.
func SeriesToSVG(x, y []float64, c Chart) string {
	xs, ys := drawable(x, y, c.LogY)
	if len(xs) < 2 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, c.Width, c.Height, c.Width, c.Height))
	writePanel(&sb, xs, ys, c, 0)
	sb.WriteString("</svg>")
	return sb.String()
}

// ResultToSVG stacks one panel per named column, all against time.
func ResultToSVG(res *coupling.Result, names []string, c Chart) (string, error) {
	panels := make([][2][]float64, 0, len(names))
	for _, name := range names {
		col, ok := res.Column(name)
		if !ok {
			return "", fmt.Errorf("unknown column %q", name)
		}
		xs, ys := drawable(res.Times, col, c.LogY)
		panels = append(panels, [2][]float64{xs, ys})
	}

	total := c.Height * len(panels)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, c.Width, total, c.Width, total))

	for i, p := range panels {
		pc := c
		pc.Title = names[i]
		if c.LogY {
			pc.Title = "log10 " + names[i]
		}
		if len(p[0]) < 2 {
			continue
		}
		writePanel(&sb, p[0], p[1], pc, i*c.Height)
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

func drawable(x, y []float64, logY bool) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := y[i]
		if logY {
			if !(v > 0) {
				continue
			}
			v = math.Log10(v)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(x[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, v)
	}
	return xs, ys
}

func writePanel(sb *strings.Builder, xs, ys []float64, c Chart, top int) {
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(maxY), 1)
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	w, h := float64(c.Width), float64(c.Height)
	if c.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="#aaaaaa" font-family="monospace" font-size="12">%s (%.3g .. %.3g)</text>
`, top+16, c.Title, floats.Min(ys), floats.Max(ys)))
	}
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, c.Stroke))

	for i := range xs {
		x := (xs[i] - minX) / rangeX * w
		y := float64(top) + h - (ys[i]-minY)/rangeY*h

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
}
