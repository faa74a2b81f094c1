package notify

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// chartOptions controla el render de una gráfica de línea en ASCII.
type chartOptions struct {
	Title   string
	Width   int
	Height  int
	YLabel  string
	XLabel  string
	YFormat func(float64) string
	Style   lipgloss.Style
}

// renderLineChart dibuja una serie como gráfica de puntos en el terminal.
// El eje Y se escala entre min(data, 0) y max(data); cada columna muestrea
// la serie a paso fijo cuando hay más puntos que columnas.
func renderLineChart(data []float64, opts chartOptions) string {
	if len(data) == 0 {
		return ""
	}
	if opts.Width == 0 {
		opts.Width = 50
	}
	if opts.Height == 0 {
		opts.Height = 12
	}
	if opts.YFormat == nil {
		opts.YFormat = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	}

	max := data[0]
	min := 0.0
	for _, v := range data {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "  "+boldStyle.Render(opts.Title))
	if opts.YLabel != "" {
		lines = append(lines, "  "+grayStyle.Render(opts.YLabel))
	}
	lines = append(lines, "")

	chartWidth := len(data)
	if chartWidth > opts.Width {
		chartWidth = opts.Width
	}
	step := len(data) / opts.Width
	if step < 1 {
		step = 1
	}

	for row := opts.Height; row >= 0; row-- {
		yVal := min + float64(row)/float64(opts.Height)*rng
		line := grayStyle.Render(fmt.Sprintf("%7s", opts.YFormat(yVal))) + " " + grayStyle.Render("│")

		for col := 0; col < chartWidth; col++ {
			idx := col * step
			if idx > len(data)-1 {
				idx = len(data) - 1
			}
			normalized := (data[idx] - min) / rng * float64(opts.Height)
			switch {
			case int(math.Round(normalized)) == row:
				line += opts.Style.Render("●")
			case row == 0:
				line += grayStyle.Render("─")
			default:
				line += " "
			}
		}
		lines = append(lines, line)
	}

	lines = append(lines, "        "+grayStyle.Render("└"+strings.Repeat("─", chartWidth)))
	if opts.XLabel != "" {
		lines = append(lines, "         "+grayStyle.Render(opts.XLabel))
	}
	if len(data) > 1 {
		lines = append(lines, "         "+axisLabels(len(data), chartWidth))
	}

	return strings.Join(lines, "\n")
}

// axisLabels coloca las etiquetas del eje X: primer epoch, medio y último.
func axisLabels(n, chartWidth int) string {
	mid := fmt.Sprintf("%d", (n+1)/2)
	last := fmt.Sprintf("%d", n)

	leftPad := chartWidth/2 - 2
	if leftPad < 0 {
		leftPad = 0
	}
	rightPad := chartWidth - chartWidth/2 - len(last) - 1
	if rightPad < 0 {
		rightPad = 0
	}

	return grayStyle.Render("1") + strings.Repeat(" ", leftPad) +
		grayStyle.Render(mid) + strings.Repeat(" ", rightPad) +
		grayStyle.Render(last)
}
