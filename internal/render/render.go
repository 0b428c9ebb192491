// Package render draws the aggregated tables as SVG charts.
package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
)

const (
	colorText   = "#C9D1D9"
	colorMuted  = "#8B949E"
	colorBar    = "#58A6FF"
	colorTrack  = "#30363D"
	colorActive = "#2EA043"

	fontFamily = "Segoe UI, Helvetica, Arial, sans-serif"
	chartWidth = 1200
)

func textStyle(color string, size int, extra ...string) []string {
	attrs := []string{
		fmt.Sprintf(`fill="%s"`, color),
		fmt.Sprintf(`font-family="%s"`, fontFamily),
		fmt.Sprintf(`font-size="%d"`, size),
	}
	return append(attrs, extra...)
}

// LanguageChart renders the language table as horizontal bars scaled to the largest count.
func LanguageChart(w io.Writer, owner string, rows []domain.LanguageCount, generatedAt string) {
	const (
		labelX      = 0
		barX        = 150
		barW        = 1000
		rowH        = 44
		topPad      = 110
		bottomPad   = 54
		barH        = 18
		cornerRound = 9
	)
	height := topPad + rowH*max(1, len(rows)) + bottomPad
	maxCount := 1
	for _, row := range rows {
		maxCount = max(maxCount, row.Count)
	}

	canvas := svg.New(w)
	canvas.Start(chartWidth, height, `role="img"`, `aria-label="Projects by detected languages chart"`)
	canvas.Text(labelX, 54, "Projects by Detected Languages", textStyle(colorText, 28, `font-weight="700"`)...)
	canvas.Text(labelX, 79, "Each detected repo language counts once - "+owner, textStyle(colorMuted, 14)...)
	canvas.Text(labelX, 98, "Contributing repositories for both public and private included", textStyle(colorMuted, 14)...)

	if len(rows) == 0 {
		canvas.Text(labelX, topPad+18, "No language data found. Run the fetch command first.", textStyle(colorMuted, 16)...)
	}
	for i, row := range rows {
		y := topPad + i*rowH
		fill := row.Count * barW / maxCount
		canvas.Text(labelX, y+24, row.Language, textStyle(colorText, 16)...)
		canvas.Roundrect(barX, y+8, barW, barH, cornerRound, cornerRound, fmt.Sprintf(`fill="%s"`, colorTrack))
		canvas.Roundrect(barX, y+8, fill, barH, cornerRound, cornerRound, fmt.Sprintf(`fill="%s"`, colorBar))
		canvas.Text(barX+barW+12, y+23, fmt.Sprint(row.Count), textStyle(colorText, 14)...)
	}

	canvas.Text(labelX, height-22, "Updated: "+generatedAt, textStyle(colorMuted, 12)...)
	canvas.End()
}

// ActivityChart renders a coded-days progress bar and a presence grid with one square per day.
func ActivityChart(w io.Writer, owner string, rows []domain.DayCount, summary domain.ActivitySummary, generatedAt string) {
	const (
		progressW  = 1080
		progressH  = 20
		progressY  = 128
		squareSize = 10
		squareGap  = 3
		columns    = 30
		squaresY   = 176
	)
	percent := min(100.0, max(0.0, summary.CodedDaysPercent))
	fill := int(percent / 100 * progressW)

	cells := min(len(rows), summary.WindowDays)
	gridRows := max(1, (cells+columns-1)/columns)
	gridHeight := gridRows*squareSize + (gridRows-1)*squareGap
	footerY := squaresY + gridHeight + 24
	height := footerY + 16

	canvas := svg.New(w)
	canvas.Start(chartWidth, height, `role="img"`, fmt.Sprintf(`aria-label="Coding consistency last %d days"`, summary.WindowDays))
	canvas.Text(0, 46, fmt.Sprintf("Coding Consistency (Last %d Days)", summary.WindowDays), textStyle(colorText, 30, `font-weight="700"`)...)
	canvas.Text(0, 76, fmt.Sprintf("%s coded on %d/%d days (%.1f%%)", owner, summary.CodedDays, summary.WindowDays, summary.CodedDaysPercent), textStyle(colorMuted, 16)...)
	canvas.Text(0, 102, fmt.Sprintf("Total contributions in window: %d", summary.Total), textStyle(colorMuted, 14)...)
	canvas.Roundrect(0, progressY, progressW, progressH, 10, 10, fmt.Sprintf(`fill="%s"`, colorTrack))
	canvas.Roundrect(0, progressY, fill, progressH, 10, 10, fmt.Sprintf(`fill="%s"`, colorActive))
	canvas.Text(progressW+12, progressY+15, fmt.Sprintf("%.1f%%", summary.CodedDaysPercent), textStyle(colorText, 14)...)

	for i := 0; i < cells; i++ {
		x := (i % columns) * (squareSize + squareGap)
		y := squaresY + (i/columns)*(squareSize+squareGap)
		color := colorTrack
		if rows[i].Count > 0 {
			color = colorActive
		}
		canvas.Roundrect(x, y, squareSize, squareSize, 2, 2, fmt.Sprintf(`fill="%s"`, color))
	}

	canvas.Text(0, footerY, "Updated: "+generatedAt, textStyle(colorMuted, 12)...)
	canvas.End()
}
