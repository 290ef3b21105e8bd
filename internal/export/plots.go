package export

// plots.go draws the report charts as PNG bar charts: missing values by
// column, numeric value distributions, and outliers by column. Rendering is
// deliberately plain image/png drawing; the charts are small run artifacts
// referenced from report.html, not a general plotting surface.

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/carlhabs/data-quality-analyzer/internal/analyze"
	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
	"github.com/carlhabs/data-quality-analyzer/internal/dataset"
)

const (
	chartWidth  = 640
	chartHeight = 320
	marginLeft  = 40
	marginTop   = 30
	marginBot   = 40
)

var (
	chartBG   = color.RGBA{255, 255, 255, 255}
	chartBar  = color.RGBA{54, 112, 179, 255}
	chartAxis = color.RGBA{120, 120, 120, 255}
	chartText = color.RGBA{31, 35, 40, 255}
)

// histogramBins is the bin count for numeric distribution charts.
const histogramBins = 20

// maxDistributionCharts bounds how many numeric columns get a histogram.
const maxDistributionCharts = 4

// WritePlots renders the chart PNGs under outDir/plots and returns their
// paths relative to outDir, in report display order.
func WritePlots(outDir string, ds *dataset.Dataset, rep *analyze.Report) ([]string, error) {
	plotsDir := filepath.Join(outDir, "plots")
	if err := os.MkdirAll(plotsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plots dir: %w", err)
	}

	var written []string
	write := func(name string, img image.Image) error {
		f, err := os.Create(filepath.Join(plotsDir, name))
		if err != nil {
			return fmt.Errorf("create plot %s: %w", name, err)
		}
		defer f.Close()
		if err := png.Encode(f, img); err != nil {
			return fmt.Errorf("encode plot %s: %w", name, err)
		}
		written = append(written, filepath.Join("plots", name))
		return nil
	}

	labels := make([]string, len(rep.Columns))
	missing := make([]float64, len(rep.Columns))
	outliers := make([]float64, len(rep.Columns))
	for i, col := range rep.Columns {
		labels[i] = col.Column
		missing[i] = float64(col.MissingCount)
		outliers[i] = float64(col.OutlierCount)
	}

	if err := write("missing_by_column.png", barChart("Missing values by column", labels, missing)); err != nil {
		return nil, err
	}

	if img := distributionChart(ds, rep); img != nil {
		if err := write("numeric_distributions.png", img); err != nil {
			return nil, err
		}
	}

	if err := write("outliers_by_column.png", barChart("Outliers by column (IQR)", labels, outliers)); err != nil {
		return nil, err
	}

	return written, nil
}

// distributionChart stacks one histogram per numeric column. Returns nil
// when the dataset has no numeric columns.
func distributionChart(ds *dataset.Dataset, rep *analyze.Report) image.Image {
	var charts []image.Image
	for _, col := range rep.Columns {
		if len(charts) == maxDistributionCharts {
			break
		}
		if col.InferredType != string(coerce.TypeInt) && col.InferredType != string(coerce.TypeFloat) {
			continue
		}
		values := numericColumnValues(ds, col.Column)
		if len(values) == 0 {
			continue
		}
		bins, binLabels := histogram(values, histogramBins)
		charts = append(charts, barChart("Distribution of "+col.Column, binLabels, bins))
	}
	if len(charts) == 0 {
		return nil
	}

	combined := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight*len(charts)))
	for i, chart := range charts {
		r := image.Rect(0, i*chartHeight, chartWidth, (i+1)*chartHeight)
		draw.Draw(combined, r, chart, image.Point{}, draw.Src)
	}
	return combined
}

func numericColumnValues(ds *dataset.Dataset, column string) []float64 {
	var out []float64
	for _, raw := range ds.Column(column) {
		if coerce.IsMissing(raw) {
			continue
		}
		if f, ok := coerce.ParseFloat(raw); ok {
			out = append(out, f)
		}
	}
	return out
}

func histogram(values []float64, bins int) ([]float64, []string) {
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	counts := make([]float64, bins)
	labels := make([]string, bins)
	width := (hi - lo) / float64(bins)
	if width == 0 {
		counts[0] = float64(len(values))
		labels[0] = fmt.Sprintf("%.4g", lo)
		return counts, labels
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	labels[0] = fmt.Sprintf("%.4g", lo)
	labels[bins-1] = fmt.Sprintf("%.4g", hi)
	return counts, labels
}

// barChart renders one titled bar chart. Labels may be empty strings; they
// are drawn under the bars when there is room.
func barChart(title string, labels []string, values []float64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(chartBG), image.Point{}, draw.Src)

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}

	plotW := chartWidth - marginLeft - 10
	plotH := chartHeight - marginTop - marginBot
	baseline := marginTop + plotH

	// Axes.
	hline(img, marginLeft, chartWidth-10, baseline, chartAxis)
	vline(img, marginLeft, marginTop, baseline, chartAxis)

	if n := len(values); n > 0 && maxVal > 0 {
		slot := plotW / n
		barW := slot * 7 / 10
		if barW < 1 {
			barW = 1
		}
		for i, v := range values {
			h := int(float64(plotH) * v / maxVal)
			x0 := marginLeft + i*slot + (slot-barW)/2
			fill(img, x0, baseline-h, x0+barW, baseline, chartBar)

			label := labels[i]
			if label != "" && len(label)*7 <= slot {
				drawText(img, x0+(barW-len(label)*7)/2, baseline+16, label)
			}
		}
	}

	drawText(img, marginLeft, 18, title)
	drawText(img, 4, marginTop+6, fmt.Sprintf("%.4g", maxVal))
	return img
}

func fill(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(c), image.Point{}, draw.Src)
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) { fill(img, x0, y, x1, y+1, c) }

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) { fill(img, x, y0, x+1, y1, c) }

func drawText(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(chartText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
