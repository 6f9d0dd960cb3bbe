// Package report writes finished miss ratio curves as CSV, JSON, a plot
// image, or a console summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cachesim/cachemrc/sim"
)

// Plot dimensions.
const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 6 * vg.Inch
)

var csvColumns = []string{"policy", "capacity", "miss_ratio"}

// Save writes results to path in the format implied by its extension:
// .csv, .json, or a .png/.svg/.pdf line plot.
func Save(results []sim.SimulationResult, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeFile(path, func(w io.Writer) error { return WriteCSV(w, results) })
	case ".json":
		return writeFile(path, func(w io.Writer) error { return WriteJSON(w, results) })
	case ".png", ".svg", ".pdf":
		p, err := NewPlot(results)
		if err != nil {
			return err
		}
		if err := p.Save(plotWidth, plotHeight, path); err != nil {
			return fmt.Errorf("saving plot: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want .csv, .json, .png, .svg or .pdf)", ext)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes one policy,capacity,miss_ratio row per curve point.
func WriteCSV(w io.Writer, results []sim.SimulationResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range results {
		for _, p := range r.Points {
			row := []string{
				r.Label,
				strconv.FormatFloat(p.Capacity, 'f', -1, 64),
				strconv.FormatFloat(p.MissRatio, 'f', -1, 64),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("writing CSV row: %w", err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []sim.SimulationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// NewPlot draws one line per policy: capacity on x, miss ratio in [0, 1] on y.
func NewPlot(results []sim.SimulationResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Miss Ratio Curve"
	p.X.Label.Text = "Cache Size (bytes)"
	p.Y.Label.Text = "Miss Ratio"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	lines := make([]interface{}, 0, 2*len(results))
	for _, r := range results {
		xys := make(plotter.XYs, len(r.Points))
		for i, pt := range r.Points {
			xys[i].X = pt.Capacity
			xys[i].Y = pt.MissRatio
		}
		lines = append(lines, r.Label, xys)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return nil, fmt.Errorf("adding curves to plot: %w", err)
	}
	return p, nil
}

// PrintTable writes a console summary: first, middle and last points plus
// the minimum miss ratio of each curve.
func PrintTable(w io.Writer, results []sim.SimulationResult) {
	_, _ = fmt.Fprintln(w, "=== Miss Ratio Curves ===")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Policy %-6s        : %d points\n", r.Label, len(r.Points))
		if len(r.Points) == 0 {
			continue
		}
		for _, i := range sampleIndices(len(r.Points)) {
			pt := r.Points[i]
			_, _ = fmt.Fprintf(w, "  %-12s : %.4f\n", FormatBytes(pt.Capacity), pt.MissRatio)
		}
		_, _ = fmt.Fprintf(w, "  Min Miss Ratio : %.4f\n", r.MinMissRatio())
	}
}

func sampleIndices(n int) []int {
	switch {
	case n == 1:
		return []int{0}
	case n == 2:
		return []int{0, 1}
	default:
		return []int{0, n / 2, n - 1}
	}
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(b float64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f %s", b, units[i])
	}
	return fmt.Sprintf("%.2f %s", b, units[i])
}
