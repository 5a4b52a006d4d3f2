package fda

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soltanovemil/Functional-Data-Analysis/bikeset"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func lineHarmonics(res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Daily rental harmonics",
			},
		),
	)

	lineDataMean := make([]opts.LineData, 0, len(res.Grid))
	for _, v := range res.MeanCurve {
		lineDataMean = append(lineDataMean, opts.LineData{Value: v})
	}

	line.SetXAxis(res.Grid).
		AddSeries("Mean", lineDataMean)
	for i, harm := range res.HarmonicCurves {
		lineData := make([]opts.LineData, 0, len(harm))
		for _, v := range harm {
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line.AddSeries(fmt.Sprintf("Harmonic %d", i+1), lineData)
	}
	return line
}

func lineDepths(res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Day depth ranking",
			},
		),
	)

	days := make([]int, 0, res.NumDays)
	lineData := make([]opts.LineData, 0, res.NumDays)
	for i, d := range res.Depths {
		days = append(days, i)
		lineData = append(lineData, opts.LineData{Value: d})
	}
	line.SetXAxis(days).
		AddSeries("Depth", lineData)
	return line
}

func ExampleAnalysis() {
	// two months of synthetic hourly rentals with weekday commute peaks
	ds := bikeset.Simulate(60, time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC), 8.0)

	a, err := New(nil)
	if err != nil {
		panic(err)
	}
	if err := a.Fit(ds); err != nil {
		panic(err)
	}
	res, err := a.Results()
	if err != nil {
		panic(err)
	}

	page := components.NewPage()
	page.AddCharts(
		lineHarmonics(res),
		lineDepths(res),
	)
	if err := os.MkdirAll("examples", 0o755); err != nil {
		panic(err)
	}
	file, err := os.Create("examples/analysis.html")
	if err != nil {
		panic(err)
	}
	page.Render(io.MultiWriter(file))

	// Output:
}
