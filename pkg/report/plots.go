package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/archgate/pkg/audit"
)

const (
	plotFileName = "audit.html"
	plotDirMode  = 0o755

	chartWidth  = "100%"
	chartHeight = "500px"
	pieWidth    = "600px"
	pieHeight   = "400px"
	pieRadius   = "60%"
	xAxisRotate = 45

	colorGood = "#91cc75"
	colorWarn = "#fac858"
	colorBad  = "#ee6666"
)

// WritePlots renders the report as an HTML chart page under dir: a per-file
// complexity bar chart, a drift-versus-complexity scatter, and a verdict
// split pie. Returns the path of the written page.
func (r *Renderer) WritePlots(rep *audit.Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, plotDirMode); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}

	page := components.NewPage()
	page.PageTitle = "archgate audit"
	page.SetLayout(components.PageCenterLayout)
	page.AddCharts(
		r.complexityBar(rep),
		r.driftScatter(rep),
		verdictPie(rep),
	)

	path := filepath.Join(dir, plotFileName)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create plot page: %w", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return "", fmt.Errorf("render plot page: %w", err)
	}

	return path, nil
}

// complexityBar charts each file's maximum unit complexity against the
// per-file limit. Bars at or over the limit render red.
func (r *Renderer) complexityBar(rep *audit.Report) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cyclomatic complexity per file",
			Subtitle: fmt.Sprintf("Per-file limit: %d", r.policy.MaxCC),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Max CC"}),
	)

	labels := make([]string, 0, len(rep.Files))
	bars := make([]opts.BarData, 0, len(rep.Files))

	for _, fv := range rep.Files {
		labels = append(labels, filepath.Base(fv.Metrics.Path))

		itemColor := colorGood
		if fv.Metrics.MaxCC > r.policy.MaxCC {
			itemColor = colorBad
		} else if fv.Metrics.MaxCC >= r.policy.ProjectMaxCC {
			itemColor = colorWarn
		}

		bars = append(bars, opts.BarData{
			Value:     fv.Metrics.MaxCC,
			ItemStyle: &opts.ItemStyle{Color: itemColor},
		})
	}

	bar.SetXAxis(labels)
	bar.AddSeries("Max CC", bars)

	return bar
}

// driftScatter maps each file by complexity (x) and drift density (y),
// split into passing and failing series.
func (r *Renderer) driftScatter(rep *audit.Report) *charts.Scatter {
	scatter := charts.NewScatter()

	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Drift density vs complexity",
			Subtitle: "Bottom-left files are healthiest",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Max CC", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ADF", Type: "value"}),
	)

	passing := make([]opts.ScatterData, 0, len(rep.Files))
	failing := make([]opts.ScatterData, 0, len(rep.Files))

	for _, fv := range rep.Files {
		point := opts.ScatterData{
			Value: []any{fv.Metrics.MaxCC, fv.Metrics.ADF, fv.Metrics.Path},
		}

		if fv.Failed {
			failing = append(failing, point)
		} else {
			passing = append(passing, point)
		}
	}

	if len(passing) > 0 {
		scatter.AddSeries(verdictPass, passing,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorGood}),
		)
	}

	if len(failing) > 0 {
		scatter.AddSeries(verdictFail, failing,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBad}),
		)
	}

	return scatter
}

func verdictPie(rep *audit.Report) *charts.Pie {
	pie := charts.NewPie()

	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: pieWidth, Height: pieHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Verdict split"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	var passed, failed int

	for _, fv := range rep.Files {
		if fv.Failed {
			failed++
		} else {
			passed++
		}
	}

	pie.AddSeries("Verdicts", []opts.PieData{
		{Name: verdictPass, Value: passed, ItemStyle: &opts.ItemStyle{Color: colorGood}},
		{Name: verdictFail, Value: failed, ItemStyle: &opts.ItemStyle{Color: colorBad}},
	}).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: pieRadius}),
	)

	return pie
}
