package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/planbiir/skitrack/internal/analysis"
	"github.com/planbiir/skitrack/internal/segment"
)

// DefaultDetail is the number of chart samples used when none is configured.
const DefaultDetail = 2000

// Report renders elevation and speed profiles plus a per-segment vertical
// chart as a standalone HTML page. detail caps the number of plotted samples.
func Report(w io.Writer, name string, v analysis.View, segments []segment.Segment, detail int) error {
	if len(v.Points) == 0 {
		return fmt.Errorf("report %s: no points", name)
	}

	points := Downsample(v.Points, detail)

	xAxis := make([]string, len(points))
	elevation := make([]opts.LineData, len(points))
	speed := make([]opts.LineData, len(points))
	smooth := make([]opts.LineData, len(points))
	for i, p := range points {
		xAxis[i] = strconv.FormatFloat((p.CumDist-v.StartDist)/1000, 'f', 2, 64)
		elevation[i] = opts.LineData{Value: math.Round(p.Ele)}
		speed[i] = opts.LineData{Value: round1(p.Speed)}
		smooth[i] = opts.LineData{Value: round1(p.SmoothSpeed)}
	}

	subtitle := fmt.Sprintf("%.2f km · %s · %.0f m gain · max %.1f km/h",
		v.Summary.TotalDistanceKm, v.Summary.Duration, v.Summary.ElevationGain, v.Summary.MaxSpeedKmh)

	elevationChart := profileChart(name+" elevation", subtitle, "Elevation (m)")
	elevationChart.SetXAxis(xAxis).
		AddSeries("Elevation", elevation).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	speedChart := profileChart(name+" speed", subtitle, "Speed (km/h)")
	speedChart.SetXAxis(xAxis).
		AddSeries("Speed", speed).
		AddSeries("Smoothed", smooth).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	page := components.NewPage()
	page.PageTitle = name
	page.AddCharts(elevationChart, speedChart)

	if !v.IsSegment && len(segments) > 0 {
		page.AddCharts(segmentChart(name, segments))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report %s: %w", name, err)
	}
	return nil
}

func profileChart(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "cross",
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Distance (km)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         yName,
			NameLocation: "middle",
			NameGap:      50,
			Scale:        opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	return line
}

func segmentChart(name string, segments []segment.Segment) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{Title: name + " segments"}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "shadow",
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         "Vertical (m)",
			NameLocation: "middle",
			NameGap:      50,
		}),
	)

	labels := make([]string, len(segments))
	descents := make([]opts.BarData, len(segments))
	ascents := make([]opts.BarData, len(segments))
	for i, s := range segments {
		labels[i] = s.ID()
		descents[i] = opts.BarData{Value: "-"}
		ascents[i] = opts.BarData{Value: "-"}
		if s.Type == segment.Descent {
			descents[i] = opts.BarData{Value: s.VerticalMeters}
		} else {
			ascents[i] = opts.BarData{Value: s.VerticalMeters}
		}
	}

	bar.SetXAxis(labels).
		AddSeries("Descent", descents).
		AddSeries("Ascent", ascents).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "vertical"}))
	return bar
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
