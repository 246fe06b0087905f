package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/beacon.report/internal/beacon"
	"github.com/banshee-data/beacon.report/internal/fsutil"
)

// ChartTitle is the title of the HTML beacon map.
const ChartTitle = "Beacon Map"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderChart writes a go-echarts HTML page with a top-down (X/Y)
// scatter of every beacon, coloured by Z, and the scanner positions.
func RenderChart(w io.Writer, res *beacon.Result) error {
	beacons := res.Beacons.Points()
	pad := extent(res, beacons)

	minZ, maxZ := 0, 0
	data := make([]opts.ScatterData, 0, len(beacons))
	for i, p := range beacons {
		if i == 0 || p.Z < minZ {
			minZ = p.Z
		}
		if i == 0 || p.Z > maxZ {
			maxZ = p.Z
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Z}, Name: p.String()})
	}
	if minZ == maxZ {
		maxZ = minZ + 1
	}

	scanners := make([]opts.ScatterData, 0, len(res.Scanners))
	for _, s := range res.Scanners {
		pos, _ := s.Position()
		scanners = append(scanners, opts.ScatterData{
			Value:  []interface{}{pos.X, pos.Y, pos.Z},
			Name:   fmt.Sprintf("scanner %d", s.ID),
			Symbol: "diamond",
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ChartTitle, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: ChartTitle, Subtitle: fmt.Sprintf("origin=%d scanners=%d beacons=%d", res.Origin, len(res.Scanners), len(beacons))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minZ),
			Max:        float32(maxZ),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)

	scatter.AddSeries("beacons", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("scanners", scanners, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))

	return scatter.Render(w)
}

// SaveChart writes the HTML chart to path on fsys.
func SaveChart(fsys fsutil.FileSystem, path string, res *beacon.Result) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart %s: %w", path, err)
	}
	if err := RenderChart(f, res); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart %s: %w", path, err)
	}
	return f.Close()
}

// extent returns a symmetric axis bound that keeps every beacon and
// scanner in view, rounded up to the next 500.
func extent(res *beacon.Result, beacons []beacon.Point) int {
	m := 0
	grow := func(p beacon.Point) {
		if v := abs(p.X); v > m {
			m = v
		}
		if v := abs(p.Y); v > m {
			m = v
		}
	}
	for _, p := range beacons {
		grow(p)
	}
	for _, s := range res.Scanners {
		pos, _ := s.Position()
		grow(pos)
	}
	return (m/500 + 1) * 500
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
