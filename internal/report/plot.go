package report

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/beacon.report/internal/beacon"
	"github.com/banshee-data/beacon.report/internal/fsutil"
)

var (
	beaconColor  = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	scannerColor = color.RGBA{R: 220, G: 50, B: 47, A: 255}
)

// SavePlot writes the projection plot to path on fsys. The image format
// follows the file extension (png, svg, pdf, ...).
func SavePlot(fsys fsutil.FileSystem, path string, res *beacon.Result) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot %s: %w", path, err)
	}
	if err := WritePlot(f, format, res); err != nil {
		f.Close()
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return f.Close()
}

// WritePlot renders a top-down (X/Y) projection of the beacon map and the
// scanner positions to w in the given image format.
func WritePlot(w io.Writer, format string, res *beacon.Result) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Beacon map - %d beacons, %d scanners", res.Beacons.Count(), len(res.Scanners))
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(plotter.NewGrid())

	beacons := res.Beacons.Points()
	bPts := make(plotter.XYs, 0, len(beacons))
	for _, b := range beacons {
		bPts = append(bPts, plotter.XY{X: float64(b.X), Y: float64(b.Y)})
	}
	sPts := make(plotter.XYs, 0, len(res.Scanners))
	for _, s := range res.Scanners {
		pos, _ := s.Position()
		sPts = append(sPts, plotter.XY{X: float64(pos.X), Y: float64(pos.Y)})
	}

	if len(bPts) > 0 {
		bScatter, err := plotter.NewScatter(bPts)
		if err != nil {
			return fmt.Errorf("beacon scatter: %w", err)
		}
		bScatter.GlyphStyle.Color = beaconColor
		bScatter.GlyphStyle.Radius = vg.Points(2)
		bScatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(bScatter)
		p.Legend.Add("beacons", bScatter)
	}

	sScatter, err := plotter.NewScatter(sPts)
	if err != nil {
		return fmt.Errorf("scanner scatter: %w", err)
	}
	sScatter.GlyphStyle.Color = scannerColor
	sScatter.GlyphStyle.Radius = vg.Points(4)
	sScatter.GlyphStyle.Shape = draw.CrossGlyph{}
	p.Add(sScatter)
	p.Legend.Add("scanners", sScatter)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
