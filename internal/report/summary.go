// Package report renders a registration result as text, JSON, an HTML
// scatter chart, or a PNG projection plot.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/banshee-data/beacon.report/internal/beacon"
)

// ScannerSummary is the resolved pose of one scanner.
type ScannerSummary struct {
	ID        beacon.ScannerID `json:"id"`
	Position  beacon.Point     `json:"position"`
	Reference beacon.ScannerID `json:"reference"`
	Relative  beacon.Point     `json:"relative"`
	Rotation  int              `json:"rotation"`
	Points    int              `json:"points"`
	Origin    bool             `json:"origin,omitempty"`
}

type Summary struct {
	Origin       beacon.ScannerID `json:"origin"`
	Scanners     []ScannerSummary `json:"scanners"`
	BeaconCount  int              `json:"beacon_count"`
	MaxManhattan int              `json:"max_manhattan"`
	Rounds       int              `json:"rounds"`
	Comparisons  int              `json:"comparisons"`
	Beacons      []beacon.Point   `json:"beacons,omitempty"`
}

// Summarise flattens a result into a Summary. Beacons are included only
// when withBeacons is set.
func Summarise(res *beacon.Result, withBeacons bool) Summary {
	sum := Summary{
		Origin:       res.Origin,
		Scanners:     make([]ScannerSummary, 0, len(res.Scanners)),
		BeaconCount:  res.Beacons.Count(),
		MaxManhattan: res.MaxManhattan(),
		Rounds:       res.Rounds,
		Comparisons:  res.Comparisons,
	}
	for _, s := range res.Scanners {
		pos, _ := s.Position()
		ref, rel := s.Reference()
		sum.Scanners = append(sum.Scanners, ScannerSummary{
			ID:        s.ID,
			Position:  pos,
			Reference: ref,
			Relative:  rel,
			Rotation:  int(s.Rotation()),
			Points:    len(s.Local),
			Origin:    s.ID == res.Origin,
		})
	}
	if withBeacons {
		sum.Beacons = res.Beacons.Points()
	}
	return sum
}

// WriteText writes a human-readable table of scanner poses followed by
// the totals.
func WriteText(w io.Writer, sum Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCANNER\tPOSITION\tVIA\tOFFSET\tROTATION\tPOINTS")
	for _, s := range sum.Scanners {
		via := fmt.Sprintf("%d", s.Reference)
		if s.Origin {
			via = "origin"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", s.ID, s.Position, via, s.Relative, s.Rotation, s.Points)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nbeacons: %d\nmax manhattan distance: %d\nrounds: %d, comparisons: %d\n",
		sum.BeaconCount, sum.MaxManhattan, sum.Rounds, sum.Comparisons)
	return err
}

// WriteJSON writes sum as indented JSON.
func WriteJSON(w io.Writer, sum Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
