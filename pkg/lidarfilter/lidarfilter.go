// Package lidarfilter reduces a window of a LIDAR scan to a single distance.
//
// Readings outside (MinDistance, MaxDistance) are noise and ignored.  The rest
// are split into near (<= BeyondThreshold) and far.  If more than half of the
// kept readings are far, the window is reported as the mean of everything kept;
// otherwise as the mean of the near readings only.
package lidarfilter

import (
	"gonum.org/v1/gonum/stat"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
)

const (
	// Angle-index domain of a scan.
	IndexMin = 0
	IndexMax = lidar.NumAngles

	// Distances in mm.
	MinDistance     = 100
	MaxDistance     = 5500
	BeyondThreshold = 1000

	// Invalid is returned by Mean when the requested window is out of range.
	Invalid = -1
)

// Stats is the breakdown of one window.
type Stats struct {
	TotalCount int
	NearCount  int
	FarCount   int

	MeanAll  float64
	MeanNear float64
}

// UseMeanAll reports whether the far readings are in the majority.
func (s Stats) UseMeanAll() bool {
	return s.FarCount > s.TotalCount/2
}

// Distance is the filtered distance for the window.
func (s Stats) Distance() float64 {
	if s.UseMeanAll() {
		return s.MeanAll
	}
	return s.MeanNear
}

// Window computes the Stats for scan indices [start, end).  It returns false if
// the window does not lie strictly inside the angle domain.
func Window(scan *lidar.ScanData, start, end int) (Stats, bool) {
	if !(start > IndexMin && end < IndexMax) {
		return Stats{}, false
	}

	var all, near []float64
	for i := start; i < end; i++ {
		d := float64(scan.Distance[i])
		if d <= MinDistance || d >= MaxDistance {
			continue
		}
		all = append(all, d)
		if d <= BeyondThreshold {
			near = append(near, d)
		}
	}

	s := Stats{
		TotalCount: len(all),
		NearCount:  len(near),
		FarCount:   len(all) - len(near),
	}
	if len(all) > 0 {
		s.MeanAll = stat.Mean(all, nil)
	}
	if len(near) > 0 {
		s.MeanNear = stat.Mean(near, nil)
	}
	return s, true
}

// Mean is the filtered distance over scan indices [start, end), or Invalid if
// start <= IndexMin or end >= IndexMax.
func Mean(scan *lidar.ScanData, start, end int) float64 {
	s, ok := Window(scan, start, end)
	if !ok {
		return Invalid
	}
	return s.Distance()
}
