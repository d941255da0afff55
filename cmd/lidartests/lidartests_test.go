package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
)

func TestPlotScanPutsFrontUp(t *testing.T) {
	var scan lidar.ScanData
	scan.Angle[0] = 0
	scan.Distance[0] = 2750 // Half way to the edge.

	img := plotScan(&scan, 80, 100, 512)
	assert.Equal(t, 512, img.Bounds().Dx())

	// 2750mm straight ahead lands 128px above the centre.
	r, g, b, _ := img.At(256, 128).RGBA()
	assert.NotZero(t, r|g|b)
	r, g, b, _ = img.At(256, 384).RGBA()
	assert.Zero(t, r|g|b)
}
