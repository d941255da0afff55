package main

import (
	"fmt"
	"image"
	"math"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fogleman/gg"
	"github.com/quartercastle/vector"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidarfilter"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/logging"
)

var CLI struct {
	Device string        `help:"LIDAR serial device." default:"/dev/ttyUSB0"`
	Dummy  bool          `help:"Use the simulated LIDAR."`
	Start  int           `help:"First index of the window." default:"80"`
	End    int           `help:"Index after the last of the window." default:"100"`
	Every  time.Duration `help:"Print interval." default:"200ms"`
	Count  int           `help:"Number of readings, 0 for forever."`
	PNG    string        `name:"png" help:"Plot the last scan to this file." type:"path"`
}

func main() {
	kong.Parse(&CLI)

	log, err := logging.Init(false)
	if err != nil {
		fmt.Println("Failed to set up logging", err)
		os.Exit(1)
	}

	var l lidar.Interface
	if CLI.Dummy {
		l = lidar.NewDummy(log.Named("lidar"))
	} else {
		l = lidar.NewYDLidar(CLI.Device, 0, log.Named("lidar"))
	}
	defer func() {
		_ = l.Close()
	}()

	err = l.Start()
	if err != nil {
		fmt.Println("Failed to start LIDAR ", err)
		os.Exit(1)
	}

	var scan lidar.ScanData
	for i := 0; CLI.Count == 0 || i < CLI.Count; i++ {
		time.Sleep(CLI.Every)
		scan = l.GetData()
		stats, ok := lidarfilter.Window(&scan, CLI.Start, CLI.End)
		if !ok {
			fmt.Printf("Window [%d, %d) is out of range\n", CLI.Start, CLI.End)
			os.Exit(1)
		}
		fmt.Printf("%s distance=%.0f total=%d near=%d far=%d meanAll=%.0f meanNear=%.0f\n",
			scan.CaptureTime.Format("15:04:05.000"), stats.Distance(),
			stats.TotalCount, stats.NearCount, stats.FarCount, stats.MeanAll, stats.MeanNear)
	}

	if CLI.PNG != "" {
		err = gg.SavePNG(CLI.PNG, plotScan(&scan, CLI.Start, CLI.End, 512))
		if err != nil {
			fmt.Println("Failed to save plot ", err)
			os.Exit(1)
		}
	}
}

// plotScan draws the scan from above, robot in the middle, 0 degrees up and
// angles increasing clockwise.  The filter window is highlighted.
func plotScan(scan *lidar.ScanData, start, end, size int) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	centre := vector.Vector{float64(size) / 2, float64(size) / 2, 0}
	scale := float64(size) / 2 / lidarfilter.MaxDistance

	dc.SetRGB(0.3, 0.3, 0.3)
	dc.DrawCircle(centre[0], centre[1], lidarfilter.BeyondThreshold*scale)
	dc.Stroke()

	for i := 0; i < lidar.NumAngles; i++ {
		d := float64(scan.Distance[i])
		if d <= lidarfilter.MinDistance || d >= lidarfilter.MaxDistance {
			continue
		}
		theta := float64(scan.Angle[i]) * math.Pi / 180
		// Screen Y grows downwards, so "up" is -Y.
		dir := vector.X.Scale(math.Sin(theta)).Add(vector.Y.Scale(-math.Cos(theta)))
		p := centre.Add(dir.Scale(d * scale))

		if i >= start && i < end {
			dc.SetRGB(1, 0.6, 0)
		} else {
			dc.SetRGB(0, 0.8, 1)
		}
		dc.DrawCircle(p[0], p[1], 2)
		dc.Fill()
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(centre[0], centre[1], 3)
	dc.Fill()
	return dc.Image()
}
