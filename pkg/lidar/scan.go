package lidar

import "time"

// NumAngles is the number of one-degree buckets in a scan.
const NumAngles = 360

// ScanData is one revolution of the LIDAR, bucketed by whole degree.  A
// distance of 0 means the bucket got no valid return during the revolution.
type ScanData struct {
	CaptureTime time.Time

	Angle    [NumAngles]float32 // degrees, as measured for the bucket's last sample
	Distance [NumAngles]float32 // mm
}

type Interface interface {
	// Start spins up the sensor and begins publishing scans.  Starting a running sensor is a no-op.
	Start() error
	// Stop halts scanning.  The last completed scan remains available from GetData.
	Stop() error
	// GetData returns a copy of the most recent completed scan.  It never blocks on the sensor.
	GetData() ScanData
	Close() error
}

// bucketFor maps an angle in degrees to its scan bucket.
func bucketFor(angle float64) int {
	b := int(angle+0.5) % NumAngles
	if b < 0 {
		b += NumAngles
	}
	return b
}
