package lidar

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dummy pretends the robot is sitting in a rectangular room, for running the
// controller without the sensor attached.
type Dummy struct {
	log *zap.SugaredLogger

	// Distances from the sensor to each wall, in mm.
	Front, Back, Left, Right float64

	lock    sync.Mutex
	running bool
	latest  ScanData
}

var _ Interface = (*Dummy)(nil)

func NewDummy(log *zap.SugaredLogger) *Dummy {
	return &Dummy{
		log:   log,
		Front: 1500,
		Back:  2500,
		Left:  800,
		Right: 3200,
	}
}

func (d *Dummy) Start() error {
	d.log.Info("DLIDAR: Start")
	d.lock.Lock()
	defer d.lock.Unlock()
	d.running = true
	return nil
}

func (d *Dummy) Stop() error {
	d.log.Info("DLIDAR: Stop")
	d.lock.Lock()
	defer d.lock.Unlock()
	d.running = false
	return nil
}

func (d *Dummy) GetData() ScanData {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.running {
		d.latest = d.room(time.Now())
	}
	return d.latest
}

func (d *Dummy) Close() error {
	return d.Stop()
}

// room ray-casts each whole degree against the walls; 0 degrees is straight
// ahead and angles increase clockwise.
func (d *Dummy) room(now time.Time) ScanData {
	scan := ScanData{CaptureTime: now}
	for i := 0; i < NumAngles; i++ {
		sin, cos := math.Sincos(float64(i) * math.Pi / 180)
		dist := math.Inf(1)
		if cos > 0 {
			dist = math.Min(dist, d.Front/cos)
		} else if cos < 0 {
			dist = math.Min(dist, -d.Back/cos)
		}
		if sin > 0 {
			dist = math.Min(dist, d.Right/sin)
		} else if sin < 0 {
			dist = math.Min(dist, -d.Left/sin)
		}
		scan.Angle[i] = float32(i)
		scan.Distance[i] = float32(dist)
	}
	return scan
}
