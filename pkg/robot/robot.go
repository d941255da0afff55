package robot

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ahrs"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/dashboard"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidarfilter"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/timedrobot"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/timer"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/tunable"
)

// The forward-facing arc used in autonomous.
const (
	AutoWindowStart = 80
	AutoWindowEnd   = 100
)

const (
	KeyDistance     = "mlidar_distance"
	KeyTestDistance = "mlidar_test_distance"
	KeyAutoTime     = "auto_time"
	KeyYaw          = "navx_yaw"
	KeyBattery      = "battery_voltage"
)

type BatteryMonitor interface {
	ReadBusVoltage() (float64, error)
}

type LidarState int

const (
	// The driver is already scanning when the robot boots.
	LidarEnabled LidarState = iota
	LidarDisabled
)

func (s LidarState) String() string {
	switch s {
	case LidarEnabled:
		return "enabled"
	case LidarDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("LidarState(%d)", int(s))
	}
}

// Robot reads the LIDAR every loop and, in autonomous, publishes the filtered
// distance straight ahead.  The LIDAR is spun down while disabled.
type Robot struct {
	timedrobot.Base

	// Battery, if set, is sampled every loop.
	Battery BatteryMonitor

	lidar lidar.Interface
	dash  dashboard.Publisher
	// Optional.
	ahrs ahrs.Interface
	log  *zap.SugaredLogger

	autoTimer  *timer.Timer
	lidarState LidarState
	scan       lidar.ScanData

	testStart *tunable.Tunable
	testWidth *tunable.Tunable
}

var _ timedrobot.Hooks = (*Robot)(nil)

// New creates the robot.  nav may be nil.  The test-mode window is registered
// with tunables so it can be moved from the pad.
func New(
	l lidar.Interface,
	dash dashboard.Publisher,
	nav ahrs.Interface,
	c clock.Clock,
	tunables *tunable.Tunables,
	log *zap.SugaredLogger,
) *Robot {
	return &Robot{
		lidar:      l,
		dash:       dash,
		ahrs:       nav,
		log:        log,
		autoTimer:  timer.New(c),
		lidarState: LidarEnabled,
		testStart:  tunables.Create("window_start", AutoWindowStart, lidarfilter.IndexMin+1, lidarfilter.IndexMax-2),
		testWidth:  tunables.Create("window_width", AutoWindowEnd-AutoWindowStart, 1, 60),
	}
}

func (r *Robot) LidarState() LidarState {
	return r.lidarState
}

// Scan returns the scan captured by the most recent RobotPeriodic.
func (r *Robot) Scan() lidar.ScanData {
	return r.scan
}

func (r *Robot) RobotInit() {
	if r.ahrs == nil {
		r.log.Info("No navX fitted")
		return
	}
	if err := r.ahrs.ZeroYaw(); err != nil {
		r.log.Warnw("Failed to zero yaw", "error", err)
	}
}

func (r *Robot) RobotPeriodic() {
	r.scan = r.lidar.GetData()

	if r.Battery != nil {
		if v, err := r.Battery.ReadBusVoltage(); err == nil {
			r.dash.PutNumber(KeyBattery, v)
		}
	}

	if r.ahrs == nil {
		return
	}
	yaw, err := r.ahrs.Yaw()
	if err != nil {
		r.log.Debugw("Failed to read yaw", "error", err)
		return
	}
	r.dash.PutNumber(KeyYaw, yaw)
}

func (r *Robot) AutonomousInit() {
	if r.lidarState == LidarDisabled {
		if err := r.lidar.Start(); err != nil {
			r.log.Errorw("Failed to start LIDAR", "error", err)
		}
		r.lidarState = LidarEnabled
	}
	r.autoTimer.Reset()
	r.autoTimer.Start()
}

func (r *Robot) AutonomousPeriodic() {
	d := lidarfilter.Mean(&r.scan, AutoWindowStart, AutoWindowEnd)
	r.dash.PutNumber(KeyDistance, d)
	r.dash.PutNumber(KeyAutoTime, r.autoTimer.Get().Seconds())
}

func (r *Robot) DisabledInit() {
	if r.lidarState == LidarEnabled {
		if err := r.lidar.Stop(); err != nil {
			r.log.Errorw("Failed to stop LIDAR", "error", err)
		}
		r.lidarState = LidarDisabled
	}
	r.autoTimer.Stop()
}

func (r *Robot) TestInit() {
	r.log.Infow("Test window", "start", r.testStart.Get(), "width", r.testWidth.Get())
}

func (r *Robot) TestPeriodic() {
	start := r.testStart.Get()
	end := start + r.testWidth.Get()
	stats, ok := lidarfilter.Window(&r.scan, start, end)
	if !ok {
		r.dash.PutNumber(KeyTestDistance, lidarfilter.Invalid)
		return
	}
	r.log.Debugw("Test window", "start", start, "end", end,
		"total", stats.TotalCount, "far", stats.FarCount, "meanAll", stats.MeanAll, "meanNear", stats.MeanNear)
	r.dash.PutNumber(KeyTestDistance, stats.Distance())
}
