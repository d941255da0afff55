package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/config"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/dashboard"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/driverstation"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/hardware"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/logging"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/robot"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/sound"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/timedrobot"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/tunable"
)

var CLI struct {
	Config string `help:"Config file; missing means defaults." default:"/cfg/lidarbot.yaml" type:"path"`
	Debug  bool   `help:"Log at debug level."`
	Dummy  bool   `help:"Run against a simulated LIDAR, no other hardware."`

	LidarDevice string        `help:"Override the LIDAR serial device."`
	AHRSBus     string        `name:"ahrs-bus" help:"Override the navX bus (none, spi, i2c)."`
	Joystick    string        `help:"Override the joystick device."`
	Period      time.Duration `help:"Override the loop period."`

	DumpDashboard string `help:"Write the dashboard as YAML to this file on exit." type:"path"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("lidarbot"),
		kong.Description("Publishes the filtered forward LIDAR distance in autonomous."),
	)

	log, err := logging.Init(CLI.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to set up logging:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Infow("---- lidarbot ----", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	cfg, err := loadConfig(log)
	if err != nil {
		log.Fatalw("Bad config", "error", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registerSignalHandlers(cancel, log)

	table := dashboard.NewTable()
	var hw hardware.Interface
	if cfg.Lidar.Dummy {
		hw = hardware.NewDummy(table, logging.Named("hw"))
	} else {
		hw, err = hardware.New(cfg, table, logging.Named("hw"))
		if err != nil {
			log.Fatalw("Hardware bring-up failed", "error", err)
		}
	}
	hw.Start(ctx)

	tunables := tunable.New(logging.Named("tunable"))
	bot := robot.New(hw.Lidar(), table, hw.AHRS(), clock.New(), tunables, logging.Named("robot"))
	if pm := hw.Power(); pm != nil {
		bot.Battery = pm
	}
	runner := timedrobot.New(bot, cfg.LoopPeriod, clock.New(), logging.Named("runner"))
	runner.OnModeChange = func(from, to timedrobot.Mode) {
		table.PutString("mode", to.String())
		hw.Screen().SetMode(to.String())
		hw.PlaySound(sound.CuePath(cfg.SoundsDir, to.String()))
	}

	ds := driverstation.New(cfg.JoystickDevice, runner, tunables, hw.Screen(), logging.Named("ds"))
	go ds.Loop(ctx)

	hw.PlaySound(sound.CuePath(cfg.SoundsDir, "start"))

	err = runner.Run(ctx)
	log.Infow("Robot loop finished", "reason", err)

	// Leave the sensor stopped, as DisabledInit would.
	bot.DisabledInit()
	cancel()
	hw.Shutdown()
	table.PutBoolean("lidar_enabled", bot.LidarState() == robot.LidarEnabled)
	dumpDashboard(table, CLI.DumpDashboard, log)
}

func loadConfig(log *zap.SugaredLogger) (config.Config, error) {
	cfg, err := config.Load(CLI.Config, log)
	if err != nil {
		return cfg, err
	}
	if CLI.LidarDevice != "" {
		cfg.Lidar.Device = CLI.LidarDevice
	}
	if CLI.Dummy {
		cfg.Lidar.Dummy = true
	}
	if CLI.AHRSBus != "" {
		cfg.AHRS.Bus = CLI.AHRSBus
	}
	if CLI.Joystick != "" {
		cfg.JoystickDevice = CLI.Joystick
	}
	if CLI.Period > 0 {
		cfg.LoopPeriod = CLI.Period
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if err := cfg.WriteInUse(config.InUsePath); err != nil {
		log.Infow("Not recording in-use config", "error", err)
	}
	return cfg, nil
}

func dumpDashboard(table *dashboard.Table, path string, log *zap.SugaredLogger) {
	data, err := table.DumpYAML()
	if err != nil {
		log.Warnw("Failed to dump dashboard", "error", err)
		return
	}
	if path == "" {
		log.Infof("Final dashboard:\n%s", data)
		return
	}
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		log.Warnw("Failed to write dashboard", "path", path, "error", err)
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Infow("Signal", "signal", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		log.Warn("Shutdown took too long, exiting")
		os.Exit(0)
	}()
}
