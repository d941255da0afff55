package hardware

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ahrs"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/config"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/dashboard"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ina219"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/screen"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/sound"
)

type Hardware struct {
	log *zap.SugaredLogger

	lidar        lidar.Interface
	ahrs         ahrs.Interface
	power        ina219.Interface
	screen       *screen.Screen
	screenDevice string
	sounds       *sound.Player

	loopsDone sync.WaitGroup
}

var _ Interface = (*Hardware)(nil)

// New brings up the robot's devices.  The LIDAR is started straight away so
// it is spinning by the time the robot code first asks for a scan.  A missing
// navX is logged and tolerated; a LIDAR failure is fatal.
func New(cfg config.Config, table *dashboard.Table, log *zap.SugaredLogger) (*Hardware, error) {
	h := &Hardware{
		log:          log,
		screen:       screen.New(table, log.Named("screen")),
		screenDevice: cfg.ScreenDevice,
	}

	l := lidar.NewYDLidar(cfg.Lidar.Device, cfg.Lidar.BaudRate, log.Named("lidar"))
	err := l.Start()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start LIDAR")
	}
	h.lidar = l

	nav, err := openAHRS(cfg.AHRS)
	if err != nil {
		log.Warnw("No navX, continuing without heading", "bus", cfg.AHRS.Bus, "error", err)
	} else if nav != nil {
		h.ahrs = nav
	}

	pm, err := openPower(cfg.Power)
	if err != nil {
		log.Warnw("No power monitor, battery voltage won't be shown", "error", err)
	} else if pm != nil {
		h.power = pm
	}

	h.sounds = sound.NewPlayer(log.Named("sound"))
	return h, nil
}

func openAHRS(cfg config.AHRSConfig) (*ahrs.NavX, error) {
	var nav *ahrs.NavX
	var err error
	switch cfg.Bus {
	case config.AHRSBusSPI:
		nav, err = ahrs.NewSPI(cfg.Device)
	case config.AHRSBusI2C:
		nav, err = ahrs.NewI2C(cfg.Device)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	err = nav.Probe()
	if err != nil {
		_ = nav.Close()
		return nil, err
	}
	return nav, nil
}

func openPower(cfg config.PowerConfig) (*ina219.INA219, error) {
	if cfg.Device == "" {
		return nil, nil
	}
	pm, err := ina219.NewI2C(cfg.Device, cfg.Addr)
	if err != nil {
		return nil, err
	}
	err = pm.Configure(cfg.ShuntOhms, cfg.MaxCurrent)
	if err != nil {
		_ = pm.Close()
		return nil, err
	}
	return pm, nil
}

func (h *Hardware) Start(ctx context.Context) {
	h.loopsDone.Add(1)
	go func() {
		defer h.loopsDone.Done()
		h.screen.LoopUpdatingScreen(ctx, h.screenDevice)
	}()
}

func (h *Hardware) Lidar() lidar.Interface {
	return h.lidar
}

func (h *Hardware) AHRS() ahrs.Interface {
	return h.ahrs
}

func (h *Hardware) Power() ina219.Interface {
	return h.power
}

func (h *Hardware) Screen() *screen.Screen {
	return h.screen
}

func (h *Hardware) PlaySound(path string) {
	h.sounds.Play(path)
}

// Shutdown stops the LIDAR motor and releases the devices.  The context
// passed to Start should be cancelled first so the screen is blanked.
func (h *Hardware) Shutdown() {
	h.loopsDone.Wait()
	if err := h.lidar.Close(); err != nil {
		h.log.Warnw("Failed to stop LIDAR cleanly", "error", err)
	}
	if h.ahrs != nil {
		if err := h.ahrs.Close(); err != nil {
			h.log.Warnw("Failed to close navX", "error", err)
		}
	}
	if h.power != nil {
		_ = h.power.Close()
	}
	h.sounds.Close()
}
