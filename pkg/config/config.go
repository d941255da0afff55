package config

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ina219"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/joystick"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/screen"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/timedrobot"
)

const (
	DefaultPath = "/cfg/lidarbot.yaml"
	InUsePath   = "/cfg/lidarbot-in-use.yaml"
)

const (
	AHRSBusNone = "none"
	AHRSBusSPI  = "spi"
	AHRSBusI2C  = "i2c"
)

type LidarConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	Dummy    bool   `yaml:"dummy"`
}

type AHRSConfig struct {
	// One of "none", "spi" or "i2c".
	Bus    string `yaml:"bus"`
	Device string `yaml:"device"`
}

// PowerConfig describes the INA219 on the battery rail.  An empty Device
// means none is fitted.
type PowerConfig struct {
	Device     string  `yaml:"device"`
	Addr       int     `yaml:"addr"`
	ShuntOhms  float64 `yaml:"shunt_ohms"`
	MaxCurrent float64 `yaml:"max_current"`
}

type Config struct {
	Lidar          LidarConfig   `yaml:"lidar"`
	AHRS           AHRSConfig    `yaml:"ahrs"`
	Power          PowerConfig   `yaml:"power"`
	LoopPeriod     time.Duration `yaml:"loop_period"`
	JoystickDevice string        `yaml:"joystick_device"`
	SoundsDir      string        `yaml:"sounds_dir"`
	ScreenDevice   string        `yaml:"screen_device"`
}

func Default() Config {
	return Config{
		Lidar: LidarConfig{
			Device:   lidar.DefaultDevice,
			BaudRate: lidar.DefaultBaudRate,
		},
		AHRS: AHRSConfig{
			Bus:    AHRSBusSPI,
			Device: "/dev/spidev0.1",
		},
		Power: PowerConfig{
			Addr:       ina219.DefaultAddr,
			ShuntOhms:  0.1,
			MaxCurrent: 3.2,
		},
		LoopPeriod:     timedrobot.DefaultPeriod,
		JoystickDevice: joystick.DefaultDevice,
		SoundsDir:      "/sounds",
		ScreenDevice:   screen.DefaultDevice,
	}
}

// Validate rejects settings the hardware bring-up can't act on.
func (c *Config) Validate() error {
	switch c.AHRS.Bus {
	case AHRSBusNone, AHRSBusSPI, AHRSBusI2C:
	default:
		return errors.Errorf("unknown AHRS bus %q", c.AHRS.Bus)
	}
	if c.Lidar.BaudRate <= 0 {
		return errors.Errorf("bad LIDAR baud rate %d", c.Lidar.BaudRate)
	}
	if c.LoopPeriod <= 0 {
		return errors.Errorf("bad loop period %v", c.LoopPeriod)
	}
	return nil
}

// Load reads path over the defaults.  A missing file is not an error; the
// defaults are used as-is.
func Load(path string, log *zap.SugaredLogger) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		log.Infow("No config file, using defaults", "path", path)
		return cfg, nil
	} else if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// WriteInUse records the effective config so it can be copied back and
// edited after a run.
func (c *Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	err = ioutil.WriteFile(path, data, 0666)
	if err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
