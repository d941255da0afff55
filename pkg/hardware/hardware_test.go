package hardware

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/config"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/dashboard"
)

func TestNewFailsWithoutLidar(t *testing.T) {
	cfg := config.Default()
	cfg.Lidar.Device = filepath.Join(t.TempDir(), "ttyUSB9")
	cfg.AHRS.Bus = config.AHRSBusNone

	_, err := New(cfg, dashboard.NewTable(), zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start LIDAR")
}

func TestOpenAHRSNone(t *testing.T) {
	nav, err := openAHRS(config.AHRSConfig{Bus: config.AHRSBusNone})
	assert.NoError(t, err)
	assert.Nil(t, nav)
}

func TestOpenAHRSMissingDevice(t *testing.T) {
	_, err := openAHRS(config.AHRSConfig{
		Bus:    config.AHRSBusI2C,
		Device: filepath.Join(t.TempDir(), "i2c-9"),
	})
	assert.Error(t, err)
}

func TestOpenPowerNotFitted(t *testing.T) {
	pm, err := openPower(config.PowerConfig{})
	assert.NoError(t, err)
	assert.Nil(t, pm)
}

func TestDummy(t *testing.T) {
	d := NewDummy(dashboard.NewTable(), zap.NewNop().Sugar())
	d.Start(context.Background())

	assert.Nil(t, d.AHRS())
	assert.Nil(t, d.Power())
	assert.NotNil(t, d.Screen())

	scan := d.Lidar().GetData()
	assert.InDelta(t, 1500, scan.Distance[0], 1)

	d.PlaySound("/sounds/autonomous.wav")
	assert.Equal(t, []string{"/sounds/autonomous.wav"}, d.Played)

	d.Shutdown()
}
