package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var log = zap.NewNop().Sugar()

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), log)
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lidarbot.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
lidar:
  device: /dev/ttyACM0
  dummy: true
ahrs:
  bus: none
loop_period: 50ms
`), 0666))

	cfg, err := Load(path, log)
	require.NoError(t, err)

	want := Default()
	want.Lidar.Device = "/dev/ttyACM0"
	want.Lidar.Dummy = true
	want.AHRS.Bus = AHRSBusNone
	want.LoopPeriod = 50 * time.Millisecond
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"unknown key": "lidar:\n  colour: red\n",
		"bad bus":     "ahrs:\n  bus: can\n",
		"bad baud":    "lidar:\n  baud_rate: -1\n",
		"not yaml":    "lidar: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "cfg.yaml")
			require.NoError(t, ioutil.WriteFile(path, []byte(body), 0666))
			_, err := Load(path, log)
			assert.Error(t, err)
		})
	}
}

func TestWriteInUseRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in-use.yaml")
	cfg := Default()
	cfg.SoundsDir = "/home/pi/sounds"
	require.NoError(t, cfg.WriteInUse(path))

	loaded, err := Load(path, log)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
