package hardware

import (
	"context"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ahrs"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ina219"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/screen"
)

type Interface interface {
	// Start runs the background loops (screen refresh) until ctx is done.
	Start(ctx context.Context)

	Lidar() lidar.Interface
	// AHRS is nil if no navX was found.
	AHRS() ahrs.Interface
	// Power is nil if no power monitor is configured.
	Power() ina219.Interface
	Screen() *screen.Screen

	PlaySound(path string)

	Shutdown()
}
