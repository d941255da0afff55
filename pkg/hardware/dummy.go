package hardware

import (
	"context"

	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ahrs"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/dashboard"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/ina219"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/lidar"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/screen"
)

// Dummy stands in for the robot on a desk: a synthetic LIDAR, no navX and
// sounds that are only logged.
type Dummy struct {
	log    *zap.SugaredLogger
	lidar  *lidar.Dummy
	screen *screen.Screen

	Played []string
}

var _ Interface = (*Dummy)(nil)

func NewDummy(table *dashboard.Table, log *zap.SugaredLogger) *Dummy {
	d := &Dummy{
		log:    log,
		lidar:  lidar.NewDummy(log.Named("lidar")),
		screen: screen.New(table, log.Named("screen")),
	}
	_ = d.lidar.Start()
	return d
}

func (d *Dummy) Start(ctx context.Context) {
	d.log.Info("DHW: Start")
}

func (d *Dummy) Lidar() lidar.Interface {
	return d.lidar
}

func (d *Dummy) AHRS() ahrs.Interface {
	return nil
}

func (d *Dummy) Power() ina219.Interface {
	return nil
}

func (d *Dummy) Screen() *screen.Screen {
	return d.screen
}

func (d *Dummy) PlaySound(path string) {
	d.log.Infow("DHW: PlaySound", "path", path)
	d.Played = append(d.Played, path)
}

func (d *Dummy) Shutdown() {
	d.log.Info("DHW: Shutdown")
	_ = d.lidar.Close()
}
