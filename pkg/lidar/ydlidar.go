package lidar

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	DefaultDevice   = "/dev/ttyUSB0"
	DefaultBaudRate = 128000

	readTimeout   = 100 * time.Millisecond
	retryInterval = 100 * time.Millisecond
)

type openFunc func(portName string, mode *serial.Mode) (serial.Port, error)

// YDLidar drives a YDLIDAR X4 (as sold by Studica) over its USB serial bridge.
// DTR powers the scan motor.
type YDLidar struct {
	device string
	mode   *serial.Mode
	open   openFunc
	log    *zap.SugaredLogger

	// runLock serialises Start/Stop; lock guards the fields the read loop shares.
	runLock  sync.Mutex
	cancel   context.CancelFunc
	loopDone sync.WaitGroup

	lock    sync.Mutex
	latest  ScanData
	stopErr error
}

var _ Interface = (*YDLidar)(nil)

func NewYDLidar(device string, baudRate int, log *zap.SugaredLogger) *YDLidar {
	if device == "" {
		device = DefaultDevice
	}
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &YDLidar{
		device: device,
		mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		open: serial.Open,
		log:  log,
	}
}

func (l *YDLidar) Start() error {
	l.runLock.Lock()
	defer l.runLock.Unlock()
	if l.cancel != nil {
		return nil
	}

	port, err := l.openAndStartScanning()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.loopDone.Add(1)
	go l.loopReadingScans(ctx, port)
	l.log.Infow("LIDAR started", "device", l.device)
	return nil
}

func (l *YDLidar) Stop() error {
	l.runLock.Lock()
	defer l.runLock.Unlock()
	if l.cancel == nil {
		return nil
	}

	l.cancel()
	l.cancel = nil
	l.loopDone.Wait()
	l.log.Infow("LIDAR stopped", "device", l.device)

	l.lock.Lock()
	defer l.lock.Unlock()
	err := l.stopErr
	l.stopErr = nil
	return err
}

func (l *YDLidar) GetData() ScanData {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.latest
}

func (l *YDLidar) Close() error {
	return l.Stop()
}

func (l *YDLidar) openAndStartScanning() (serial.Port, error) {
	port, err := l.open(l.device, l.mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", l.device)
	}
	success := false
	defer func() {
		if !success {
			_ = port.Close()
		}
	}()

	if err := port.SetReadTimeout(readTimeout); err != nil {
		return nil, errors.Wrap(err, "failed to set read timeout")
	}
	if err := port.SetDTR(true); err != nil {
		return nil, errors.Wrap(err, "failed to enable scan motor")
	}
	if err := port.ResetInputBuffer(); err != nil {
		return nil, errors.Wrap(err, "failed to flush input")
	}
	if _, err := port.Write(startScanCmd); err != nil {
		return nil, errors.Wrap(err, "failed to send start scan")
	}
	if err := readDescriptor(timeoutReader{port: port, deadline: time.Now().Add(time.Second)}); err != nil {
		return nil, err
	}
	success = true
	return port, nil
}

// loopReadingScans owns port until ctx is cancelled, reopening the sensor
// whenever the stream fails.
func (l *YDLidar) loopReadingScans(ctx context.Context, port serial.Port) {
	defer l.loopDone.Done()
	for {
		err := l.readScans(ctx, port)
		if ctx.Err() != nil {
			l.shutDownPort(port)
			return
		}
		l.log.Warnw("LIDAR read loop stopped; will retry", "error", err)
		_ = port.Close()

		port = nil
		for port == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryInterval):
			}
			port, err = l.openAndStartScanning()
			if err != nil {
				l.log.Debugw("LIDAR reopen failed", "error", err)
			}
		}
	}
}

func (l *YDLidar) shutDownPort(port serial.Port) {
	_, err := port.Write(stopScanCmd)
	if err != nil {
		err = errors.Wrap(err, "failed to send stop scan")
	}
	if dtrErr := port.SetDTR(false); dtrErr != nil && err == nil {
		err = errors.Wrap(dtrErr, "failed to disable scan motor")
	}
	if closeErr := port.Close(); closeErr != nil && err == nil {
		err = errors.Wrap(closeErr, "failed to close serial port")
	}
	l.lock.Lock()
	l.stopErr = err
	l.lock.Unlock()
}

func (l *YDLidar) readScans(ctx context.Context, port serial.Port) error {
	br := bufio.NewReader(ctxReader{ctx: ctx, r: port})
	var builder scanBuilder
resync:
	if err := syncToHeader(br); err != nil {
		return err
	}
	for {
		p, err := readPacket(br)
		if err == ErrBadChecksum || err == ErrLostSync {
			l.log.Debugw("LIDAR resync", "reason", err)
			goto resync
		}
		if err != nil {
			return err
		}
		if scan, ok := builder.add(p, time.Now()); ok {
			l.setScan(scan)
		}
	}
}

func (l *YDLidar) setScan(scan ScanData) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.latest = scan
}

// ctxReader turns the port's read timeouts (0, nil) into cancellation checks.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	for {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := c.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

type timeoutReader struct {
	port     io.Reader
	deadline time.Time
}

var ErrTimeout = errors.New("timed out waiting for LIDAR")

func (t timeoutReader) Read(p []byte) (int, error) {
	for {
		n, err := t.port.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
		if time.Now().After(t.deadline) {
			return 0, ErrTimeout
		}
	}
}
