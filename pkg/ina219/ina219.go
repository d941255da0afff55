package ina219

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x41

	RegConfig      = 0
	RegShuntV      = 1
	RegBusV        = 2
	RegPower       = 3
	RegCurrent     = 4
	RegCalibration = 5

	BusVoltageLSB = 0.004

	// OVF, bit 0 of the bus voltage register.
	busOverflow = 0x1
)

var ErrOverflow = errors.New("INA219 math overflow")

type Interface interface {
	Configure(shuntOhms float64, maxCurrent float64) error
	ReadBusVoltage() (float64, error)
	ReadCurrent() (float64, error)
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
}

// INA219 reads the battery rail through the power monitor on the main I2C bus.
type INA219 struct {
	currentLSB float64
	dev        port
	closer     interface{ Close() error }
}

var _ Interface = (*INA219)(nil)

func NewI2C(deviceFile string, addr int) (*INA219, error) {
	if addr == 0 {
		addr = DefaultAddr
	}
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open INA219 on %s", deviceFile)
	}
	return &INA219{dev: dev, closer: dev}, nil
}

func (m *INA219) Configure(shuntOhms float64, maxCurrent float64) error {
	if shuntOhms <= 0 || maxCurrent <= 0 {
		return errors.Errorf("bad INA219 calibration: shunt=%v max=%v", shuntOhms, maxCurrent)
	}
	m.currentLSB = maxCurrent / (1 << 15)
	cval := CalculateCalibrationValue(m.currentLSB, shuntOhms)
	return m.dev.WriteReg(RegCalibration, []byte{byte(cval >> 8), byte(cval)})
}

func (m *INA219) ReadBusVoltage() (float64, error) {
	raw, err := m.read16(RegBusV)
	if err != nil {
		return 0, err
	}
	if raw&busOverflow != 0 {
		return 0, ErrOverflow
	}
	return float64(raw>>3) * BusVoltageLSB, nil
}

func (m *INA219) ReadCurrent() (float64, error) {
	raw, err := m.read16(RegCurrent)
	if err != nil {
		return 0, err
	}
	return float64(int16(raw)) * m.currentLSB, nil
}

func (m *INA219) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

func (m *INA219) read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := m.dev.ReadReg(reg, buf[:])
	return uint16(buf[0])<<8 | uint16(buf[1]), err
}

func CalculateCalibrationValue(currentLSB float64, shuntOhms float64) int16 {
	return int16(0.04096 / (currentLSB * shuntOhms))
}
