package ahrs

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// navX-MXP register map (subset).
const (
	I2CAddr = 0x32

	RegWhoAmI         = 0x00
	RegYawL           = 0x16 // signed hundredths of a degree, -18000..18000
	RegIntegrationCtl = 0x56

	WhoAmINavXMXP       = 0x32
	IntegrationResetYaw = 0x80

	spiWriteFlag     = 0x80
	spiResponseDelay = 200 * time.Microsecond
	spiClock         = 2 * physic.MegaHertz
)

var (
	ErrNotNavX = errors.New("device is not a navX-MXP")
	ErrBadCRC  = errors.New("navX response CRC mismatch")
)

type Interface interface {
	Yaw() (float64, error)
	ZeroYaw() error
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) error
}

type NavX struct {
	dev    port
	closer io.Closer
}

var _ Interface = (*NavX)(nil)

// NewI2C opens the navX on a Linux I2C bus, e.g. "/dev/i2c-1".
func NewI2C(deviceFile string) (*NavX, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, I2CAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open navX on %s", deviceFile)
	}
	return &NavX{dev: dev, closer: dev}, nil
}

// NewSPI opens the navX on an SPI port by periph name, e.g. "/dev/spidev0.0".
func NewSPI(deviceFile string) (*NavX, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}
	p, err := spireg.Open(deviceFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SPI port %s", deviceFile)
	}
	c, err := p.Connect(spiClock, spi.Mode3, 8)
	if err != nil {
		_ = p.Close()
		return nil, errors.Wrap(err, "failed to connect to navX")
	}
	return &NavX{dev: &SPIAdapter{c: c}, closer: p}, nil
}

// Probe checks that a navX is answering.
func (n *NavX) Probe() error {
	var buf [1]byte
	if err := n.dev.ReadReg(RegWhoAmI, buf[:]); err != nil {
		return errors.Wrap(err, "failed to read WHOAMI")
	}
	if buf[0] != WhoAmINavXMXP {
		return errors.Wrapf(ErrNotNavX, "WHOAMI=%#x", buf[0])
	}
	return nil
}

// Yaw returns the fused yaw in degrees, -180..180, clockwise positive.
func (n *NavX) Yaw() (float64, error) {
	var buf [2]byte
	if err := n.dev.ReadReg(RegYawL, buf[:]); err != nil {
		return 0, errors.Wrap(err, "failed to read yaw")
	}
	return float64(int16(binary.LittleEndian.Uint16(buf[:]))) / 100, nil
}

func (n *NavX) ZeroYaw() error {
	return errors.Wrap(n.dev.WriteReg(RegIntegrationCtl, []byte{IntegrationResetYaw}), "failed to zero yaw")
}

func (n *NavX) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer.Close()
}

type txer interface {
	Tx(w, r []byte) error
}

// SPIAdapter speaks the navX SPI framing: a 3-byte request (register, count or
// value, CRC), then for reads a second transaction clocking out the data plus
// its CRC.
type SPIAdapter struct {
	c txer

	r, w []byte
}

func (s *SPIAdapter) ReadReg(reg byte, buf []byte) error {
	s.ensureBuf(3)
	s.w[0] = reg
	s.w[1] = byte(len(buf))
	s.w[2] = crc(s.w[:2])
	if err := s.c.Tx(s.w[:3], s.r[:3]); err != nil {
		return err
	}
	time.Sleep(spiResponseDelay)

	// The response is the data followed by a CRC byte.
	bufLen := len(buf) + 1
	s.ensureBuf(bufLen)
	if err := s.c.Tx(s.w[:bufLen], s.r[:bufLen]); err != nil {
		return err
	}
	if crc(s.r[:len(buf)]) != s.r[len(buf)] {
		return ErrBadCRC
	}
	copy(buf, s.r[:len(buf)])
	return nil
}

func (s *SPIAdapter) WriteReg(reg byte, buf []byte) error {
	for i, b := range buf {
		s.ensureBuf(3)
		s.w[0] = spiWriteFlag | (reg + byte(i))
		s.w[1] = b
		s.w[2] = crc(s.w[:2])
		if err := s.c.Tx(s.w[:3], s.r[:3]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SPIAdapter) ensureBuf(l int) {
	if len(s.r) < l {
		s.w = make([]byte, l)
		s.r = make([]byte, l)
	} else {
		for i := 0; i < l; i++ {
			s.w[i] = 0
			s.r[i] = 0
		}
	}
}

// crc is the navX message CRC (CRC-7 style, polynomial 0x91, LSB first).
func crc(msg []byte) byte {
	var c byte
	for _, b := range msg {
		c ^= b
		for j := 0; j < 8; j++ {
			if c&1 != 0 {
				c ^= 0x91
			}
			c >>= 1
		}
	}
	return c
}
