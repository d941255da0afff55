package ahrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNavX emulates the navX SPI framing over an in-memory register file.
type fakeNavX struct {
	regs [256]byte

	pendingReg   byte
	pendingCount int
	corrupt      bool
}

func (f *fakeNavX) Tx(w, r []byte) error {
	if f.pendingCount > 0 {
		data := f.regs[f.pendingReg : int(f.pendingReg)+f.pendingCount]
		copy(r, data)
		r[len(data)] = crc(data)
		if f.corrupt {
			r[len(data)] ^= 0x01
		}
		f.pendingCount = 0
		return nil
	}
	if crc(w[:2]) != w[2] {
		panic("bad request CRC")
	}
	if w[0]&spiWriteFlag != 0 {
		f.regs[w[0]&^spiWriteFlag] = w[1]
		return nil
	}
	f.pendingReg = w[0]
	f.pendingCount = int(w[1])
	return nil
}

func newFake() (*fakeNavX, *NavX) {
	f := &fakeNavX{}
	f.regs[RegWhoAmI] = WhoAmINavXMXP
	return f, &NavX{dev: &SPIAdapter{c: f}}
}

func TestCRCResidue(t *testing.T) {
	for _, msg := range [][]byte{{0x16, 0x02}, {0x00, 0x01}, {0xd6, 0x80}, {1, 2, 3, 4, 5}} {
		c := crc(msg)
		assert.Less(t, c, byte(0x80))
		assert.Equal(t, byte(0), crc(append(append([]byte(nil), msg...), c)), "msg %x", msg)
	}
}

func TestProbe(t *testing.T) {
	f, n := newFake()
	require.NoError(t, n.Probe())

	f.regs[RegWhoAmI] = 0x33
	assert.ErrorIs(t, n.Probe(), ErrNotNavX)
}

func TestYaw(t *testing.T) {
	f, n := newFake()
	// -123.45 degrees = -12345 = 0xcfc7
	f.regs[RegYawL] = 0xc7
	f.regs[RegYawL+1] = 0xcf
	yaw, err := n.Yaw()
	require.NoError(t, err)
	assert.InDelta(t, -123.45, yaw, 1e-9)

	f.corrupt = true
	_, err = n.Yaw()
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestZeroYaw(t *testing.T) {
	f, n := newFake()
	require.NoError(t, n.ZeroYaw())
	assert.Equal(t, byte(IntegrationResetYaw), f.regs[RegIntegrationCtl])
}

func TestCloseWithoutCloser(t *testing.T) {
	_, n := newFake()
	assert.NoError(t, n.Close())
}
