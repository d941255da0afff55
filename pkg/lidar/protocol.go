package lidar

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
)

// YDLIDAR X4 serial protocol.
const (
	cmdPrefix    = 0xa5
	cmdStartScan = 0x60
	cmdStopScan  = 0x65

	// Response descriptor: A5 5A, 30-bit length + 2-bit mode, type code.
	descriptorLen     = 7
	scanTypeCode      = 0x81
	modeContinuous    = 1
	packetHeaderLen   = 10
	packetHeaderFirst = 0xaa
	packetHeaderNext  = 0x55

	// CT bit 0 marks the first packet of a revolution.
	ctStartOfScan = 0x01
)

var (
	startScanCmd = []byte{cmdPrefix, cmdStartScan}
	stopScanCmd  = []byte{cmdPrefix, cmdStopScan}

	packetHeader = []byte{packetHeaderFirst, packetHeaderNext}
)

var (
	ErrBadDescriptor = errors.New("unexpected scan response descriptor")
	ErrBadChecksum   = errors.New("packet checksum mismatch")
	ErrLostSync      = errors.New("lost sync with packet stream")
)

type packet struct {
	CT  uint8
	LSN uint8
	FSA uint16
	LSA uint16
	CS  uint16

	Samples []uint16
}

type sample struct {
	AngleDeg   float64
	DistanceMM float64
}

func (p *packet) startOfScan() bool {
	return p.CT&ctStartOfScan != 0
}

func (p *packet) checksum() uint16 {
	cs := uint16(packetHeaderNext)<<8 | packetHeaderFirst
	cs ^= p.FSA
	for _, s := range p.Samples {
		cs ^= s
	}
	cs ^= uint16(p.LSN)<<8 | uint16(p.CT)
	cs ^= p.LSA
	return cs
}

// samples converts the raw packet into angle/distance pairs, applying the X4's
// per-sample angle correction.
func (p *packet) samples() []sample {
	out := make([]sample, len(p.Samples))
	if len(out) == 0 {
		return out
	}
	first := float64(p.FSA>>1) / 64
	last := float64(p.LSA>>1) / 64
	diff := last - first
	if diff < 0 {
		diff += 360
	}
	for i, raw := range p.Samples {
		dist := float64(raw) / 4
		angle := first
		if len(p.Samples) > 1 {
			angle += diff / float64(len(p.Samples)-1) * float64(i)
		}
		angle += angleCorrection(dist)
		angle = math.Mod(angle, 360)
		if angle < 0 {
			angle += 360
		}
		out[i] = sample{AngleDeg: angle, DistanceMM: dist}
	}
	return out
}

func angleCorrection(dist float64) float64 {
	if dist == 0 {
		return 0
	}
	return math.Atan(21.8*(155.3-dist)/(155.3*dist)) * 180 / math.Pi
}

// readDescriptor consumes and validates the response to the start-scan command.
func readDescriptor(r io.Reader) error {
	var buf [descriptorLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return errors.Wrap(err, "failed to read scan descriptor")
	}
	if buf[0] != cmdPrefix || buf[1] != 0x5a {
		return errors.Wrapf(ErrBadDescriptor, "start bytes %x", buf[:2])
	}
	lenMode := binary.LittleEndian.Uint32(buf[2:6])
	if mode := lenMode >> 30; mode != modeContinuous {
		return errors.Wrapf(ErrBadDescriptor, "mode %d", mode)
	}
	if buf[6] != scanTypeCode {
		return errors.Wrapf(ErrBadDescriptor, "type code %#x", buf[6])
	}
	return nil
}

// syncToHeader discards bytes until the next packet header is at the front of br.
func syncToHeader(br *bufio.Reader) error {
	for {
		buf, err := br.Peek(2)
		if err != nil {
			return err
		}
		if bytes.Equal(buf, packetHeader) {
			return nil
		}
		if _, err := br.Discard(1); err != nil {
			return err
		}
	}
}

// readPacket reads one packet, which must start at the front of br.
func readPacket(br *bufio.Reader) (*packet, error) {
	var hdr [packetHeaderLen]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, err
	}
	if !bytes.Equal(hdr[:2], packetHeader) {
		return nil, ErrLostSync
	}
	p := &packet{
		CT:  hdr[2],
		LSN: hdr[3],
		FSA: binary.LittleEndian.Uint16(hdr[4:6]),
		LSA: binary.LittleEndian.Uint16(hdr[6:8]),
		CS:  binary.LittleEndian.Uint16(hdr[8:10]),
	}
	data := make([]byte, int(p.LSN)*2)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, err
	}
	p.Samples = make([]uint16, p.LSN)
	for i := range p.Samples {
		p.Samples[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	if p.checksum() != p.CS {
		return nil, ErrBadChecksum
	}
	return p, nil
}

// scanBuilder folds packets into revolutions.
type scanBuilder struct {
	current ScanData
	started bool
}

// add returns the completed revolution (and true) when p starts a new one.
func (b *scanBuilder) add(p *packet, now time.Time) (ScanData, bool) {
	var done ScanData
	complete := false
	if p.startOfScan() {
		if b.started {
			done = b.current
			complete = true
		}
		b.current = ScanData{CaptureTime: now}
		b.started = true
	}
	if !b.started {
		// Partial revolution before the first start packet.
		return done, complete
	}
	for _, s := range p.samples() {
		i := bucketFor(s.AngleDeg)
		b.current.Angle[i] = float32(s.AngleDeg)
		b.current.Distance[i] = float32(s.DistanceMM)
	}
	return done, complete
}
