package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/dashboard"
)

const (
	DefaultDevice = "/dev/fb1"

	// The panel is 128x128 RGB565.
	S         = 128
	lineStep  = 12
	maxValues = 6
)

type Level int

const (
	LevelInfo Level = iota
	LevelErr
)

// Screen renders the dashboard table, the active mode and any notices to the
// robot's little status display.
type Screen struct {
	table *dashboard.Table
	log   *zap.SugaredLogger

	lock    sync.Mutex
	mode    string
	notices map[string]Level
}

func New(table *dashboard.Table, log *zap.SugaredLogger) *Screen {
	return &Screen{
		table:   table,
		log:     log,
		notices: map[string]Level{},
	}
}

func (s *Screen) SetMode(mode string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.mode = mode
}

func (s *Screen) SetNotice(text string, level Level) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.notices[text] = level
}

func (s *Screen) ClearNotice(text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.notices, text)
}

func (s *Screen) LoopUpdatingScreen(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		s.log.Infow("Failed to open screen, ignoring", "device", device, "error", err)
		return
	}
	defer f.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var blank [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(blank[:])
			return
		case <-ticker.C:
		}

		buf := toRGB565(s.Render())
		_, err = f.Seek(0, 0)
		if err != nil {
			s.log.Warnw("Screen failure", "error", err)
			return
		}
		for i := 0; i < S; i++ {
			_, err = f.Write(buf[i*S*2 : (i+1)*S*2])
			if err != nil {
				s.log.Warnw("Screen failure", "error", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws one frame.
func (s *Screen) Render() image.Image {
	s.lock.Lock()
	mode := s.mode
	notices := make([]string, 0, len(s.notices))
	errs := map[string]bool{}
	for n, l := range s.notices {
		notices = append(notices, n)
		errs[n] = l == LevelErr
	}
	s.lock.Unlock()
	sort.Strings(notices)

	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	y := float64(lineStep)
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(mode, 2, y)
	y += lineStep + 2

	dc.SetRGB(1, 1, 1)
	entries := s.table.Entries()
	for i, e := range entries {
		if i == maxValues {
			break
		}
		dc.DrawString(fmt.Sprintf("%s %s", shorten(e.Name), e.Format()), 2, y)
		y += lineStep
	}

	for _, n := range notices {
		if errs[n] {
			drawWarning(dc, 8, y+2)
			dc.SetRGB(1, 0.2, 0)
		} else {
			dc.SetRGB(0.6, 0.8, 1)
		}
		dc.DrawString(n, 18, y+6)
		y += lineStep
	}
	return dc.Image()
}

// shorten keeps long dashboard keys on one line of the panel.
func shorten(name string) string {
	const max = 12
	if len(name) <= max {
		return name
	}
	return name[:max-1] + "~"
}

func drawWarning(dc *gg.Context, x, y float64) {
	dc.Push()
	dc.Translate(x, y)
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 6, 0)
	dc.Fill()
	dc.Pop()
}

// toRGB565 packs img for the panel, which is mounted rotated a quarter turn.
func toRGB565(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}
