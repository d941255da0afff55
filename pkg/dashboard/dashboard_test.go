package dashboard

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePutAndGet(t *testing.T) {
	tbl := NewTable()
	now := time.Unix(1000, 0)
	tbl.now = func() time.Time { return now }

	assert.Equal(t, -7.0, tbl.GetNumber("mlidar_distance", -7))

	tbl.PutNumber("mlidar_distance", 512.5)
	tbl.PutString("mode", "Autonomous")
	tbl.PutBoolean("lidar_enabled", true)
	tbl.PutNumber("mlidar_distance", 3125)

	assert.Equal(t, 3125.0, tbl.GetNumber("mlidar_distance", -7))
	assert.Equal(t, -7.0, tbl.GetNumber("mode", -7))

	expected := []Entry{
		{Name: "lidar_enabled", Kind: KindBoolean, Boolean: true, Updated: now},
		{Name: "mlidar_distance", Kind: KindNumber, Number: 3125, Updated: now},
		{Name: "mode", Kind: KindString, String: "Autonomous", Updated: now},
	}
	if diff := cmp.Diff(expected, tbl.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryFormat(t *testing.T) {
	assert.Equal(t, "3125.0", Entry{Kind: KindNumber, Number: 3125}.Format())
	assert.Equal(t, "-1.0", Entry{Kind: KindNumber, Number: -1}.Format())
	assert.Equal(t, "Test", Entry{Kind: KindString, String: "Test"}.Format())
	assert.Equal(t, "false", Entry{Kind: KindBoolean}.Format())
}

func TestDumpYAML(t *testing.T) {
	tbl := NewTable()
	tbl.PutNumber("mlidar_distance", 500)
	tbl.PutString("mode", "Disabled")
	tbl.PutBoolean("lidar_enabled", false)

	out, err := tbl.DumpYAML()
	require.NoError(t, err)
	assert.Equal(t, "lidar_enabled: false\nmlidar_distance: 500\nmode: Disabled\n", string(out))
}

func TestTableConcurrentUse(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tbl.PutNumber("mlidar_distance", float64(j))
				_ = tbl.Entries()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 99.0, tbl.GetNumber("mlidar_distance", 0))
}
