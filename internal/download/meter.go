package download

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Meter accumulates received bytes and reports them once per interval.
type Meter struct {
	bytes atomic.Int64
	total atomic.Int64
}

// Add records n received bytes.
func (m *Meter) Add(n int) {
	m.bytes.Add(int64(n))
	m.total.Add(int64(n))
}

// Total returns every byte recorded since the meter was created.
func (m *Meter) Total() int64 {
	return m.total.Load()
}

// snapshot returns the bytes received since the previous snapshot.
func (m *Meter) snapshot() int64 {
	return m.bytes.Swap(0)
}

// Run emits a SpeedEvent every interval until ctx is done.
func (m *Meter) Run(ctx context.Context, interval time.Duration, emit EventSink) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := m.snapshot()
			perSec := int64(float64(n) / interval.Seconds())
			emit(SpeedEvent{
				Speed:       FormatSpeed(perSec),
				BytesPerSec: perSec,
			})
		}
	}
}

// FormatSpeed renders a byte rate as megabytes per second, e.g. "1.50 MB/s".
// Consumers parse this fixed "%.2f MB/s" form, so it does not go through
// humanize, whose units and precision vary with magnitude.
func FormatSpeed(bytesPerSec int64) string {
	return fmt.Sprintf("%.2f MB/s", float64(bytesPerSec)/1024/1024)
}
