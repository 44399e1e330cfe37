package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// Stats is the process-wide signaling traffic counter.
var Stats = &stats{}

type stats struct {
	PacketsSent atomic.Int64 // cumulative packets written to the transport
	PacketsRecv atomic.Int64 // cumulative packets read from the transport
	BytesSent   atomic.Int64 // cumulative bytes written
	BytesRecv   atomic.Int64 // cumulative bytes read
}

func (s *stats) AddSent(n int) {
	s.PacketsSent.Add(1)
	s.BytesSent.Add(int64(n))
}

func (s *stats) AddRecv(n int) {
	s.PacketsRecv.Add(1)
	s.BytesRecv.Add(int64(n))
}

// StartStatsReporter launches a goroutine that logs traffic statistics every
// 10 seconds while anything is flowing. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevSent, prevRecv int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.PacketsSent.Load()
				recv := Stats.PacketsRecv.Load()

				if sent != prevSent || recv != prevRecv {
					pterm.DefaultLogger.Info(fmt.Sprintf(
						"Out: %4d pkt (%s) | In: %4d pkt (%s)",
						sent, formatBytes(float64(Stats.BytesSent.Load())),
						recv, formatBytes(float64(Stats.BytesRecv.Load()))))
				}
				prevSent = sent
				prevRecv = recv

			case <-ctx.Done():
				return
			}
		}
	}()
}

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a fixed-width human-readable string.
func formatBytes(b float64) string {
	unitIdx := 0
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}
	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}
