// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"time"

	"print-bridge/internal/model"
)

var (
	// ErrNotOpen is returned when writing to a closed transport
	ErrNotOpen = errors.New("printer connection not open")
	// ErrPartialWrite means the device accepted fewer bytes than were sent
	ErrPartialWrite = errors.New("incomplete write to printer")
	// ErrPermissionTimeout means the device stayed inaccessible for every open attempt
	ErrPermissionTimeout = errors.New("timed out waiting for printer access")
	// ErrDeviceNotFound means no matching printer is attached
	ErrDeviceNotFound = errors.New("printer not found")
)

// PrinterProtocol is a byte sink to a physical printer.
// Implementations are not required to be safe for concurrent writers;
// the printer manager serializes access.
type PrinterProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Write sends data verbatim. A short write reports ErrPartialWrite.
	Write(ctx context.Context, data []byte) error

	// Protocol information
	GetProtocolType() model.ConnectionType
	Describe() string
	GetStats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// record updates counters after a write attempt
func (s *ProtocolStats) record(n int, latency time.Duration, err error) {
	s.LastActivity = time.Now()
	if err != nil {
		s.ErrorCount++
		return
	}
	s.BytesWritten += int64(n)
	s.OperationCount++
	if s.AverageLatency == 0 {
		s.AverageLatency = latency
	} else {
		s.AverageLatency = (s.AverageLatency + latency) / 2
	}
}
