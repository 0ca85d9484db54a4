// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// TCPConnection implements PrinterProtocol for network printers on a raw socket
type TCPConnection struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *ProtocolStats
}

// NewTCPConnection creates a new TCP connection
func NewTCPConnection(config *TCPConfig, logger *zap.Logger) PrinterProtocol {
	return &TCPConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
		stats: &ProtocolStats{},
	}
}

// Open dials the printer
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	tc.logger.Info("Opening TCP connection")

	dialer := &net.Dialer{
		Timeout:   tc.config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", tc.address())
	if err != nil {
		tc.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", tc.address(), err)
	}

	tc.conn = conn
	tc.isOpen = true
	tc.stats.IsConnected = true
	tc.stats.LastActivity = time.Now()

	tc.logger.Info("TCP connection opened successfully")
	return nil
}

func (tc *TCPConnection) address() string {
	return net.JoinHostPort(tc.config.Host, strconv.Itoa(tc.config.Port))
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	err := tc.conn.Close()
	tc.conn = nil
	tc.isOpen = false
	tc.stats.IsConnected = false

	if err != nil {
		tc.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Info("TCP connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes data to the socket. The deadline is the earlier of the
// context deadline and the configured write timeout.
func (tc *TCPConnection) Write(ctx context.Context, data []byte) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return ErrNotOpen
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var deadline time.Time
	if tc.config.WriteTimeout > 0 {
		deadline = time.Now().Add(tc.config.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := tc.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	startTime := time.Now()
	n, err := tc.conn.Write(data)
	err = writeOutcome(n, len(data), err)
	tc.stats.record(n, time.Since(startTime), err)

	if err != nil {
		tc.logger.Error("TCP write failed", zap.Error(err))
		if errors.Is(err, ErrPartialWrite) {
			return err
		}
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	tc.logger.Debug("TCP write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (tc *TCPConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Describe returns a human-readable target
func (tc *TCPConnection) Describe() string {
	return "tcp:" + tc.address()
}

// GetStats returns a snapshot of the connection statistics
func (tc *TCPConnection) GetStats() ProtocolStats {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return *tc.stats
}
