// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// SerialConnection implements PrinterProtocol for serial connections
type SerialConnection struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *ProtocolStats
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) PrinterProtocol {
	return &SerialConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", config.Port),
		),
		stats: &ProtocolStats{},
	}
}

// Open opens the serial connection
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}

	sc.logger.Info("Opening serial port",
		zap.String("port", sc.config.Port),
		zap.Int("baud_rate", sc.config.BaudRate),
	)

	port, err := serial.Open(sc.config.Port, serialMode(sc.config))
	if err != nil {
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, sc.config.Port)
		}
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	sc.port = port
	sc.isOpen = true
	sc.stats.IsConnected = true
	sc.stats.LastActivity = time.Now()

	sc.logger.Info("Serial port opened successfully")
	return nil
}

// serialMode maps configuration onto the port mode
func serialMode(cfg *SerialConfig) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: serial.OneStopBit,
	}

	if cfg.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch cfg.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	return mode
}

// Close closes the serial connection
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.isOpen = false
	sc.stats.IsConnected = false

	if err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port and waits for it to drain
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return ErrNotOpen
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	err = writeOutcome(n, len(data), err)
	if err == nil {
		if err = sc.port.Drain(); err != nil {
			err = fmt.Errorf("%w: drain: %w", ErrPartialWrite, err)
		}
	}
	sc.stats.record(n, time.Since(startTime), err)

	if err != nil {
		sc.logger.Error("Serial write failed", zap.Error(err))
		if errors.Is(err, ErrPartialWrite) {
			return err
		}
		return fmt.Errorf("failed to write to serial port: %w", err)
	}

	sc.logger.Debug("Serial write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (sc *SerialConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Describe returns a human-readable target
func (sc *SerialConnection) Describe() string {
	return "serial:" + sc.config.Port
}

// GetStats returns a snapshot of the connection statistics
func (sc *SerialConnection) GetStats() ProtocolStats {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return *sc.stats
}
