// internal/printer/manager.go
package printer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/model"
	"print-bridge/internal/protocol"
	"print-bridge/internal/utils"
)

var (
	// ErrPrinterBusy is returned when another job held the printer for the whole lock wait
	ErrPrinterBusy = errors.New("printer is busy")
	// ErrNotConfigured is returned when no transport could be created
	ErrNotConfigured = errors.New("no printer configured")
)

const defaultLockTimeout = 10 * time.Second

// EventFunc receives transport lifecycle events for a job
type EventFunc func(eventType model.EventType, jobID uuid.UUID, data map[string]interface{})

// Manager is the single owner of the printer transport. Jobs are delivered
// one at a time; a failed transfer is retried once after reconnecting.
type Manager struct {
	transport   protocol.PrinterProtocol
	logger      *utils.PrinterLogger
	slot        chan struct{}
	lockTimeout time.Duration
	keepOpen    bool
	onEvent     EventFunc

	mutex       sync.RWMutex
	jobsPrinted int64
	jobsFailed  int64
	retries     int64
	lastError   string
}

// NewManager creates a manager over transport. A nil transport yields a
// manager that rejects every job with ErrNotConfigured.
func NewManager(transport protocol.PrinterProtocol, cfg *config.PrinterConfig, logger *zap.Logger) *Manager {
	connType := "NONE"
	if transport != nil {
		connType = string(transport.GetProtocolType())
	}

	lockTimeout := cfg.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}

	return &Manager{
		transport:   transport,
		logger:      utils.NewPrinterLogger(logger, connType),
		slot:        make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		keepOpen:    cfg.KeepOpen,
	}
}

// OnEvent registers the receiver of transport events
func (m *Manager) OnEvent(fn EventFunc) {
	m.onEvent = fn
}

// Configured reports whether a transport exists
func (m *Manager) Configured() bool {
	return m.transport != nil
}

// Print delivers data to the printer and returns the number of transfer
// attempts made. ctx bounds only the wait for the printer; once the slot is
// held the transfer runs to completion under the transport write timeout.
func (m *Manager) Print(ctx context.Context, jobID uuid.UUID, data []byte) (int, error) {
	if m.transport == nil {
		return 0, ErrNotConfigured
	}

	if err := m.acquire(ctx); err != nil {
		m.recordFailure(err)
		return 0, err
	}
	defer m.release()

	// The transfer outlives the request from here on
	ctx = context.WithoutCancel(ctx)

	attempts := 1
	err := m.transfer(ctx, jobID, data, attempts)
	if err != nil && m.retryable(err) {
		m.mutex.Lock()
		m.retries++
		m.mutex.Unlock()
		m.emit(model.EventPrinterRetried, jobID, map[string]interface{}{"error": err.Error()})

		m.disconnect(jobID)
		attempts++
		err = m.transfer(ctx, jobID, data, attempts)
	}

	if !m.keepOpen || err != nil {
		m.disconnect(jobID)
	}

	if err != nil {
		m.recordFailure(err)
		return attempts, err
	}

	m.mutex.Lock()
	m.jobsPrinted++
	m.lastError = ""
	m.mutex.Unlock()
	return attempts, nil
}

// acquire waits for the printer slot, at most lockTimeout
func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.slot <- struct{}{}:
		return nil
	default:
	}

	m.logger.Debug("Waiting for printer", zap.Duration("lock_timeout", m.lockTimeout))

	timer := time.NewTimer(m.lockTimeout)
	defer timer.Stop()

	select {
	case m.slot <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: waited %s", ErrPrinterBusy, m.lockTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.slot
}

// transfer opens the transport when needed and writes one copy of data
func (m *Manager) transfer(ctx context.Context, jobID uuid.UUID, data []byte, attempt int) error {
	if !m.transport.IsOpen() {
		err := m.transport.Open(ctx)
		m.logger.LogConnection("open", err)
		if err != nil {
			return err
		}
		m.emit(model.EventPrinterOpened, jobID, map[string]interface{}{"target": m.transport.Describe()})
	}

	start := time.Now()
	err := m.transport.Write(ctx, data)
	m.logger.LogTransfer(jobID.String(), len(data), attempt, time.Since(start), err)
	return err
}

// retryable reports whether a second attempt may help. A partial write is
// never repeated since part of the document has already printed.
func (m *Manager) retryable(err error) bool {
	return !errors.Is(err, protocol.ErrPartialWrite)
}

func (m *Manager) disconnect(jobID uuid.UUID) {
	if !m.transport.IsOpen() {
		return
	}
	err := m.transport.Close()
	m.logger.LogConnection("close", err)
	m.emit(model.EventPrinterClosed, jobID, nil)
}

func (m *Manager) recordFailure(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobsFailed++
	m.lastError = err.Error()
}

func (m *Manager) emit(eventType model.EventType, jobID uuid.UUID, data map[string]interface{}) {
	if m.onEvent != nil {
		m.onEvent(eventType, jobID, data)
	}
}

// Status reports transport state and job counters
func (m *Manager) Status() model.PrinterStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	status := model.PrinterStatus{
		KeepOpen:    m.keepOpen,
		JobsPrinted: m.jobsPrinted,
		JobsFailed:  m.jobsFailed,
		Retries:     m.retries,
		LastError:   m.lastError,
	}
	if m.transport != nil {
		stats := m.transport.GetStats()
		status.ConnectionType = m.transport.GetProtocolType()
		status.Connected = m.transport.IsOpen()
		status.BytesWritten = stats.BytesWritten
	}
	return status
}

// Describe returns the transport target, or "none"
func (m *Manager) Describe() string {
	if m.transport == nil {
		return "none"
	}
	return m.transport.Describe()
}

// Close waits for the in-flight job, then closes the transport
func (m *Manager) Close(ctx context.Context) error {
	if m.transport == nil {
		return nil
	}

	select {
	case m.slot <- struct{}{}:
		defer m.release()
	case <-ctx.Done():
		return ctx.Err()
	}

	if !m.transport.IsOpen() {
		return nil
	}
	return m.transport.Close()
}
