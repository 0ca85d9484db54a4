// internal/protocol/connection.go
package protocol

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port         string        `json:"port"`
	BaudRate     int           `json:"baud_rate"`
	DataBits     int           `json:"data_bits"`
	StopBits     int           `json:"stop_bits"`
	Parity       string        `json:"parity"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// USBConfig represents USB connection configuration.
// Empty vendor and product IDs select the first attached printer-class device.
type USBConfig struct {
	VendorID     string        `json:"vendor_id"`
	ProductID    string        `json:"product_id"`
	Interface    int           `json:"interface"`
	Endpoint     int           `json:"endpoint"`
	OpenAttempts int           `json:"open_attempts"`
	OpenDelay    time.Duration `json:"open_delay"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// TCPConfig represents a raw socket printer, usually on port 9100
type TCPConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
}

// openWithRetry calls open up to attempts times, sleeping delay between
// tries while retryable reports the failure as transient. Exhaustion is
// reported as ErrPermissionTimeout; cancellation as the context error.
func openWithRetry(ctx context.Context, attempts int, delay time.Duration, logger *zap.Logger,
	open func() error, retryable func(error) bool) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = open()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}

		logger.Debug("Printer not accessible yet",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(lastErr),
		)

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrPermissionTimeout, attempts, lastErr)
}

// writeContext bounds ctx by timeout when one is set
func writeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func checkWritten(n, want int) error {
	if n != want {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrPartialWrite, n, want)
	}
	return nil
}

// writeOutcome classifies a device write. Once any byte has reached the
// printer a failure is reported as ErrPartialWrite so the job is not resent.
func writeOutcome(n, want int, err error) error {
	if err == nil {
		return checkWritten(n, want)
	}
	if n > 0 {
		return fmt.Errorf("%w: wrote %d of %d bytes: %w", ErrPartialWrite, n, want, err)
	}
	return err
}

// bulkWriter is the OUT endpoint side of a USB printer interface
type bulkWriter interface {
	WriteContext(ctx context.Context, data []byte) (int, error)
}
