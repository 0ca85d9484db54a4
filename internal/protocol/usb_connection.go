// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// USBConnection implements PrinterProtocol over a USB bulk OUT endpoint
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	cfg      *gousb.Config
	intf     *gousb.Interface
	outEndpt bulkWriter
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    *ProtocolStats
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) PrinterProtocol {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
		stats: &ProtocolStats{},
	}
}

// Open claims the printer interface. Access and busy errors, which is how a
// pending permission grant or another process holding the device shows up,
// are retried open_attempts times open_delay apart.
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("Opening USB connection",
		zap.Int("interface", uc.config.Interface),
		zap.Int("endpoint", uc.config.Endpoint),
	)

	match, err := uc.matcher()
	if err != nil {
		return err
	}

	uc.ctx = gousb.NewContext()
	err = openWithRetry(ctx, uc.config.OpenAttempts, uc.config.OpenDelay, uc.logger,
		func() error { return uc.claim(match) },
		isTransientUSBError,
	)
	if err != nil {
		uc.ctx.Close()
		uc.ctx = nil
		uc.logger.Error("Failed to open USB connection", zap.Error(err))
		return fmt.Errorf("failed to open USB printer: %w", err)
	}

	uc.isOpen = true
	uc.stats.IsConnected = true
	uc.stats.LastActivity = time.Now()

	uc.logger.Info("USB connection opened successfully")
	return nil
}

// matcher builds the device filter from configuration
func (uc *USBConnection) matcher() (func(*gousb.DeviceDesc) bool, error) {
	if uc.config.VendorID == "" && uc.config.ProductID == "" {
		return IsPrinterClass, nil
	}

	vendorID, err := ParseHexID(uc.config.VendorID)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor ID: %w", err)
	}
	productID, err := ParseHexID(uc.config.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}

	return func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	}, nil
}

// claim performs a single open attempt
func (uc *USBConnection) claim(match func(*gousb.DeviceDesc) bool) error {
	device, err := uc.findAndOpenDevice(match)
	if err != nil {
		return err
	}

	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Warn("Kernel driver auto-detach unavailable", zap.Error(err))
	}

	cfgNum, err := device.ActiveConfigNum()
	if err != nil {
		device.Close()
		return fmt.Errorf("failed to read active configuration: %w", err)
	}
	cfg, err := device.Config(cfgNum)
	if err != nil {
		device.Close()
		return fmt.Errorf("failed to claim configuration: %w", err)
	}

	intf, err := cfg.Interface(uc.config.Interface, 0)
	if err != nil {
		cfg.Close()
		device.Close()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	endpoint := uc.config.Endpoint
	if endpoint <= 0 {
		endpoint = bulkOutEndpoint(intf.Setting)
	}
	outEndpt, err := intf.OutEndpoint(endpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		device.Close()
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	uc.device = device
	uc.cfg = cfg
	uc.intf = intf
	uc.outEndpt = outEndpt
	return nil
}

// Close releases the interface and the device
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	if uc.intf != nil {
		uc.intf.Close()
		uc.intf = nil
	}
	if uc.cfg != nil {
		uc.cfg.Close()
		uc.cfg = nil
	}
	if uc.device != nil {
		uc.device.Close()
		uc.device = nil
	}
	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.isOpen = false
	uc.stats.IsConnected = false

	uc.logger.Info("USB connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write performs a bulk OUT transfer bounded by the configured write timeout
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return ErrNotOpen
	}

	wctx, cancel := writeContext(ctx, uc.config.WriteTimeout)
	defer cancel()

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(wctx, data)
	err = writeOutcome(n, len(data), err)
	uc.stats.record(n, time.Since(startTime), err)

	if err != nil {
		uc.logger.Error("USB write failed", zap.Int("written", n), zap.Int("bytes", len(data)), zap.Error(err))
		if errors.Is(err, ErrPartialWrite) {
			return err
		}
		return fmt.Errorf("failed to write to USB device: %w", err)
	}

	uc.logger.Debug("USB write completed", zap.Int("bytes", len(data)))
	return nil
}

// GetProtocolType returns the protocol type
func (uc *USBConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Describe returns a human-readable target
func (uc *USBConnection) Describe() string {
	if uc.config.VendorID == "" && uc.config.ProductID == "" {
		return "usb:auto"
	}
	return fmt.Sprintf("usb:%s:%s", uc.config.VendorID, uc.config.ProductID)
}

// GetStats returns a snapshot of the connection statistics
func (uc *USBConnection) GetStats() ProtocolStats {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return *uc.stats
}

// findAndOpenDevice opens the first device accepted by match
func (uc *USBConnection) findAndOpenDevice(match func(*gousb.DeviceDesc) bool) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(match)
	if len(devices) == 0 {
		if err != nil {
			return nil, fmt.Errorf("failed to open USB device: %w", err)
		}
		return nil, ErrDeviceNotFound
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}

// IsPrinterClass reports whether any interface of the device is USB class 7
func IsPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// ParseHexID parses a USB vendor or product ID written as 0x04b8 or 04b8
func ParseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimSpace(hexStr)
	if len(hexStr) > 2 && (hexStr[:2] == "0x" || hexStr[:2] == "0X") {
		hexStr = hexStr[2:]
	}

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}

	return gousb.ID(id), nil
}

// bulkOutEndpoint picks the first bulk OUT endpoint of an interface setting
func bulkOutEndpoint(setting gousb.InterfaceSetting) int {
	best := 0
	for _, ep := range setting.Endpoints {
		if ep.Direction != gousb.EndpointDirectionOut || ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if best == 0 || ep.Number < best {
			best = ep.Number
		}
	}
	if best == 0 {
		return 1
	}
	return best
}

// isTransientUSBError reports failures that may clear once access is granted
func isTransientUSBError(err error) bool {
	return errors.Is(err, gousb.ErrorAccess) || errors.Is(err, gousb.ErrorBusy)
}
