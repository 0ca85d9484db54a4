// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"print-bridge/internal/discovery"
	"print-bridge/internal/model"
	"print-bridge/internal/protocol"
)

// Scanner enumerates USB receipt printers
type Scanner struct {
	logger       *zap.Logger
	knownDevices *PrinterDatabase
	config       *Config
}

// Config for USB scanner
type Config struct {
	ScanTimeout time.Duration `json:"scan_timeout"`
	EnableDebug bool          `json:"enable_debug"`
	// ReadStrings opens matched devices to read manufacturer, product and serial strings
	ReadStrings bool `json:"read_strings"`
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			ScanTimeout: 10 * time.Second,
			ReadStrings: true,
		}
	}

	return &Scanner{
		logger:       logger.With(zap.String("scanner", "usb")),
		knownDevices: NewPrinterDatabase(),
		config:       config,
	}
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable reports whether libusb can be used on this OS
func (s *Scanner) IsAvailable() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		return true
	default:
		s.logger.Warn("USB scanning support unknown for OS", zap.String("os", runtime.GOOS))
		return false
	}
}

// Scan lists USB devices that are class-7 printers or come from a known ESC/POS vendor
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredPrinter, error) {
	startTime := time.Now()
	s.logger.Debug("Starting USB printer scan")

	if s.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScanTimeout)
		defer cancel()
	}

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()
	if s.config.EnableDebug {
		usbCtx.Debug(3)
	}

	// Descriptors are captured in the filter so that devices we may not open still show up.
	var matched []*gousb.DeviceDesc
	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if !s.shouldExamineDevice(desc) {
			return false
		}
		matched = append(matched, desc)
		return s.config.ReadStrings
	})
	defer s.closeAllDevices(devices)
	if err != nil && len(matched) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if err != nil {
		s.logger.Debug("Some USB devices could not be opened", zap.Error(err))
	}

	opened := make(map[string]*gousb.Device, len(devices))
	for _, device := range devices {
		opened[locationKey(device.Desc)] = device
	}

	printers := make([]*discovery.DiscoveredPrinter, 0, len(matched))
	for _, desc := range matched {
		if err := ctx.Err(); err != nil {
			return printers, err
		}

		printer := s.identify(desc)
		if printer == nil {
			continue
		}
		if device, ok := opened[locationKey(desc)]; ok {
			s.enrich(printer, device)
		}
		printers = append(printers, printer)
	}

	s.logger.Info("USB scan completed",
		zap.Int("printers_found", len(printers)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return printers, nil
}

// shouldExamineDevice accepts known vendors and anything exposing a printer interface
func (s *Scanner) shouldExamineDevice(desc *gousb.DeviceDesc) bool {
	return s.knownDevices.IsKnownVendor(desc.Vendor) || protocol.IsPrinterClass(desc)
}

// identify maps a descriptor to a printer entry using the vendor table
func (s *Scanner) identify(desc *gousb.DeviceDesc) *discovery.DiscoveredPrinter {
	printer := &discovery.DiscoveredPrinter{
		ConnectionType: model.ConnectionTypeUSB,
		ConnectionInfo: connectionInfo(desc),
		Brand:          model.BrandGeneric,
		Model:          fmt.Sprintf("USB-%04X:%04X", uint16(desc.Vendor), uint16(desc.Product)),
		Capabilities:   []string{"PRINT"},
		Confidence:     0.4,
		SerialNumber:   fmt.Sprintf("USB-%04X%04X-%d", uint16(desc.Vendor), uint16(desc.Product), desc.Address),
		Location:       fmt.Sprintf("USB-Bus%d-Port%d", desc.Bus, desc.Address),
	}

	vendor := s.knownDevices.GetVendorInfo(desc.Vendor)
	if vendor == nil {
		if !protocol.IsPrinterClass(desc) {
			return nil
		}
		return printer
	}

	printer.Brand = vendor.Brand
	if product := vendor.GetProductInfo(desc.Product); product != nil {
		printer.Model = product.Model
		printer.Capabilities = product.Capabilities
		printer.Confidence = product.Confidence
		return printer
	}

	printer.Model = fmt.Sprintf("Unknown-%04X", uint16(desc.Product))
	printer.Confidence = 0.5
	if protocol.IsPrinterClass(desc) {
		printer.Confidence = 0.6
	}
	return printer
}

// enrich replaces synthetic names with the device's string descriptors when readable
func (s *Scanner) enrich(printer *discovery.DiscoveredPrinter, device *gousb.Device) {
	if serial, err := device.SerialNumber(); err == nil && strings.TrimSpace(serial) != "" {
		printer.SerialNumber = strings.TrimSpace(serial)
	}

	if printer.Brand != model.BrandGeneric && !strings.HasPrefix(printer.Model, "Unknown-") {
		return
	}

	product, _ := device.Product()
	manufacturer, _ := device.Manufacturer()
	product = strings.TrimSpace(product)
	manufacturer = strings.TrimSpace(manufacturer)

	switch {
	case product != "" && manufacturer != "":
		printer.Model = manufacturer + " " + product
	case product != "":
		printer.Model = product
	case manufacturer != "":
		printer.Model = fmt.Sprintf("%s-%04X", manufacturer, uint16(device.Desc.Product))
	}
}

// connectionInfo holds the values an operator copies into printer.usb
func connectionInfo(desc *gousb.DeviceDesc) map[string]interface{} {
	return map[string]interface{}{
		"vendor_id":  fmt.Sprintf("0x%04X", uint16(desc.Vendor)),
		"product_id": fmt.Sprintf("0x%04X", uint16(desc.Product)),
		"bus":        desc.Bus,
		"address":    desc.Address,
		"class":      desc.Class.String(),
		"printer":    protocol.IsPrinterClass(desc),
	}
}

func locationKey(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("%d:%d", desc.Bus, desc.Address)
}

// closeAllDevices safely closes all opened USB devices
func (s *Scanner) closeAllDevices(devices []*gousb.Device) {
	for i, device := range devices {
		if device == nil {
			continue
		}
		if err := device.Close(); err != nil {
			s.logger.Warn("Failed to close USB device",
				zap.Int("device_index", i),
				zap.Error(err),
			)
		}
	}
}
