// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"print-bridge/internal/discovery"
	"print-bridge/internal/discovery/usb"
	"print-bridge/internal/model"
	"print-bridge/internal/protocol"
)

// Scanner lists serial ports that may have a receipt printer attached
type Scanner struct {
	logger       *zap.Logger
	config       *Config
	knownDevices *usb.PrinterDatabase
}

// Config for serial scanner
type Config struct {
	// DefaultBaudRate is suggested in the connection info of every port
	DefaultBaudRate int `json:"default_baud_rate"`
	// IncludeBuiltin keeps on-board UARTs such as /dev/ttyS0
	IncludeBuiltin bool `json:"include_builtin"`
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{DefaultBaudRate: 9600}
	}
	if config.DefaultBaudRate == 0 {
		config.DefaultBaudRate = 9600
	}

	return &Scanner{
		logger:       logger.With(zap.String("scanner", "serial")),
		config:       config,
		knownDevices: usb.NewPrinterDatabase(),
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable reports true; port listing works on every supported OS
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists serial ports. Ports are never opened.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredPrinter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		s.logger.Debug("Detailed port listing failed, falling back to names", zap.Error(err))
		names, listErr := serial.GetPortsList()
		if listErr != nil {
			return nil, fmt.Errorf("failed to get serial ports: %w", listErr)
		}
		ports = make([]*enumerator.PortDetails, 0, len(names))
		for _, name := range names {
			ports = append(ports, &enumerator.PortDetails{Name: name})
		}
	}

	printers := s.printersFromPorts(ports)
	s.logger.Info("Serial scan completed",
		zap.Int("ports_found", len(ports)),
		zap.Int("printers_found", len(printers)),
	)
	return printers, nil
}

func (s *Scanner) printersFromPorts(ports []*enumerator.PortDetails) []*discovery.DiscoveredPrinter {
	printers := make([]*discovery.DiscoveredPrinter, 0, len(ports))
	for _, port := range ports {
		if port == nil || port.Name == "" {
			continue
		}
		if !port.IsUSB && !s.config.IncludeBuiltin && isBuiltinPort(port.Name) {
			continue
		}
		printers = append(printers, s.describePort(port))
	}
	return printers
}

func (s *Scanner) describePort(port *enumerator.PortDetails) *discovery.DiscoveredPrinter {
	info := map[string]interface{}{
		"port":      port.Name,
		"baud_rate": s.config.DefaultBaudRate,
	}

	printer := &discovery.DiscoveredPrinter{
		ConnectionType: model.ConnectionTypeSerial,
		ConnectionInfo: info,
		Brand:          model.BrandGeneric,
		Model:          "Serial-" + portBase(port.Name),
		Capabilities:   []string{"PRINT"},
		Confidence:     0.2,
		Location:       port.Name,
	}

	if !port.IsUSB {
		return printer
	}

	info["vendor_id"] = "0x" + strings.ToUpper(port.VID)
	info["product_id"] = "0x" + strings.ToUpper(port.PID)
	printer.SerialNumber = port.SerialNumber
	printer.Confidence = 0.3
	if port.Product != "" {
		printer.Model = port.Product
	}

	vid, err := protocol.ParseHexID(port.VID)
	if err != nil {
		return printer
	}
	if vendor := s.knownDevices.GetVendorInfo(vid); vendor != nil {
		printer.Brand = vendor.Brand
		printer.Confidence = 0.6
	}
	return printer
}

// isBuiltinPort matches motherboard UARTs that are listed whether or not anything is wired
func isBuiltinPort(name string) bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return strings.HasPrefix(name, "/dev/ttyS")
}

func portBase(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
