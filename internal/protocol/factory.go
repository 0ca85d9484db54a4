// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/model"
)

// CreateProtocol creates the printer transport selected by configuration
func CreateProtocol(cfg *config.PrinterConfig, logger *zap.Logger) (PrinterProtocol, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch model.ConnectionType(strings.ToUpper(cfg.ConnectionType)) {
	case model.ConnectionTypeSerial:
		return createSerialProtocol(cfg, logger), nil
	case model.ConnectionTypeUSB:
		return createUSBProtocol(cfg, logger), nil
	case model.ConnectionTypeTCP:
		return createTCPProtocol(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported protocol type: %s", cfg.ConnectionType)
	}
}

// createSerialProtocol creates a serial protocol
func createSerialProtocol(cfg *config.PrinterConfig, logger *zap.Logger) PrinterProtocol {
	serialConfig := &SerialConfig{
		Port:         cfg.Serial.Port,
		BaudRate:     orDefault(cfg.Serial.BaudRate, 9600),
		DataBits:     orDefault(cfg.Serial.DataBits, 8),
		StopBits:     orDefault(cfg.Serial.StopBits, 1),
		Parity:       strings.ToLower(cfg.Serial.Parity),
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Creating serial protocol",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialConnection(serialConfig, logger)
}

// createUSBProtocol creates a USB protocol
func createUSBProtocol(cfg *config.PrinterConfig, logger *zap.Logger) PrinterProtocol {
	usbConfig := &USBConfig{
		VendorID:     strings.TrimSpace(cfg.USB.VendorID),
		ProductID:    strings.TrimSpace(cfg.USB.ProductID),
		Interface:    cfg.USB.Interface,
		Endpoint:     cfg.USB.Endpoint,
		OpenAttempts: orDefault(cfg.USB.OpenAttempts, 50),
		OpenDelay:    cfg.USB.OpenDelay,
		WriteTimeout: cfg.WriteTimeout,
	}
	if usbConfig.OpenDelay <= 0 {
		usbConfig.OpenDelay = 100 * time.Millisecond
	}

	logger.Info("Creating USB protocol",
		zap.String("vendor_id", usbConfig.VendorID),
		zap.String("product_id", usbConfig.ProductID),
		zap.Int("interface", usbConfig.Interface),
		zap.Int("open_attempts", usbConfig.OpenAttempts),
		zap.Duration("open_delay", usbConfig.OpenDelay),
	)

	return NewUSBConnection(usbConfig, logger)
}

// createTCPProtocol creates a TCP protocol
func createTCPProtocol(cfg *config.PrinterConfig, logger *zap.Logger) PrinterProtocol {
	tcpConfig := &TCPConfig{
		Host:           cfg.TCP.Host,
		Port:           orDefault(cfg.TCP.Port, 9100),
		ConnectTimeout: cfg.TCP.ConnectTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}
	if tcpConfig.ConnectTimeout <= 0 {
		tcpConfig.ConnectTimeout = 10 * time.Second
	}

	logger.Info("Creating TCP protocol",
		zap.String("host", tcpConfig.Host),
		zap.Int("port", tcpConfig.Port),
	)

	return NewTCPConnection(tcpConfig, logger)
}

// ValidateConfig validates the transport section of the printer configuration
func ValidateConfig(cfg *config.PrinterConfig) error {
	switch model.ConnectionType(strings.ToUpper(cfg.ConnectionType)) {
	case model.ConnectionTypeSerial:
		return validateSerialConfig(&cfg.Serial)
	case model.ConnectionTypeUSB:
		return validateUSBConfig(&cfg.USB)
	case model.ConnectionTypeTCP:
		return validateTCPConfig(&cfg.TCP)
	default:
		return fmt.Errorf("unsupported connection type: %s", cfg.ConnectionType)
	}
}

// validateSerialConfig validates serial configuration
func validateSerialConfig(cfg *config.SerialPortConfig) error {
	if cfg.Port == "" {
		return fmt.Errorf("serial port is required")
	}

	if cfg.BaudRate != 0 {
		validRates := []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}
		valid := false
		for _, validRate := range validRates {
			if cfg.BaudRate == validRate {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid baud rate: %d", cfg.BaudRate)
		}
	}

	return nil
}

// validateUSBConfig requires both IDs or neither
func validateUSBConfig(cfg *config.USBPortConfig) error {
	vendor, product := strings.TrimSpace(cfg.VendorID), strings.TrimSpace(cfg.ProductID)
	if (vendor == "") != (product == "") {
		return fmt.Errorf("USB vendor_id and product_id must be set together")
	}
	if vendor == "" {
		return nil
	}

	if _, err := ParseHexID(vendor); err != nil {
		return fmt.Errorf("invalid USB vendor_id %q: %w", vendor, err)
	}
	if _, err := ParseHexID(product); err != nil {
		return fmt.Errorf("invalid USB product_id %q: %w", product, err)
	}
	return nil
}

// validateTCPConfig validates TCP configuration
func validateTCPConfig(cfg *config.TCPPortConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("TCP host is required")
	}

	if cfg.Port != 0 && (cfg.Port < 1 || cfg.Port > 65535) {
		return fmt.Errorf("invalid port number: %d", cfg.Port)
	}

	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
