// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/discovery"
	"print-bridge/internal/discovery/serial"
	"print-bridge/internal/discovery/usb"
	"print-bridge/internal/utils"
)

// DiscoveryService lists printers attached to this machine
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	config         *config.DiscoveryConfig
	logger         *utils.ServiceLogger
}

// NewDiscoveryService creates a discovery service with the scanners enabled in cfg
func NewDiscoveryService(cfg *config.DiscoveryConfig, logger *zap.Logger) *DiscoveryService {
	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(logger, cfg.ScanTimeout),
		config:         cfg,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}

	if cfg.USBEnabled {
		ds.scannerManager.RegisterScanner(usb.NewScanner(logger, &usb.Config{
			ScanTimeout: cfg.ScanTimeout,
			ReadStrings: true,
		}))
	}
	if cfg.SerialEnabled {
		ds.scannerManager.RegisterScanner(serial.NewScanner(logger, nil))
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
	)
	return ds
}

// NewDiscoveryServiceWithScanners builds a service over explicit scanners
func NewDiscoveryServiceWithScanners(cfg *config.DiscoveryConfig, logger *zap.Logger, scanners ...discovery.PrinterScanner) *DiscoveryService {
	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(logger, cfg.ScanTimeout),
		config:         cfg,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}
	for _, s := range scanners {
		ds.scannerManager.RegisterScanner(s)
	}
	return ds
}

// ScanPrinters runs one scanner type, or all of them for "" and "all"
func (ds *DiscoveryService) ScanPrinters(ctx context.Context, scanType string) ([]*discovery.DiscoveredPrinter, error) {
	ds.logger.Info("Starting printer scan", zap.String("type", scanType))

	var (
		printers []*discovery.DiscoveredPrinter
		err      error
	)
	switch scanType {
	case "", "all":
		printers, err = ds.scannerManager.ScanAll(ctx)
	default:
		printers, err = ds.scannerManager.ScanByType(ctx, scanType)
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	ds.logger.Info("Printer scan completed",
		zap.Int("printers_found", len(printers)),
		zap.String("scan_type", scanType),
	)
	return printers, nil
}

// AvailableScanners lists scanner types usable on this host
func (ds *DiscoveryService) AvailableScanners() []string {
	return ds.scannerManager.GetAvailableScanners()
}
