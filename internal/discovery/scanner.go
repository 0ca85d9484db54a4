// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"print-bridge/internal/model"
)

// PrinterScanner finds printers reachable over one kind of connection
type PrinterScanner interface {
	Scan(ctx context.Context) ([]*DiscoveredPrinter, error)
	GetScannerType() string
	IsAvailable() bool
}

// DiscoveredPrinter is a printer candidate found by a scanner
type DiscoveredPrinter struct {
	ConnectionType model.ConnectionType   `json:"connection_type"`
	ConnectionInfo map[string]interface{} `json:"connection_info"`
	Brand          model.PrinterBrand     `json:"brand"`
	Model          string                 `json:"model"`
	Capabilities   []string               `json:"capabilities,omitempty"`
	Confidence     float64                `json:"confidence"` // 0.0-1.0
	SerialNumber   string                 `json:"serial_number,omitempty"`
	Location       string                 `json:"location,omitempty"`
}

// ScannerManager runs the registered scanners
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[string]PrinterScanner
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScannerManager creates a scanner manager; timeout bounds each ScanAll
func NewScannerManager(logger *zap.Logger, timeout time.Duration) *ScannerManager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ScannerManager{
		scanners: make(map[string]PrinterScanner),
		timeout:  timeout,
		logger:   logger,
	}
}

// RegisterScanner registers a printer scanner under its type
func (sm *ScannerManager) RegisterScanner(scanner PrinterScanner) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner. A failing scanner is logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*DiscoveredPrinter, error) {
	ctx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()

	all := []*DiscoveredPrinter{}
	for _, scannerType := range sm.types() {
		scanner := sm.get(scannerType)
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		printers, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		all = append(all, printers...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("printers_found", len(printers)),
		)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	return all, nil
}

// ScanByType runs a single scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*DiscoveredPrinter, error) {
	scanner := sm.get(scannerType)
	if scanner == nil {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}

	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	ctx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()
	return scanner.Scan(ctx)
}

// GetAvailableScanners returns the registered scanner types that can run here
func (sm *ScannerManager) GetAvailableScanners() []string {
	available := []string{}
	for _, scannerType := range sm.types() {
		if sm.get(scannerType).IsAvailable() {
			available = append(available, scannerType)
		}
	}
	return available
}

func (sm *ScannerManager) get(scannerType string) PrinterScanner {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.scanners[scannerType]
}

func (sm *ScannerManager) types() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	types := make([]string, 0, len(sm.scanners))
	for scannerType := range sm.scanners {
		types = append(types, scannerType)
	}
	sort.Strings(types)
	return types
}
