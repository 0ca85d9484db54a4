// internal/model/printer.go
package model

// ConnectionType represents how the printer is connected
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// PrinterBrand represents known receipt printer vendors
type PrinterBrand string

const (
	BrandEpson   PrinterBrand = "EPSON"
	BrandStar    PrinterBrand = "STAR"
	BrandCitizen PrinterBrand = "CITIZEN"
	BrandBixolon PrinterBrand = "BIXOLON"
	BrandGeneric PrinterBrand = "GENERIC"
)

// PrinterStatus reports the transport state of the configured printer
type PrinterStatus struct {
	ConnectionType ConnectionType `json:"connection_type"`
	Connected      bool           `json:"connected"`
	KeepOpen       bool           `json:"keep_open"`
	JobsPrinted    int64          `json:"jobs_printed"`
	JobsFailed     int64          `json:"jobs_failed"`
	Retries        int64          `json:"retries"`
	BytesWritten   int64          `json:"bytes_written"`
	LastError      string         `json:"last_error,omitempty"`
}
