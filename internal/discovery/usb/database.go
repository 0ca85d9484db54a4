// internal/discovery/usb/database.go
package usb

import (
	"github.com/google/gousb"

	"print-bridge/internal/model"
)

// PrinterDatabase maps USB vendor and product IDs to known receipt printers
type PrinterDatabase struct {
	vendors map[gousb.ID]*VendorInfo
}

// VendorInfo describes an ESC/POS printer vendor
type VendorInfo struct {
	Brand    model.PrinterBrand
	Name     string
	products map[gousb.ID]*ProductInfo
}

// ProductInfo describes a specific printer model
type ProductInfo struct {
	Model        string
	Capabilities []string
	Confidence   float64
}

// NewPrinterDatabase returns the built-in vendor table
func NewPrinterDatabase() *PrinterDatabase {
	db := &PrinterDatabase{
		vendors: make(map[gousb.ID]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

func (db *PrinterDatabase) initializeDatabase() {
	db.AddVendor(0x04B8, &VendorInfo{Brand: model.BrandEpson, Name: "Seiko Epson Corporation"})
	db.AddProduct(0x04B8, 0x0202, &ProductInfo{
		Model:        "TM-T88IV",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.95,
	})
	db.AddProduct(0x04B8, 0x0E15, &ProductInfo{
		Model:        "TM-T20II",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.95,
	})
	db.AddProduct(0x04B8, 0x0E27, &ProductInfo{
		Model:        "TM-T20III",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.95,
	})
	db.AddProduct(0x04B8, 0x0E28, &ProductInfo{
		Model:        "TM-m30II",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.90,
	})

	// Star Micronics
	db.AddVendor(0x0519, &VendorInfo{Brand: model.BrandStar, Name: "Star Micronics Co., Ltd."})
	db.AddProduct(0x0519, 0x0003, &ProductInfo{
		Model:        "TSP100",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.90,
	})
	db.AddProduct(0x0519, 0x0047, &ProductInfo{
		Model:        "TSP100IV",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.90,
	})

	// Citizen ships under two vendor IDs
	db.AddVendor(0x1D90, &VendorInfo{Brand: model.BrandCitizen, Name: "Citizen Systems Japan Co., Ltd."})
	db.AddProduct(0x1D90, 0x2060, &ProductInfo{
		Model:        "CT-S310II",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.85,
	})
	db.AddVendor(0x2730, &VendorInfo{Brand: model.BrandCitizen, Name: "Citizen"})

	db.AddVendor(0x1504, &VendorInfo{Brand: model.BrandBixolon, Name: "BIXOLON Co., Ltd."})
	db.AddProduct(0x1504, 0x0006, &ProductInfo{
		Model:        "SRP-350plusIII",
		Capabilities: []string{"PRINT", "CUT", "DRAWER"},
		Confidence:   0.85,
	})
	db.AddProduct(0x1504, 0x0011, &ProductInfo{
		Model:        "SRP-275III",
		Capabilities: []string{"PRINT", "DRAWER"},
		Confidence:   0.80,
	})

	// Unbranded 58 mm printers commonly enumerate with these IDs
	db.AddVendor(0x0416, &VendorInfo{Brand: model.BrandGeneric, Name: "Winbond (POS-58 clones)"})
	db.AddProduct(0x0416, 0x5011, &ProductInfo{
		Model:        "POS-58",
		Capabilities: []string{"PRINT"},
		Confidence:   0.70,
	})
	db.AddVendor(0x0FE6, &VendorInfo{Brand: model.BrandGeneric, Name: "ICS Advent (POS-80 clones)"})
	db.AddProduct(0x0FE6, 0x811E, &ProductInfo{
		Model:        "POS-80",
		Capabilities: []string{"PRINT", "CUT"},
		Confidence:   0.70,
	})
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *PrinterDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// GetVendorInfo retrieves vendor information
func (db *PrinterDatabase) GetVendorInfo(vendorID gousb.ID) *VendorInfo {
	return db.vendors[vendorID]
}

// GetProductInfo retrieves product information from vendor
func (vi *VendorInfo) GetProductInfo(productID gousb.ID) *ProductInfo {
	return vi.products[productID]
}

// GetTotalProductCount returns total number of known products
func (db *PrinterDatabase) GetTotalProductCount() int {
	total := 0
	for _, vendor := range db.vendors {
		total += len(vendor.products)
	}
	return total
}

// AddVendor adds a new vendor to the database
func (db *PrinterDatabase) AddVendor(vendorID gousb.ID, info *VendorInfo) {
	if info.products == nil {
		info.products = make(map[gousb.ID]*ProductInfo)
	}
	db.vendors[vendorID] = info
}

// AddProduct adds a new product to an existing vendor
func (db *PrinterDatabase) AddProduct(vendorID, productID gousb.ID, info *ProductInfo) {
	if vendor, exists := db.vendors[vendorID]; exists {
		vendor.products[productID] = info
	}
}
