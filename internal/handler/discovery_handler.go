// internal/handler/discovery_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-bridge/internal/service"
	"print-bridge/internal/utils"
)

// DiscoveryHandler lists printers attached to this machine
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/printers", h.ListPrinters)
	router.GET("/printers/scanners", h.GetScanners)
}

// ListPrinters scans for printers
// @Summary List printers
// @Description USB printers (class 7 or a known ESC/POS vendor) and serial ports. connection_info holds values for the printer config section.
// @Tags Discovery
// @Produce json
// @Param type query string false "Scanner type" Enums(all, usb, serial) default(all)
// @Success 200 {object} utils.APIResponse{data=object{printers_found=int,printers=[]discovery.DiscoveredPrinter}} "Printer scan completed"
// @Failure 400 {object} utils.APIResponse "Unknown scanner type"
// @Router /api/v1/printers [get]
func (h *DiscoveryHandler) ListPrinters(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")
	if scanType != "all" && !h.isScanner(scanType) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unsupported scanner type: "+scanType, nil)
		return
	}

	printers, err := h.discoveryService.ScanPrinters(c.Request.Context(), scanType)
	if err != nil {
		h.logger.Error("Failed to scan printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", gin.H{
		"printers_found": len(printers),
		"printers":       printers,
	})
}

// GetScanners lists the scanners usable on this host
// @Summary Available scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{scanners=[]string}} "Scanners"
// @Router /api/v1/printers/scanners [get]
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Available scanners", gin.H{
		"scanners": h.discoveryService.AvailableScanners(),
	})
}

func (h *DiscoveryHandler) isScanner(scanType string) bool {
	for _, s := range h.discoveryService.AvailableScanners() {
		if s == scanType {
			return true
		}
	}
	return false
}
