// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/service"
	"print-bridge/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	printService *service.PrintService
	config       *config.Config
	startTime    time.Time
	logger       *utils.ServiceLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(printService *service.PrintService, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		printService: printService,
		config:       config,
		startTime:    time.Now(),
		logger:       utils.NewServiceLogger(logger, "health-handler"),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck reports service and printer state
// @Summary Health check
// @Description Service version, uptime, printer transport state and job counters
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is up"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	status := h.printService.PrinterStatus()
	check := CheckResult{
		Status:  "healthy",
		Message: h.printService.PrinterDescription(),
		Data: map[string]interface{}{
			"connection_type": status.ConnectionType,
			"connected":       status.Connected,
			"keep_open":       status.KeepOpen,
			"jobs_printed":    status.JobsPrinted,
			"jobs_failed":     status.JobsFailed,
			"retries":         status.Retries,
			"bytes_written":   status.BytesWritten,
		},
	}

	switch {
	case !h.printService.Ready():
		check.Status = "unhealthy"
		check.Message = "no printer configured"
		health.Status = "degraded"
	case status.LastError != "":
		check.Status = "degraded"
		check.Data["last_error"] = status.LastError
		health.Status = "degraded"
	}
	health.Checks["printer"] = check

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck reports whether jobs can be accepted
// @Summary Readiness check
// @Description Ready when a printer transport is configured
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if !h.printService.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "no printer configured",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"printer":   h.printService.PrinterDescription(),
		"timestamp": time.Now(),
	})
}

// LivenessCheck reports that the process is serving
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
