// internal/handler/print_handler.go
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-bridge/internal/formatter"
	"print-bridge/internal/model"
	"print-bridge/internal/printer"
	"print-bridge/internal/service"
	"print-bridge/internal/utils"
)

// formField carries the payload in urlencoded and multipart bodies
const formField = "data"

// PrintHandler accepts print jobs over HTTP
type PrintHandler struct {
	printService *service.PrintService
	logger       *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printService *service.PrintService, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printService: printService,
		logger:       utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers the versioned print routes
func (h *PrintHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/print", h.Print)
	router.POST("/print/test", h.PrintTest)
	router.GET("/printer", h.GetPrinterStatus)
}

// Print renders and prints an image or JSON document
// @Summary Print a job
// @Description Accepts a JSON order or sale document, a base64 image (optionally a data URI), raw image bytes, or a form field "data" holding either. JSON with order_data prints an order, sale_data/company_info prints a sale.
// @Tags Print
// @Accept json,plain,png,jpeg,x-www-form-urlencoded,mpfd
// @Produce json
// @Param paper_width query int false "Paper width for images" Enums(58, 80)
// @Param open_cash query bool false "Kick the cash drawer after an image"
// @Success 200 {object} utils.APIResponse{data=model.PrintResult} "Job printed"
// @Failure 400 {object} utils.APIResponse "Empty body or invalid base64"
// @Failure 413 {object} utils.APIResponse "Body too large"
// @Failure 429 {object} utils.APIResponse "Printer busy"
// @Failure 500 {object} utils.APIResponse "Image could not be decoded"
// @Failure 503 {object} utils.APIResponse "Printer unavailable"
// @Router /print [post]
func (h *PrintHandler) Print(c *gin.Context) {
	body, err := readPayload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	req := &service.PrintRequest{
		Body:      body,
		RequestID: utils.GetRequestID(c),
	}
	if raw := c.Query("paper_width"); raw != "" {
		if width, err := strconv.Atoi(raw); err == nil {
			req.PaperWidth = &width
		}
	}
	if raw, ok := c.GetQuery("open_cash"); ok {
		openCash := formatter.ParseFlag(raw)
		req.OpenCash = &openCash
	}

	result, err := h.printService.Print(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print job sent", result)
}

// PrintTest prints the codepage self-test page
// @Summary Print a test page
// @Description Prints accented characters, the active codepage and a currency sample
// @Tags Print
// @Produce json
// @Param paper_width query int false "Paper width" Enums(58, 80)
// @Success 200 {object} utils.APIResponse{data=model.PrintResult} "Test page printed"
// @Failure 429 {object} utils.APIResponse "Printer busy"
// @Failure 503 {object} utils.APIResponse "Printer unavailable"
// @Router /api/v1/print/test [post]
func (h *PrintHandler) PrintTest(c *gin.Context) {
	width := h.printService.DefaultPaperWidth()
	if raw := c.Query("paper_width"); raw != "" {
		if w, err := strconv.Atoi(raw); err == nil {
			width = model.NormalizePaperWidth(w)
		}
	}

	result, err := h.printService.PrintSelfTest(c.Request.Context(), width, utils.GetRequestID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Test page sent", result)
}

// GetPrinterStatus reports the configured transport
// @Summary Printer status
// @Description Transport type, connection state and job counters
// @Tags Print
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{printer=string,configured=bool,status=model.PrinterStatus}} "Printer status"
// @Router /api/v1/printer [get]
func (h *PrintHandler) GetPrinterStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", gin.H{
		"printer":    h.printService.PrinterDescription(),
		"configured": h.printService.Ready(),
		"status":     h.printService.PrinterStatus(),
	})
}

// respondError maps dispatcher and transport errors to HTTP statuses
func (h *PrintHandler) respondError(c *gin.Context, err error) {
	status, message := printErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Print request failed",
			zap.String("request_id", utils.GetRequestID(c)),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	utils.ErrorResponse(c, status, message, err)
}

func printErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyPayload):
		return http.StatusBadRequest, "Empty print payload"
	case errors.Is(err, service.ErrInvalidBase64):
		return http.StatusBadRequest, "Invalid base64 image"
	case errors.Is(err, service.ErrUndecodableImage):
		return http.StatusInternalServerError, "Image could not be decoded"
	case errors.Is(err, printer.ErrPrinterBusy):
		return http.StatusTooManyRequests, "Printer is busy, try again"
	case errors.Is(err, printer.ErrNotConfigured):
		return http.StatusServiceUnavailable, "No printer configured"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Print request cancelled"
	default:
		return http.StatusServiceUnavailable, "Printer unavailable"
	}
}

// readPayload returns the raw body, or the data field of a form body
func readPayload(c *gin.Context) ([]byte, error) {
	switch c.ContentType() {
	case gin.MIMEPOSTForm:
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		return []byte(values.Get(formField)), nil

	case gin.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		if values := form.Value[formField]; len(values) > 0 {
			return []byte(values[0]), nil
		}
		if files := form.File[formField]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return io.ReadAll(f)
		}
		return nil, nil

	default:
		return io.ReadAll(c.Request.Body)
	}
}
