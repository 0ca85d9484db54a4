// internal/service/print_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/formatter"
	"print-bridge/internal/model"
	"print-bridge/internal/printer"
	"print-bridge/internal/raster"
	"print-bridge/internal/utils"
)

var (
	// ErrEmptyPayload is returned when a print request carries no body
	ErrEmptyPayload = errors.New("empty print payload")
	// ErrInvalidBase64 is returned when a text body is neither JSON nor base64
	ErrInvalidBase64 = raster.ErrInvalidBase64
	// ErrUndecodableImage is returned when decoded bytes are not an image
	ErrUndecodableImage = raster.ErrUndecodableImage
)

// EventPublisher receives job lifecycle events
type EventPublisher interface {
	PublishJobEvent(event model.JobEvent)
}

// PrintService is the job dispatcher: it classifies a request body,
// renders it and hands the bytes to the printer manager
type PrintService struct {
	formatter *formatter.Formatter
	printer   *printer.Manager
	publisher EventPublisher
	config    *config.PrinterConfig
	logger    *utils.ServiceLogger
}

// NewPrintService creates a new print service
func NewPrintService(
	fmtr *formatter.Formatter,
	printerManager *printer.Manager,
	publisher EventPublisher,
	cfg *config.PrinterConfig,
	logger *zap.Logger,
) *PrintService {
	return &PrintService{
		formatter: fmtr,
		printer:   printerManager,
		publisher: publisher,
		config:    cfg,
		logger:    utils.NewServiceLogger(logger, "print-service"),
	}
}

// PrintRequest is an inbound print body plus optional query overrides
type PrintRequest struct {
	Body       []byte
	PaperWidth *int
	OpenCash   *bool
	RequestID  string
}

// ParseJob classifies and decodes a request into a print job
func (ps *PrintService) ParseJob(req *PrintRequest) (*model.PrintJob, error) {
	body := bytes.TrimSpace(req.Body)
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}

	job := &model.PrintJob{
		ID:         uuid.New(),
		PaperWidth: model.NormalizePaperWidth(ps.config.DefaultPaperWidth),
		ReceivedAt: time.Now(),
		RequestID:  req.RequestID,
	}

	if body[0] == '{' || body[0] == '[' {
		kind, doc := ClassifyDocument(body)
		job.Kind = kind
		job.Document = doc

		width, openCash := jobSettings(body)
		if width > 0 {
			job.PaperWidth = model.NormalizePaperWidth(width)
		}
		job.OpenCashDrawer = openCash
		return job, nil
	}

	img, err := decodeImageBody(body)
	if err != nil {
		return nil, err
	}
	job.Kind = model.DocumentKindImage
	job.Image = img
	if req.PaperWidth != nil {
		job.PaperWidth = model.NormalizePaperWidth(*req.PaperWidth)
	}
	if req.OpenCash != nil {
		job.OpenCashDrawer = *req.OpenCash
	}
	return job, nil
}

// decodeImageBody accepts raw image bytes, or base64 text with an optional data URI header
func decodeImageBody(body []byte) (image.Image, error) {
	if img, _, err := raster.DecodeImage(body); err == nil {
		return img, nil
	}

	data, err := raster.DecodeBase64(string(body))
	if err != nil {
		return nil, err
	}
	img, _, err := raster.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Render turns a job into the printer byte stream. The second result is
// true when the stream is a printed error notice instead of the document.
func (ps *PrintService) Render(job *model.PrintJob) ([]byte, bool) {
	switch job.Kind {
	case model.DocumentKindImage:
		return ps.formatter.FormatImage(job.Image, job.OpenCashDrawer), false
	case model.DocumentKindSale:
		_, ok := objectFields(job.Document)
		return ps.formatter.FormatSale(job.Document, job.PaperWidth, job.OpenCashDrawer), !ok
	default:
		_, ok := objectFields(job.Document)
		return ps.formatter.FormatOrder(job.Document, job.PaperWidth, job.OpenCashDrawer), !ok
	}
}

// Print parses, renders and delivers one request
func (ps *PrintService) Print(ctx context.Context, req *PrintRequest) (*model.PrintResult, error) {
	job, err := ps.ParseJob(req)
	if err != nil {
		ps.logger.Warn("Rejected print request",
			zap.String("request_id", req.RequestID),
			zap.Int("body_bytes", len(req.Body)),
			zap.Error(err),
		)
		return nil, err
	}
	return ps.Submit(ctx, job)
}

// PrintSelfTest prints the codepage test page
func (ps *PrintService) PrintSelfTest(ctx context.Context, width model.PaperWidth, requestID string) (*model.PrintResult, error) {
	job := &model.PrintJob{
		ID:         uuid.New(),
		Kind:       model.DocumentKindOrder,
		PaperWidth: width,
		ReceivedAt: time.Now(),
		RequestID:  requestID,
	}
	return ps.deliver(ctx, job, ps.formatter.FormatSelfTest(width), false)
}

// Submit renders a parsed job and delivers it
func (ps *PrintService) Submit(ctx context.Context, job *model.PrintJob) (*model.PrintResult, error) {
	data, fallback := ps.Render(job)
	if fallback {
		ps.logger.Warn("Document could not be parsed, printing error notice",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
		)
	}
	return ps.deliver(ctx, job, data, fallback)
}

func (ps *PrintService) deliver(ctx context.Context, job *model.PrintJob, data []byte, fallback bool) (*model.PrintResult, error) {
	jobLogger := utils.NewJobLogger(ps.logger.Logger, job.ID.String())
	jobLogger.Start(
		zap.String("kind", string(job.Kind)),
		zap.Int("paper_width", int(job.PaperWidth)),
		zap.Int("bytes", len(data)),
		zap.String("request_id", job.RequestID),
	)
	ps.publish(model.EventJobReceived, job, "INFO", map[string]interface{}{
		"kind":        job.Kind,
		"paper_width": job.PaperWidth,
		"bytes":       len(data),
	})

	started := time.Now()
	attempts, err := ps.printer.Print(ctx, job.ID, data)
	duration := time.Since(started)

	if err != nil {
		jobLogger.Error(err, zap.Int("attempts", attempts))
		ps.publish(model.EventJobFailed, job, "ERROR", map[string]interface{}{
			"kind":     job.Kind,
			"attempts": attempts,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("print job %s failed: %w", job.ID, err)
	}

	result := &model.PrintResult{
		JobID:      job.ID,
		Kind:       job.Kind,
		PaperWidth: job.PaperWidth,
		Bytes:      len(data),
		Attempts:   attempts,
		DurationMs: duration.Milliseconds(),
		Fallback:   fallback,
	}

	jobLogger.Success(zap.Int("attempts", attempts), zap.Bool("fallback", fallback))
	ps.publish(model.EventJobPrinted, job, "INFO", map[string]interface{}{
		"kind":        job.Kind,
		"bytes":       len(data),
		"attempts":    attempts,
		"duration_ms": result.DurationMs,
	})
	return result, nil
}

func (ps *PrintService) publish(eventType model.EventType, job *model.PrintJob, severity string, data map[string]interface{}) {
	if ps.publisher == nil {
		return
	}
	if job.RequestID != "" {
		data["request_id"] = job.RequestID
	}
	ps.publisher.PublishJobEvent(model.NewJobEvent(eventType, job.ID, severity, data))
}

// PrinterStatus reports the transport state
func (ps *PrintService) PrinterStatus() model.PrinterStatus {
	return ps.printer.Status()
}

// PrinterDescription names the configured transport
func (ps *PrintService) PrinterDescription() string {
	return ps.printer.Describe()
}

// Ready reports whether a printer transport is configured
func (ps *PrintService) Ready() bool {
	return ps.printer.Configured()
}

// DefaultPaperWidth returns the configured fallback width
func (ps *PrintService) DefaultPaperWidth() model.PaperWidth {
	return model.NormalizePaperWidth(ps.config.DefaultPaperWidth)
}
