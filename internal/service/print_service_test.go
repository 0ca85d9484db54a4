package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/escpos"
	"print-bridge/internal/formatter"
	"print-bridge/internal/model"
	"print-bridge/internal/printer"
	"print-bridge/internal/protocol"
)

type fakeTransport struct {
	mu       sync.Mutex
	open     bool
	writes   [][]byte
	writeErr error
}

func (f *fakeTransport) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeTransport) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) Write(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) GetProtocolType() model.ConnectionType { return model.ConnectionTypeTCP }
func (f *fakeTransport) Describe() string                      { return "fake" }
func (f *fakeTransport) GetStats() protocol.ProtocolStats      { return protocol.ProtocolStats{} }

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.JobEvent
}

func (r *recordingPublisher) PublishJobEvent(event model.JobEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

func newTestService(t *testing.T, transport protocol.PrinterProtocol) (*PrintService, *recordingPublisher) {
	t.Helper()
	cfg := &config.PrinterConfig{DefaultPaperWidth: 80, LockTimeout: time.Second}
	fmtr := formatter.NewFormatter(zap.NewNop(), escpos.NewTextEncoder([]string{"cp850"}), formatter.Options{})
	pub := &recordingPublisher{}
	svc := NewPrintService(fmtr, printer.NewManager(transport, cfg, zap.NewNop()), pub, cfg, zap.NewNop())
	return svc, pub
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 24, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestParseJobRejectsBadBodies(t *testing.T) {
	svc, _ := newTestService(t, &fakeTransport{})

	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty", "", ErrEmptyPayload},
		{"whitespace", " \n\t", ErrEmptyPayload},
		{"not base64", "not base64!!", ErrInvalidBase64},
		{"empty data uri", "data:image/png;base64,", ErrInvalidBase64},
		{"base64 of text", base64.StdEncoding.EncodeToString([]byte("hola mundo")), ErrUndecodableImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseJob(&PrintRequest{Body: []byte(tt.body)})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseJobImages(t *testing.T) {
	svc, _ := newTestService(t, &fakeTransport{})
	raw := pngBytes(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	bodies := map[string][]byte{
		"raw png":         raw,
		"base64":          []byte(encoded),
		"data uri":        []byte("data:image/png;base64," + encoded),
		"wrapped base64":  []byte(encoded[:10] + "\n" + encoded[10:] + "\n"),
		"unpadded base64": []byte(strings.TrimRight(encoded, "=")),
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			job, err := svc.ParseJob(&PrintRequest{Body: body})
			if err != nil {
				t.Fatalf("ParseJob: %v", err)
			}
			if job.Kind != model.DocumentKindImage || job.Image == nil {
				t.Errorf("job = %+v", job)
			}
			if job.PaperWidth != model.PaperWidth80 {
				t.Errorf("paper width = %d, want default 80", job.PaperWidth)
			}
		})
	}
}

func TestParseJobOverrides(t *testing.T) {
	svc, _ := newTestService(t, &fakeTransport{})

	job, err := svc.ParseJob(&PrintRequest{Body: pngBytes(t), PaperWidth: intPtr(58), OpenCash: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if job.PaperWidth != model.PaperWidth58 || !job.OpenCashDrawer {
		t.Errorf("image overrides not applied: %+v", job)
	}

	job, err = svc.ParseJob(&PrintRequest{
		Body:       []byte(`{"order_data":{},"print_settings":{"paper_width":58},"open_cash":"true"}`),
		PaperWidth: intPtr(80),
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.Kind != model.DocumentKindOrder || job.PaperWidth != model.PaperWidth58 || !job.OpenCashDrawer {
		t.Errorf("document settings not applied: %+v", job)
	}

	job, _ = svc.ParseJob(&PrintRequest{Body: []byte(`{"paper_width":76}`)})
	if job.PaperWidth != model.PaperWidth80 {
		t.Errorf("width 76 normalised to %d, want 80", job.PaperWidth)
	}
}

func TestPrintOrderDelivers(t *testing.T) {
	transport := &fakeTransport{}
	svc, pub := newTestService(t, transport)

	body := `{"order_data":{"client_name":"Maria","id":12},"products":[{"name":"arepa","quantity":2}],"print_settings":{"paper_width":58}}`
	result, err := svc.Print(context.Background(), &PrintRequest{Body: []byte(body), RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Print: %v", err)
	}

	if len(transport.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(transport.writes))
	}
	out := transport.writes[0]
	if result.Bytes != len(out) || result.Kind != model.DocumentKindOrder || result.PaperWidth != model.PaperWidth58 {
		t.Errorf("result = %+v, written %d bytes", result, len(out))
	}
	if result.Attempts != 1 || result.Fallback {
		t.Errorf("result = %+v", result)
	}
	if !bytes.HasPrefix(out, escpos.ESC_POS_COMMANDS.INITIALIZE) || !bytes.Contains(out, []byte("AREPA")) {
		t.Error("order stream missing init or product")
	}

	types := pub.types()
	if len(types) != 2 || types[0] != model.EventJobReceived || types[1] != model.EventJobPrinted {
		t.Errorf("events = %v", types)
	}
	if pub.events[0].Data["request_id"] != "req-1" {
		t.Errorf("request id not propagated: %v", pub.events[0].Data)
	}
}

func TestPrintSaleAndImage(t *testing.T) {
	transport := &fakeTransport{}
	svc, _ := newTestService(t, transport)

	result, err := svc.Print(context.Background(), &PrintRequest{
		Body: []byte(`{"data_json":{"company_info":{"name":"Tienda"},"totals":{"total_value":59000}}}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Kind != model.DocumentKindSale {
		t.Errorf("kind = %s, want SALE", result.Kind)
	}
	if !bytes.Contains(transport.writes[0], []byte("$59,000")) {
		t.Error("sale total missing from stream")
	}

	result, err = svc.Print(context.Background(), &PrintRequest{Body: pngBytes(t), OpenCash: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Kind != model.DocumentKindImage {
		t.Errorf("kind = %s, want IMAGE", result.Kind)
	}
	img := transport.writes[1]
	if !bytes.Contains(img, escpos.ESC_POS_COMMANDS.RASTER_IMAGE) || !bytes.HasSuffix(img, escpos.ESC_POS_COMMANDS.DRAWER_KICK) {
		t.Error("image stream missing raster frame or drawer kick")
	}
}

func TestPrintMalformedDocumentPrintsNotice(t *testing.T) {
	transport := &fakeTransport{}
	svc, _ := newTestService(t, transport)

	result, err := svc.Print(context.Background(), &PrintRequest{Body: []byte(`{"order_data": nope`)})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Fallback {
		t.Error("fallback flag not set")
	}
	if !bytes.Contains(transport.writes[0], []byte("ERROR")) {
		t.Error("error notice missing from stream")
	}
}

func TestPrintTransportFailure(t *testing.T) {
	boom := errors.New("pipe broken")
	svc, pub := newTestService(t, &fakeTransport{writeErr: boom})

	_, err := svc.Print(context.Background(), &PrintRequest{Body: []byte(`{"order_data":{}}`)})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped transport error", err)
	}

	types := pub.types()
	if len(types) != 2 || types[1] != model.EventJobFailed {
		t.Errorf("events = %v", types)
	}
	if attempts := pub.events[1].Data["attempts"]; attempts != 2 {
		t.Errorf("attempts = %v, want 2", attempts)
	}
}

func TestPrintNotConfigured(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if svc.Ready() {
		t.Error("service without transport reports ready")
	}

	_, err := svc.Print(context.Background(), &PrintRequest{Body: []byte(`{}`)})
	if !errors.Is(err, printer.ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPrintSelfTest(t *testing.T) {
	transport := &fakeTransport{}
	svc, _ := newTestService(t, transport)

	result, err := svc.PrintSelfTest(context.Background(), model.PaperWidth58, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.PaperWidth != model.PaperWidth58 || len(transport.writes) != 1 {
		t.Errorf("result = %+v", result)
	}
	if !bytes.Contains(transport.writes[0], []byte("PRUEBA")) {
		t.Error("self test heading missing")
	}
}
