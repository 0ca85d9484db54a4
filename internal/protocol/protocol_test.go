package protocol

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/model"
)

func TestOpenWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	transient := errors.New("access denied")

	err := openWithRetry(context.Background(), 5, time.Millisecond, zap.NewNop(),
		func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		},
		func(err error) bool { return errors.Is(err, transient) },
	)
	if err != nil {
		t.Fatalf("openWithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestOpenWithRetryExhaustion(t *testing.T) {
	calls := 0
	err := openWithRetry(context.Background(), 4, time.Millisecond, zap.NewNop(),
		func() error { calls++; return gousb.ErrorAccess },
		isTransientUSBError,
	)
	if !errors.Is(err, ErrPermissionTimeout) {
		t.Fatalf("error = %v, want ErrPermissionTimeout", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want exactly the attempt cap", calls)
	}
}

func TestOpenWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := openWithRetry(context.Background(), 10, time.Millisecond, zap.NewNop(),
		func() error { calls++; return ErrDeviceNotFound },
		isTransientUSBError,
	)
	if !errors.Is(err, ErrDeviceNotFound) || calls != 1 {
		t.Errorf("error = %v after %d calls, want ErrDeviceNotFound after 1", err, calls)
	}
}

func TestOpenWithRetryIsCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := openWithRetry(ctx, 1000, time.Hour, zap.NewNop(),
		func() error {
			calls++
			cancel()
			return gousb.ErrorBusy
		},
		isTransientUSBError,
	)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestParseHexID(t *testing.T) {
	tests := []struct {
		in      string
		want    gousb.ID
		wantErr bool
	}{
		{"04b8", 0x04b8, false},
		{"0x0519", 0x0519, false},
		{"0X1FC9", 0x1fc9, false},
		{" 0416 ", 0x0416, false},
		{"xyz", 0, true},
		{"123456", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseHexID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsPrinterClass(t *testing.T) {
	printer := &gousb.DeviceDesc{
		Configs: map[int]gousb.ConfigDesc{
			1: {Interfaces: []gousb.InterfaceDesc{
				{AltSettings: []gousb.InterfaceSetting{{Class: gousb.ClassPrinter}}},
			}},
		},
	}
	keyboard := &gousb.DeviceDesc{
		Configs: map[int]gousb.ConfigDesc{
			1: {Interfaces: []gousb.InterfaceDesc{
				{AltSettings: []gousb.InterfaceSetting{{Class: gousb.ClassHID}}},
			}},
		},
	}

	if !IsPrinterClass(printer) {
		t.Error("class 7 interface should match")
	}
	if IsPrinterClass(keyboard) {
		t.Error("HID device should not match")
	}
}

func TestBulkOutEndpoint(t *testing.T) {
	setting := gousb.InterfaceSetting{
		Endpoints: map[gousb.EndpointAddress]gousb.EndpointDesc{
			0x81: {Number: 1, Direction: gousb.EndpointDirectionIn, TransferType: gousb.TransferTypeBulk},
			0x03: {Number: 3, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeBulk},
			0x02: {Number: 2, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeInterrupt},
		},
	}
	if got := bulkOutEndpoint(setting); got != 3 {
		t.Errorf("bulkOutEndpoint() = %d, want 3", got)
	}
	if got := bulkOutEndpoint(gousb.InterfaceSetting{}); got != 1 {
		t.Errorf("bulkOutEndpoint(empty) = %d, want 1", got)
	}
}

// stubEndpoint accepts up to n bytes of each transfer, then returns err
type stubEndpoint struct {
	n        int
	err      error
	received []byte
}

func (s *stubEndpoint) WriteContext(ctx context.Context, data []byte) (int, error) {
	n := s.n
	if n > len(data) {
		n = len(data)
	}
	s.received = append(s.received, data[:n]...)
	return n, s.err
}

func openUSBWith(endpoint bulkWriter) *USBConnection {
	return &USBConnection{
		config:   &USBConfig{WriteTimeout: time.Second},
		logger:   zap.NewNop(),
		stats:    &ProtocolStats{},
		isOpen:   true,
		outEndpt: endpoint,
	}
}

func TestUSBWriteClassifiesBytesOnTheWire(t *testing.T) {
	stall := errors.New("libusb: pipe error")
	doc := []byte("RECEIPT-0123456789")

	tests := []struct {
		name        string
		accepted    int
		err         error
		wantPartial bool
		wantErr     error
	}{
		{"complete", len(doc), nil, false, nil},
		{"error after bytes sent", 9, stall, true, stall},
		{"short write without error", 9, nil, true, nil},
		{"error before any byte", 0, stall, false, stall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := &stubEndpoint{n: tt.accepted, err: tt.err}
			err := openUSBWith(ep).Write(context.Background(), doc)

			if tt.wantErr == nil && !tt.wantPartial {
				if err != nil {
					t.Fatalf("Write() error = %v", err)
				}
				return
			}
			if got := errors.Is(err, ErrPartialWrite); got != tt.wantPartial {
				t.Errorf("errors.Is(%v, ErrPartialWrite) = %v, want %v", err, got, tt.wantPartial)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want it to wrap %v", err, tt.wantErr)
			}
			if !bytes.Equal(ep.received, doc[:tt.accepted]) {
				t.Errorf("device received %q", ep.received)
			}
		})
	}
}

func TestWriteOutcome(t *testing.T) {
	reset := errors.New("connection reset")

	tests := []struct {
		n, want     int
		err         error
		wantPartial bool
		wantNil     bool
	}{
		{10, 10, nil, false, true},
		{4, 10, nil, true, false},
		{4, 10, reset, true, false},
		{10, 10, reset, true, false},
		{0, 10, reset, false, false},
	}

	for _, tt := range tests {
		got := writeOutcome(tt.n, tt.want, tt.err)
		if (got == nil) != tt.wantNil {
			t.Errorf("writeOutcome(%d, %d, %v) = %v", tt.n, tt.want, tt.err, got)
			continue
		}
		if errors.Is(got, ErrPartialWrite) != tt.wantPartial {
			t.Errorf("writeOutcome(%d, %d, %v) = %v, partial want %v", tt.n, tt.want, tt.err, got, tt.wantPartial)
		}
		if tt.err != nil && !errors.Is(got, tt.err) {
			t.Errorf("writeOutcome(%d, %d, %v) lost the cause: %v", tt.n, tt.want, tt.err, got)
		}
	}
}

func TestCreateProtocol(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PrinterConfig
		want    model.ConnectionType
		wantErr bool
	}{
		{"usb auto", config.PrinterConfig{ConnectionType: "usb"}, model.ConnectionTypeUSB, false},
		{"usb ids", config.PrinterConfig{ConnectionType: "USB", USB: config.USBPortConfig{VendorID: "0x04b8", ProductID: "0e15"}}, model.ConnectionTypeUSB, false},
		{"usb half ids", config.PrinterConfig{ConnectionType: "USB", USB: config.USBPortConfig{VendorID: "04b8"}}, "", true},
		{"usb bad id", config.PrinterConfig{ConnectionType: "USB", USB: config.USBPortConfig{VendorID: "zz", ProductID: "01"}}, "", true},
		{"serial", config.PrinterConfig{ConnectionType: "SERIAL", Serial: config.SerialPortConfig{Port: "/dev/ttyUSB0", BaudRate: 19200}}, model.ConnectionTypeSerial, false},
		{"serial no port", config.PrinterConfig{ConnectionType: "SERIAL"}, "", true},
		{"serial bad baud", config.PrinterConfig{ConnectionType: "SERIAL", Serial: config.SerialPortConfig{Port: "COM3", BaudRate: 1234}}, "", true},
		{"tcp", config.PrinterConfig{ConnectionType: "TCP", TCP: config.TCPPortConfig{Host: "10.0.0.7"}}, model.ConnectionTypeTCP, false},
		{"tcp no host", config.PrinterConfig{ConnectionType: "TCP"}, "", true},
		{"bluetooth", config.PrinterConfig{ConnectionType: "BLUETOOTH"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CreateProtocol(&tt.cfg, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateProtocol() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.GetProtocolType() != tt.want {
				t.Errorf("type = %s, want %s", p.GetProtocolType(), tt.want)
			}
			if p.IsOpen() {
				t.Error("a new transport should start closed")
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	auto, _ := CreateProtocol(&config.PrinterConfig{ConnectionType: "USB"}, zap.NewNop())
	if auto.Describe() != "usb:auto" {
		t.Errorf("Describe() = %q", auto.Describe())
	}
	tcp, _ := CreateProtocol(&config.PrinterConfig{ConnectionType: "TCP", TCP: config.TCPPortConfig{Host: "10.0.0.7"}}, zap.NewNop())
	if tcp.Describe() != "tcp:10.0.0.7:9100" {
		t.Errorf("Describe() = %q", tcp.Describe())
	}
}

func TestWriteBeforeOpen(t *testing.T) {
	transports := []PrinterProtocol{
		NewUSBConnection(&USBConfig{}, zap.NewNop()),
		NewSerialConnection(&SerialConfig{Port: "/dev/null"}, zap.NewNop()),
		NewTCPConnection(&TCPConfig{Host: "127.0.0.1", Port: 9}, zap.NewNop()),
	}
	for _, p := range transports {
		if err := p.Write(context.Background(), []byte{0x1B, 0x40}); !errors.Is(err, ErrNotOpen) {
			t.Errorf("%s: Write() error = %v, want ErrNotOpen", p.Describe(), err)
		}
		if err := p.Close(); err != nil {
			t.Errorf("%s: Close() on a closed transport = %v", p.Describe(), err)
		}
	}
}

func TestTCPConnectionWritesVerbatim(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	addr := ln.Addr().(*net.TCPAddr)
	conn := NewTCPConnection(&TCPConfig{
		Host:           "127.0.0.1",
		Port:           addr.Port,
		ConnectTimeout: time.Second,
		WriteTimeout:   time.Second,
	}, zap.NewNop())

	if err := conn.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	payload := []byte{0x1B, 0x40, 'h', 'o', 'l', 'a', 0x0A, 0x1D, 0x56, 0x00}
	if err := conn.Write(context.Background(), payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	stats := conn.GetStats()
	if stats.BytesWritten != int64(len(payload)) || stats.OperationCount != 1 || !stats.IsConnected {
		t.Errorf("stats = %+v", stats)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, payload) {
			t.Errorf("printer received % X, want % X", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener never received the payload")
	}
}

func TestTCPConnectionOpenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	conn := NewTCPConnection(&TCPConfig{Host: "127.0.0.1", Port: port, ConnectTimeout: time.Second}, zap.NewNop())
	if err := conn.Open(context.Background()); err == nil {
		conn.Close()
		t.Fatal("Open() on a closed port should fail")
	}
	if conn.IsOpen() {
		t.Error("failed open should leave the transport closed")
	}
}
