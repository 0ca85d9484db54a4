package serial

import (
	"testing"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"print-bridge/internal/model"
)

func TestPrintersFromPorts(t *testing.T) {
	s := NewScanner(zap.NewNop(), &Config{DefaultBaudRate: 19200, IncludeBuiltin: true})

	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "04b8", PID: "0202", SerialNumber: "X1", Product: "TM-T88IV"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
		{Name: "COM3"},
		{Name: ""},
		nil,
	}

	printers := s.printersFromPorts(ports)
	if len(printers) != 3 {
		t.Fatalf("got %d printers, want 3", len(printers))
	}

	epson := printers[0]
	if epson.Brand != model.BrandEpson || epson.Model != "TM-T88IV" || epson.SerialNumber != "X1" {
		t.Errorf("epson = %+v", epson)
	}
	if epson.ConnectionInfo["vendor_id"] != "0x04B8" || epson.ConnectionInfo["baud_rate"] != 19200 {
		t.Errorf("epson info = %v", epson.ConnectionInfo)
	}
	if epson.Confidence <= printers[1].Confidence {
		t.Error("known vendor should rank above an unknown USB serial adapter")
	}

	if printers[1].Brand != model.BrandGeneric || printers[1].Model != "Serial-ttyACM0" {
		t.Errorf("acm = %+v", printers[1])
	}
	if printers[2].ConnectionType != model.ConnectionTypeSerial || printers[2].Location != "COM3" {
		t.Errorf("com = %+v", printers[2])
	}
}

func TestPortBase(t *testing.T) {
	for in, want := range map[string]string{"/dev/ttyUSB1": "ttyUSB1", "COM4": "COM4"} {
		if got := portBase(in); got != want {
			t.Errorf("portBase(%q) = %q, want %q", in, got, want)
		}
	}
}
