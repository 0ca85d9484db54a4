package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"go.uber.org/zap"

	"print-bridge/internal/escpos"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}
	return img
}

func TestResizeIdentityWhenNarrowEnough(t *testing.T) {
	for _, w := range []int{1, 100, 383, 384} {
		img := solid(w, 17, color.White)
		out := Resize(img, 384)
		if out != image.Image(img) {
			t.Errorf("width %d: Resize should return the input unchanged", w)
		}
		if out.Bounds().Dx() != w || out.Bounds().Dy() != 17 {
			t.Errorf("width %d: got %v", w, out.Bounds())
		}
	}
}

func TestResizePreservesAspectRatio(t *testing.T) {
	sizes := []struct{ w, h int }{
		{800, 600},
		{1000, 333},
		{385, 1},
		{4000, 3000},
		{640, 2000},
	}

	for _, s := range sizes {
		out := Resize(solid(s.w, s.h, color.Black), 384)
		b := out.Bounds()
		if b.Dx() > 384 {
			t.Errorf("%dx%d: width %d exceeds target", s.w, s.h, b.Dx())
		}
		want := float64(s.h) * 384 / float64(s.w)
		if math.Abs(float64(b.Dy())-want) > 1 {
			t.Errorf("%dx%d: height %d, want %.2f +/- 1", s.w, s.h, b.Dy(), want)
		}
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want float64
	}{
		{"black", color.Black, 0},
		{"white", color.White, 255},
		{"red", color.RGBA{R: 255, A: 255}, 0.299 * 255},
		{"green", color.RGBA{G: 255, A: 255}, 0.587 * 255},
		{"transparent is paper", color.RGBA{}, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Luminance(tt.c); math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Luminance() = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestHalftoneIdempotentOnBinaryInput(t *testing.T) {
	first := Halftone(checkerboard(37, 23))
	second := Halftone(first.Image())

	if first.Width != second.Width || first.Height != second.Height {
		t.Fatalf("dimensions changed: %dx%d -> %dx%d", first.Width, first.Height, second.Width, second.Height)
	}
	for i := range first.Black {
		if first.Black[i] != second.Black[i] {
			t.Fatalf("pixel %d changed on second pass", i)
		}
	}
}

func TestHalftoneMidGrayIsRoughlyHalfBlack(t *testing.T) {
	m := Halftone(solid(64, 64, color.Gray{Y: 128}))
	black := 0
	for _, b := range m.Black {
		if b {
			black++
		}
	}
	ratio := float64(black) / float64(len(m.Black))
	if ratio < 0.4 || ratio > 0.6 {
		t.Errorf("black ratio = %.2f, want about 0.5", ratio)
	}
}

func TestHalftoneDiffusesError(t *testing.T) {
	// A uniform light gray never reaches the threshold on its own,
	// so any black dot proves error diffusion happened
	m := Halftone(solid(16, 16, color.Gray{Y: 200}))
	black := 0
	for _, b := range m.Black {
		if b {
			black++
		}
	}
	if black == 0 || black == len(m.Black) {
		t.Errorf("expected a mix of dots, got %d black of %d", black, len(m.Black))
	}
}

func TestThreshold(t *testing.T) {
	m := Threshold(checkerboard(4, 2))
	want := []bool{
		false, true, false, true,
		true, false, true, false,
	}
	for i := range want {
		if m.Black[i] != want[i] {
			t.Fatalf("Black = %v, want %v", m.Black, want)
		}
	}
}

func TestPackMSBFirstWithPadding(t *testing.T) {
	m := NewMonochrome(10, 2)
	m.Black[0] = true    // row 0, x=0
	m.Black[9] = true    // row 0, x=9
	m.Black[10+7] = true // row 1, x=7
	m.Black[10+8] = true // row 1, x=8

	got := m.Pack()
	want := []byte{0x80, 0x40, 0x01, 0x80}
	if !bytes.Equal(got, want) {
		t.Errorf("Pack() = % X, want % X", got, want)
	}
}

func TestFrameHeaderMatchesPayload(t *testing.T) {
	sizes := []struct{ w, h int }{
		{1, 1}, {8, 3}, {9, 5}, {384, 10}, {300, 257},
	}

	for _, s := range sizes {
		m := NewMonochrome(s.w, s.h)
		frame, err := Frame(m)
		if err != nil {
			t.Fatalf("%dx%d: Frame() error = %v", s.w, s.h, err)
		}

		if !bytes.HasPrefix(frame, []byte{0x1D, 0x76, 0x30, 0x00}) {
			t.Fatalf("%dx%d: bad prefix % X", s.w, s.h, frame[:4])
		}
		widthBytes := int(frame[4]) | int(frame[5])<<8
		height := int(frame[6]) | int(frame[7])<<8
		if widthBytes != (s.w+7)/8 || height != s.h {
			t.Errorf("%dx%d: header declares %d bytes x %d dots", s.w, s.h, widthBytes, height)
		}
		if payload := len(frame) - 8; payload != widthBytes*height {
			t.Errorf("%dx%d: payload %d, want %d", s.w, s.h, payload, widthBytes*height)
		}
	}
}

func TestFrameRejectsEmpty(t *testing.T) {
	if _, err := Frame(NewMonochrome(0, 5)); err != ErrEmptyImage {
		t.Errorf("Frame(0x5) error = %v, want ErrEmptyImage", err)
	}
	if _, err := Frame(nil); err != ErrEmptyImage {
		t.Errorf("Frame(nil) error = %v, want ErrEmptyImage", err)
	}
}

func TestEncoderScalesToTarget(t *testing.T) {
	enc := NewEncoder(zap.NewNop(), nil)
	frame := enc.Encode(solid(500, 100, color.Black), 384)

	widthBytes := int(frame[4]) | int(frame[5])<<8
	height := int(frame[6]) | int(frame[7])<<8
	if widthBytes != 48 || height != 77 {
		t.Errorf("header = %d bytes x %d dots, want 48 x 77", widthBytes, height)
	}
	if len(frame) != 8+48*77 {
		t.Errorf("len = %d, want %d", len(frame), 8+48*77)
	}
	for _, b := range frame[8:] {
		if b != 0xFF {
			t.Fatalf("solid black should pack to 0xFF, got %02X", b)
		}
	}
}

func TestEncoderFallbackNeverEmpty(t *testing.T) {
	enc := NewEncoder(zap.NewNop(), escpos.NewTextEncoder([]string{"none"}))

	inputs := map[string]image.Image{
		"nil":       nil,
		"zero size": image.NewRGBA(image.Rect(0, 0, 0, 0)),
		"zero rows": image.NewRGBA(image.Rect(0, 0, 10, 0)),
	}
	for name, img := range inputs {
		t.Run(name, func(t *testing.T) {
			out := enc.Encode(img, 384)
			if len(out) == 0 {
				t.Fatal("Encode() returned no bytes")
			}
			if !bytes.Contains(out, []byte("image not printable")) {
				t.Errorf("Encode() = %q, want fallback message", out)
			}
		})
	}
}

type panickyImage struct{ image.Rectangle }

func (p panickyImage) ColorModel() color.Model { return color.RGBAModel }
func (p panickyImage) Bounds() image.Rectangle { return p.Rectangle }
func (p panickyImage) At(x, y int) color.Color { panic("corrupt pixel data") }

func TestEncoderRecoversFromPanics(t *testing.T) {
	enc := NewEncoder(zap.NewNop(), nil)
	img := panickyImage{image.Rect(0, 0, 4, 4)}

	if _, err := enc.TryEncode(img, 384, ModeDither); err == nil {
		t.Error("TryEncode() should report the panic as an error")
	}
	if out := enc.Encode(img, 384); !bytes.Contains(out, []byte("image not printable")) {
		t.Errorf("Encode() = %q, want fallback message", out)
	}
}

func TestQRCode(t *testing.T) {
	img, err := QRCode("https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey=abc123", 120)
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Errorf("bounds = %v, want 120x120", b)
	}

	frame := NewEncoder(zap.NewNop(), nil).EncodeMode(img, 384, ModeThreshold)
	if !bytes.HasPrefix(frame, []byte{0x1D, 0x76, 0x30, 0x00, 15, 0, 120, 0}) {
		t.Errorf("QR frame header = % X", frame[:8])
	}
}

func TestQRCodeTooSmallKeepsNativeSize(t *testing.T) {
	img, err := QRCode("x", 5)
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}
	if img.Bounds().Dx() < 21 {
		t.Errorf("bounds = %v, want native symbol size", img.Bounds())
	}
}

func TestDecodeBase64(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(3, 2, color.Black)); err != nil {
		t.Fatal(err)
	}
	std := base64.StdEncoding.EncodeToString(buf.Bytes())
	raw := base64.RawStdEncoding.EncodeToString(buf.Bytes())

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"plain", std, nil},
		{"data uri", "data:image/png;base64," + std, nil},
		{"wrapped lines", std[:10] + "\n" + std[10:20] + "\r\n " + std[20:], nil},
		{"unpadded", raw, nil},
		{"garbage", "not*base64!", ErrInvalidBase64},
		{"uri without comma", "data:image/png;base64", ErrInvalidBase64},
		{"empty", "   ", ErrInvalidBase64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeBase64Image(tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeBase64Image() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
				t.Errorf("bounds = %v, want 3x2", b)
			}
		})
	}
}

func TestDecodeImageRejectsUnknownFormat(t *testing.T) {
	_, err := DecodeBase64Image(base64.StdEncoding.EncodeToString([]byte("plain text, not an image")))
	if !errors.Is(err, ErrUndecodableImage) {
		t.Errorf("error = %v, want ErrUndecodableImage", err)
	}
}
