// internal/raster/encoder.go
package raster

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"print-bridge/internal/escpos"
)

// FallbackMessage is printed instead of an image that could not be encoded
const FallbackMessage = "ERROR DE IMPRESIÓN\nimage not printable\n\n"

// Mode selects how a bitmap is reduced to 1 bit
type Mode int

const (
	ModeDither Mode = iota
	ModeThreshold
)

// Encoder turns decoded bitmaps into raster frames
type Encoder struct {
	logger *zap.Logger
	text   *escpos.TextEncoder
}

// NewEncoder creates a raster encoder; text is used for the fallback message
func NewEncoder(logger *zap.Logger, text *escpos.TextEncoder) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if text == nil {
		text = escpos.NewTextEncoder(nil)
	}
	return &Encoder{logger: logger, text: text}
}

// Encode resizes, dithers, packs and frames img. It always returns printable
// bytes: failures yield the fallback message instead.
func (e *Encoder) Encode(img image.Image, targetWidthDots int) []byte {
	return e.EncodeMode(img, targetWidthDots, ModeDither)
}

// EncodeMode is Encode with an explicit reduction mode
func (e *Encoder) EncodeMode(img image.Image, targetWidthDots int, mode Mode) []byte {
	frame, err := e.TryEncode(img, targetWidthDots, mode)
	if err != nil {
		e.logger.Warn("Image not printable, sending fallback text", zap.Error(err))
		return e.Fallback()
	}
	return frame
}

// TryEncode is the fallible form of EncodeMode. Panics raised while
// processing the bitmap are converted to errors.
func (e *Encoder) TryEncode(img image.Image, targetWidthDots int, mode Mode) (frame []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			frame = nil
			err = fmt.Errorf("raster encoding panicked: %v", r)
		}
	}()

	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if targetWidthDots <= 0 {
		targetWidthDots = DefaultWidthDots
	}

	scaled := Resize(img, targetWidthDots)

	var mono *Monochrome
	switch mode {
	case ModeThreshold:
		mono = Threshold(scaled)
	default:
		mono = Halftone(scaled)
	}

	frame, err = Frame(mono)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Image encoded",
		zap.Int("source_width", img.Bounds().Dx()),
		zap.Int("source_height", img.Bounds().Dy()),
		zap.Int("width_dots", mono.Width),
		zap.Int("height_dots", mono.Height),
		zap.Int("bytes", len(frame)),
	)
	return frame, nil
}

// Fallback returns the encoded fallback message
func (e *Encoder) Fallback() []byte {
	return e.text.Encode(FallbackMessage)
}
