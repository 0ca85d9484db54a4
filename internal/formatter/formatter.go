// internal/formatter/formatter.go
package formatter

import (
	"fmt"
	"image"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/escpos"
	"print-bridge/internal/model"
	"print-bridge/internal/raster"
)

const printTimeLayout = "02/01/2006 15:04:05"

// Options holds the rendering parameters shared by all documents
type Options struct {
	ImageWidthDots int
	LogoMaxWidth   int
	QRSize         int
	FooterBrand    string
}

// OptionsFromConfig maps printer configuration to formatter options
func OptionsFromConfig(cfg *config.PrinterConfig) Options {
	return Options{
		ImageWidthDots: cfg.ImageWidthDots,
		LogoMaxWidth:   cfg.LogoMaxWidth,
		QRSize:         cfg.QRSize,
		FooterBrand:    cfg.FooterBrand,
	}
}

// Formatter renders documents and images into printer command streams.
// Every entry point returns printable bytes; failures become a printed notice.
type Formatter struct {
	logger *zap.Logger
	text   *escpos.TextEncoder
	raster *raster.Encoder
	opts   Options
	now    func() time.Time
}

// NewFormatter creates a formatter
func NewFormatter(logger *zap.Logger, text *escpos.TextEncoder, opts Options) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if text == nil {
		text = escpos.NewTextEncoder(nil)
	}
	if opts.ImageWidthDots <= 0 {
		opts.ImageWidthDots = raster.DefaultWidthDots
	}
	if opts.LogoMaxWidth <= 0 {
		opts.LogoMaxWidth = 200
	}
	if opts.QRSize <= 0 {
		opts.QRSize = raster.DefaultQRSize
	}

	logger = logger.With(zap.String("component", "formatter"))
	return &Formatter{
		logger: logger,
		text:   text,
		raster: raster.NewEncoder(logger, text),
		opts:   opts,
		now:    time.Now,
	}
}

// TextEncoder returns the encoder used for all text
func (f *Formatter) TextEncoder() *escpos.TextEncoder {
	return f.text
}

func (f *Formatter) newBuilder() *escpos.Builder {
	return escpos.NewBuilder(f.text)
}

// FormatImage prints a bitmap centered, then feeds and cuts
func (f *Formatter) FormatImage(img image.Image, openCash bool) []byte {
	b := f.newBuilder()
	b.Init().SelectCodepage().SetAlign(escpos.AlignCenter)
	b.AppendRaw(f.raster.Encode(img, f.opts.ImageWidthDots))
	b.SetAlign(escpos.AlignLeft).Feed(2).Cut()
	if openCash {
		b.KickCashDrawer()
	}
	return b.Bytes()
}

// FormatSelfTest prints the active codepage and a line of accented characters
func (f *Formatter) FormatSelfTest(width model.PaperWidth) []byte {
	p := ProfileFor(width)
	b := f.newBuilder()
	b.Init().SelectCodepage().SetAlign(escpos.AlignCenter)
	b.EmphasizedLine("PRUEBA DE IMPRESIÓN")
	b.SetAlign(escpos.AlignLeft).Separator(p.CharsPerLine)
	b.Line(fmt.Sprintf("Papel: %dmm  Columnas: %d", int(p.Width), p.CharsPerLine))
	b.Line("Codificación: " + f.text.Name())
	b.Line("áéíóú ÁÉÍÓÚ ñÑ üÜ ¿? ¡!")
	b.Line("Valor: " + FormatCurrency(decimal.NewFromInt(1234567)))
	b.Separator(p.CharsPerLine)
	b.Line("Impresión: " + f.now().Format(printTimeLayout))
	b.Feed(2).Cut()
	return b.Bytes()
}

// orderError is the printable notice for an order that could not be rendered
func (f *Formatter) orderError(message string) []byte {
	b := f.newBuilder()
	b.Init().SelectCodepage()
	b.Line("ERROR DE IMPRESIÓN")
	b.Line(message)
	b.Feed(2).Cut()
	return b.Bytes()
}

// saleError is the printable notice for a sale that could not be rendered
func (f *Formatter) saleError() []byte {
	b := f.newBuilder()
	b.Init().SelectCodepage().SetAlign(escpos.AlignCenter)
	b.EmphasizedLine("ERROR EN FACTURA")
	b.Line("No se pudo procesar")
	b.Line("la información de venta")
	b.LineFeed().FeedCut()
	return b.Bytes()
}
