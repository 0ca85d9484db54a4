// internal/formatter/order.go
package formatter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"print-bridge/internal/escpos"
	"print-bridge/internal/model"
)

// FormatOrder renders a preparation order. It never fails: malformed input
// produces a printed error notice.
func (f *Formatter) FormatOrder(doc []byte, width model.PaperWidth, openCash bool) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Order formatting panicked", zap.Any("panic", r))
			out = f.orderError(fmt.Sprintf("Error formateando orden: %v", r))
		}
	}()

	var rec OrderRecord
	if err := decodeDocument(doc, &rec); err != nil {
		f.logger.Warn("Invalid order document", zap.Error(err))
		return f.orderError("Error formateando orden: " + err.Error())
	}

	return f.renderOrder(&rec, ProfileFor(width), openCash)
}

func (f *Formatter) renderOrder(rec *OrderRecord, p PaperProfile, openCash bool) []byte {
	info := rec.info()
	b := f.newBuilder()

	b.Init().SelectCodepage().SetAlign(escpos.AlignCenter)

	// Header
	if client := rec.clientName(); client != "" {
		if p.Small() {
			b.EmphasizedLine(Truncate(client, p.CharsPerLine))
		} else {
			b.SetTitleMode(true).Line(client).SetTitleMode(false)
		}
	}
	if date := info.Date.String(); date != "" {
		b.Line(date)
	}
	if phone := info.Phone.String(); phone != "" {
		b.Line("CEL: " + phone)
	}
	if address := info.ShippingAddress.String(); address != "" {
		b.Line("DIRECCION: " + address)
	}

	// Items
	b.SetAlign(escpos.AlignLeft).Separator(p.CharsPerLine)
	if p.Small() {
		b.EmphasizedLine("CANT  ITEM")
	} else {
		b.EmphasizedLine("CANT     ITEM")
	}
	b.Separator(p.CharsPerLine)

	for i, product := range rec.Products {
		f.orderProduct(b, product, p)
		if i < len(rec.Products)-1 {
			b.LineFeed()
		}
	}
	b.Separator(p.CharsPerLine)

	if note := rec.note(); note != "" {
		b.EmphasizedLine("NOTA: " + strings.ToUpper(note))
		b.LineFeed()
	}

	// Footer
	b.Line("Atendido por: " + rec.attendant())
	printed := info.DatePrint.String()
	if printed == "" {
		printed = f.now().Format(printTimeLayout)
	}
	b.Line("Impresión: " + printed)
	b.EmphasizedLine("ORDEN: " + rec.orderID())

	b.LineFeed().Cut()
	if openCash {
		b.KickCashDrawer()
	}

	out := b.Bytes()
	f.logger.Debug("Order formatted",
		zap.Int("paper_width", int(p.Width)),
		zap.Int("products", len(rec.Products)),
		zap.Int("bytes", len(out)),
	)
	return out
}

func (f *Formatter) orderProduct(b *escpos.Builder, product ProductLine, p PaperProfile) {
	qty := fmt.Sprintf("%-2d", product.Qty())
	name := strings.ToUpper(product.DisplayName())

	if p.WrapItemNames {
		lines := WordWrap(name, p.MaxItemNameChars)
		b.SetEmphasis(true)
		b.Line(qty + "  " + lines[0])
		for _, cont := range lines[1:] {
			b.Line("    " + cont)
		}
		b.SetEmphasis(false)
	} else {
		b.SetTitleMode(true).Line(qty + "  " + name).SetTitleMode(false)
	}

	notes := product.Notes.String()
	if notes == "" {
		return
	}

	b.SetEmphasis(true)
	if p.Small() {
		for _, line := range WordWrap(notes, p.MaxNoteChars) {
			b.Line("  * " + strings.ToUpper(line))
		}
	} else {
		b.Line("    * " + strings.ToUpper(notes))
	}
	b.SetEmphasis(false)
}
