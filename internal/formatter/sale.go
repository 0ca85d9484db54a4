// internal/formatter/sale.go
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"print-bridge/internal/escpos"
	"print-bridge/internal/model"
	"print-bridge/internal/raster"
)

const (
	thankYouLine   = "¡Gracias por tu compra!"
	cufeLineWidth  = 32
	cufeMinWrapLen = 20
)

// FormatSale renders a sale invoice. It never fails: malformed input
// produces a printed error notice.
func (f *Formatter) FormatSale(doc []byte, width model.PaperWidth, openCash bool) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Sale formatting panicked", zap.Any("panic", r))
			out = f.saleError()
		}
	}()

	var rec SaleRecord
	if err := decodeDocument(doc, &rec); err != nil {
		f.logger.Warn("Invalid sale document", zap.Error(err))
		return f.saleError()
	}

	return f.renderSale(&rec, ProfileFor(width), openCash)
}

func (f *Formatter) renderSale(rec *SaleRecord, p PaperProfile, openCash bool) []byte {
	b := f.newBuilder()
	b.Init().SelectCodepage().SetAlign(escpos.AlignCenter)

	f.saleLogo(b, rec)
	f.saleCompany(b, rec)
	f.saleInfo(b, rec)
	f.saleClient(b, rec)
	f.saleProducts(b, rec, p)
	f.saleTotals(b, rec)
	f.saleAdditional(b, rec)
	f.saleFooter(b, rec)

	b.Feed(2).FeedCut()
	if openCash {
		b.KickCashDrawer()
	}

	out := b.Bytes()
	f.logger.Debug("Sale formatted",
		zap.Int("paper_width", int(p.Width)),
		zap.Int("products", len(rec.Products)),
		zap.Int("bytes", len(out)),
	)
	return out
}

func (f *Formatter) saleLogo(b *escpos.Builder, rec *SaleRecord) {
	if !rec.LogoBase64.Present() {
		return
	}

	img, err := raster.DecodeBase64Image(rec.LogoBase64.String())
	if err != nil {
		f.logger.Warn("Logo skipped", zap.Error(err))
		return
	}

	frame, err := f.raster.TryEncode(img, f.opts.LogoMaxWidth, raster.ModeDither)
	if err != nil {
		f.logger.Warn("Logo skipped", zap.Error(err))
		return
	}
	b.AppendRaw(frame).LineFeed()
}

func (f *Formatter) saleCompany(b *escpos.Builder, rec *SaleRecord) {
	company := rec.company()
	if company == nil {
		return
	}

	b.CenterBlock()
	if name := company.Name.String(); name != "" {
		b.EmphasizedLine(name)
	}
	if address := company.Address.String(); address != "" {
		b.Line("DIRECCIÓN: " + address)
	}
	if phone := company.Phone.String(); phone != "" {
		b.Line("CELULAR: " + phone)
	}
	if nit := company.Nit.String(); nit != "" {
		b.Line("NIT: " + nit)
	}
	b.LeftBlock()
	b.LineFeed()
}

func (f *Formatter) saleInfo(b *escpos.Builder, rec *SaleRecord) {
	if rec.SaleData == nil {
		return
	}
	b.SetAlign(escpos.AlignLeft)
	if billing := rec.SaleData.Billing.String(); billing != "" {
		b.EmphasizedLine("VENTA: " + billing)
	}
}

func (f *Formatter) saleClient(b *escpos.Builder, rec *SaleRecord) {
	if rec.ClientInfo == nil {
		return
	}
	b.SetAlign(escpos.AlignLeft)
	if name := rec.ClientInfo.Name.String(); name != "" {
		b.EmphasizedLine("CLIENTE: " + name)
	}
	if document := rec.ClientInfo.Document.String(); document != "" {
		b.EmphasizedLine("DOCUMENTO: " + document)
	}
	b.LineFeed()
}

func (f *Formatter) saleProducts(b *escpos.Builder, rec *SaleRecord, p PaperProfile) {
	if len(rec.Products) == 0 {
		return
	}

	cols := saleColumnsFor(p)
	b.SetAlign(escpos.AlignLeft).Separator(p.CharsPerLine)
	if p.Small() {
		b.EmphasizedLine("ITEM                  CANT VALOR")
	} else {
		b.EmphasizedLine(fmt.Sprintf("%-*s %*s %*s", cols.name, "ITEM", cols.qty, "CANT", cols.value, "VALOR"))
	}
	b.Separator(p.CharsPerLine)

	for _, product := range rec.Products {
		f.saleProduct(b, product, p, cols)
	}
	b.Separator(p.CharsPerLine)
}

// saleColumns are the rune widths of a product row; name fills what the
// quantity and value columns leave of the roll
type saleColumns struct {
	name, qty, value int
}

func saleColumnsFor(p PaperProfile) saleColumns {
	c := saleColumns{qty: 4, value: 12}
	if p.Small() {
		c = saleColumns{qty: 2, value: 8}
	}
	c.name = p.CharsPerLine - c.qty - c.value - 2
	return c
}

func (f *Formatter) saleProduct(b *escpos.Builder, product ProductLine, p PaperProfile, cols saleColumns) {
	name := strings.ToUpper(product.DisplayName())
	value := formatCurrencySimple(product.TotalValue.Decimal)
	indent := "    "
	if p.Small() {
		indent = "  "
	}

	// Oversized quantities and values borrow from the name column
	qty := strconv.Itoa(product.Qty())
	if len(qty) > cols.qty {
		cols.name -= len(qty) - cols.qty
		cols.qty = len(qty)
	}
	if len(value) > cols.value {
		cols.name -= len(value) - cols.value
		cols.value = len(value)
	}
	cols.name = max(cols.name, 1)

	lines := WordWrap(name, cols.name)
	b.SetEmphasis(true)
	b.Line(fmt.Sprintf("%-*s %*s %*s", cols.name, lines[0], cols.qty, qty, cols.value, value))
	for _, cont := range lines[1:] {
		b.Line(indent + cont)
	}
	b.SetEmphasis(false)

	if product.Discount.Positive() {
		b.Line(indent + "Descuento: -" + formatCurrencySimple(product.Discount.Decimal))
	}

	notes := product.Notes.String()
	if notes == "" {
		return
	}
	for _, line := range WordWrap(strings.ToUpper(notes), p.CharsPerLine-len(indent)-2) {
		b.Line(indent + "* " + line)
	}
}

func (f *Formatter) saleTotals(b *escpos.Builder, rec *SaleRecord) {
	t := rec.Totals
	if t == nil {
		return
	}

	b.SetAlign(escpos.AlignRight)
	if !t.SubTotal.Equal(t.TotalValue.Decimal) && t.SubTotal.Positive() {
		b.Line(fmt.Sprintf("SUBTOTAL: %12s", FormatCurrency(t.SubTotal.Decimal)))
	}
	if t.Discount.Positive() {
		b.Line(fmt.Sprintf("DESCUENTO: -%11s", FormatCurrency(t.Discount.Decimal)))
	}
	if t.TotalTaxValue.Positive() {
		b.Line(fmt.Sprintf("IMPUESTO: %12s", FormatCurrency(t.TotalTaxValue.Decimal)))
	}
	if t.TotalTip.Positive() {
		b.Line(fmt.Sprintf("PROPINA: %13s", FormatCurrency(t.TotalTip.Decimal)))
	}
	total := t.TotalValue.Add(t.TotalTip.Decimal)
	b.EmphasizedLine(fmt.Sprintf("TOTAL: %15s", FormatCurrency(total)))
	b.SetAlign(escpos.AlignLeft)
	b.LineFeed()
}

func (f *Formatter) saleAdditional(b *escpos.Builder, rec *SaleRecord) {
	b.SetAlign(escpos.AlignLeft)

	if rec.SaleData != nil {
		if observation := rec.SaleData.Observation.String(); observation != "" {
			b.EmphasizedLine("Nota: " + observation)
		}
	}

	if d := rec.DeliveryOrder; d != nil {
		if address := d.ShippingAddress.String(); address != "" {
			b.EmphasizedLine("Dirección: " + address)
		}
		if phone := d.Phone.String(); phone != "" {
			b.EmphasizedLine("Celular: " + phone)
		}
		if reference := d.ClientName.String(); reference != "" {
			b.EmphasizedLine("Referencia: " + reference)
		}
	}

	if rec.TableOrder != nil && rec.TableOrder.Table != nil {
		table := rec.TableOrder.Table
		name, number := table.Name.String(), table.TableNumber.String()
		if name != "" && number != "" {
			b.EmphasizedLine(name + ": " + number)
		}
	}

	switch len(rec.PaymentMethods) {
	case 0:
	case 1:
		b.EmphasizedLine("Forma de pago: " + rec.PaymentMethods[0].Name.String())
	default:
		b.EmphasizedLine("Formas de pago:")
		for _, method := range rec.PaymentMethods {
			b.Line(method.Name.String() + ": " + FormatCurrency(method.Amount.Decimal))
		}
	}
}

func (f *Formatter) saleFooter(b *escpos.Builder, rec *SaleRecord) {
	b.LineFeed()

	if rec.User != nil {
		b.Line("Atendido por: " + attendantName(rec.User, false))
	}
	b.Line("Impresión: " + f.now().Format(printTimeLayout))

	if rec.SaleData != nil {
		if id := rec.SaleData.ID.String(); id != "" {
			b.EmphasizedLine("VENTA: " + id)
		}
	}

	if rec.CufeQR.Present() {
		b.LineFeed()
		f.saleQR(b, rec.CufeQR.String())

		cufe := rec.CufeQR.String()
		if rec.Cufe.Present() {
			cufe = rec.Cufe.String()
		}
		b.LeftBlock()
		b.Line("CUFE: " + formatCufe(cufe))
	}

	b.CenterBlock()
	b.Line(thankYouLine)
	if f.opts.FooterBrand != "" {
		b.Line(f.opts.FooterBrand)
	}
}

func (f *Formatter) saleQR(b *escpos.Builder, content string) {
	img, err := raster.QRCode(content, f.opts.QRSize)
	if err != nil {
		f.logger.Warn("QR skipped", zap.Error(err))
		return
	}

	b.CenterBlock()
	b.AppendRaw(f.raster.EncodeMode(img, f.opts.ImageWidthDots, raster.ModeThreshold))
	b.LineFeed()
	b.LeftBlock()
}

// formatCufe wraps long fiscal identifiers at a fixed width for legibility
func formatCufe(cufe string) string {
	if len([]rune(cufe)) < cufeMinWrapLen {
		return cufe
	}
	return wrapFixed(cufe, cufeLineWidth)
}
