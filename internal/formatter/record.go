// internal/formatter/record.go
package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotAnObject is returned for documents whose top level is not a JSON object
var ErrNotAnObject = errors.New("document is not a json object")

// Text is a lenient string: numbers and booleans keep their literal form, null is empty
type Text string

// UnmarshalJSON never fails; unsupported shapes decode to the empty string
func (t *Text) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		*t = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(s)
	case raw[0] == '{', raw[0] == '[':
		*t = ""
	default:
		*t = Text(raw)
	}
	return nil
}

// String returns the trimmed value
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Present reports a non-blank value that is not the literal "null"
func (t Text) Present() bool {
	s := t.String()
	return s != "" && !strings.EqualFold(s, "null")
}

// Amount is a lenient money value: numbers or numeric strings, anything else is zero
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON never fails; unparseable values decode to zero
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			a.Decimal = decimal.Zero
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d
	return nil
}

// Positive reports whether the amount is strictly above zero
func (a Amount) Positive() bool {
	return a.Decimal.GreaterThan(decimal.Zero)
}

// Quantity is a lenient item count; fractional values truncate and
// anything unparseable or beyond maxQuantity counts as one
type Quantity int

const maxQuantity = 1_000_000

// UnmarshalJSON never fails
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var a Amount
	_ = a.UnmarshalJSON(data)
	if a.Decimal.IsZero() && !isZeroLiteral(data) {
		*q = 1
		return nil
	}
	if a.Decimal.Abs().GreaterThan(decimal.NewFromInt(maxQuantity)) {
		*q = 1
		return nil
	}
	*q = Quantity(a.Decimal.IntPart())
	return nil
}

func isZeroLiteral(data []byte) bool {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == 0
}

// Flag is a lenient boolean accepting true/false, 1/0 and yes/si strings
type Flag bool

// UnmarshalJSON never fails; unknown values are false
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(ParseFlag(strings.Trim(strings.TrimSpace(string(data)), `"`)))
	return nil
}

// ParseFlag interprets a truthy string
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "si", "sí", "on":
		return true
	}
	return false
}

// UserInfo identifies the attendant
type UserInfo struct {
	Name     Text `json:"name"`
	Nickname Text `json:"nickname"`
}

// ClientInfo identifies the customer
type ClientInfo struct {
	Name     Text `json:"name"`
	Document Text `json:"document"`
}

// ProductLine is one line item of an order or sale
type ProductLine struct {
	Name       Text      `json:"name"`
	Quantity   *Quantity `json:"quantity"`
	TotalValue Amount    `json:"total_value"`
	Notes      Text      `json:"notes"`
	Discount   Amount    `json:"discount"`
}

// DisplayName defaults to "Producto"
func (p ProductLine) DisplayName() string {
	if name := p.Name.String(); name != "" {
		return name
	}
	return "Producto"
}

// Qty defaults to one
func (p ProductLine) Qty() int {
	if p.Quantity == nil {
		return 1
	}
	return int(*p.Quantity)
}

// PrintSettings carries per-document printing options
type PrintSettings struct {
	PaperWidth Text `json:"paper_width"`
}

// OrderInfo is the order_data block
type OrderInfo struct {
	ClientName      Text `json:"client_name"`
	Date            Text `json:"date"`
	Phone           Text `json:"phone"`
	ShippingAddress Text `json:"shipping_address"`
	Note            Text `json:"note"`
	OrderNumber     Text `json:"order_number"`
	ID              Text `json:"id"`
	DatePrint       Text `json:"date_print"`
}

// OrderRecord is the parsed view of a kitchen/preparation order document
type OrderRecord struct {
	OrderData   *OrderInfo    `json:"order_data"`
	ClientInfo  *ClientInfo   `json:"client_info"`
	Products    []ProductLine `json:"products"`
	User        *UserInfo     `json:"user"`
	GeneralNote Text          `json:"general_note"`
}

func (r *OrderRecord) info() OrderInfo {
	if r.OrderData == nil {
		return OrderInfo{}
	}
	return *r.OrderData
}

func (r *OrderRecord) clientName() string {
	if name := r.info().ClientName.String(); name != "" {
		return name
	}
	if r.ClientInfo != nil {
		return r.ClientInfo.Name.String()
	}
	return ""
}

func (r *OrderRecord) note() string {
	if note := r.info().Note.String(); note != "" {
		return note
	}
	return r.GeneralNote.String()
}

func (r *OrderRecord) attendant() string {
	return attendantName(r.User, true)
}

// orderID prefers order_number for delivery orders, then id, then order_number
func (r *OrderRecord) orderID() string {
	info := r.info()
	if info.ShippingAddress.String() != "" && info.OrderNumber.String() != "" {
		return info.OrderNumber.String()
	}
	if id := info.ID.String(); id != "" {
		return id
	}
	if n := info.OrderNumber.String(); n != "" {
		return n
	}
	return "1"
}

// CompanyInfo is the issuing business
type CompanyInfo struct {
	Name    Text `json:"name"`
	Address Text `json:"address"`
	Phone   Text `json:"phone"`
	Nit     Text `json:"nit"`
}

// SaleData is the sale_data block
type SaleData struct {
	Billing     Text `json:"billing"`
	Observation Text `json:"observation"`
	ID          Text `json:"id"`
}

// Totals is the totals block
type Totals struct {
	SubTotal      Amount `json:"sub_total"`
	Discount      Amount `json:"discount"`
	TotalTaxValue Amount `json:"total_tax_value"`
	TotalTip      Amount `json:"total_tip"`
	TotalValue    Amount `json:"total_value"`
}

// PaymentMethod is one tender used to settle the sale
type PaymentMethod struct {
	Name   Text   `json:"name"`
	Amount Amount `json:"amount"`
}

// DeliveryOrder carries shipping details
type DeliveryOrder struct {
	ShippingAddress Text `json:"shipping_address"`
	Phone           Text `json:"phone"`
	ClientName      Text `json:"client_name"`
}

// TableInfo identifies a restaurant table
type TableInfo struct {
	Name        Text `json:"name"`
	TableNumber Text `json:"table_number"`
}

// TableOrder wraps the table of a dine-in sale
type TableOrder struct {
	Table *TableInfo `json:"table"`
}

// SaleRecord is the parsed view of a sale/invoice document
type SaleRecord struct {
	CompanyInfo    *CompanyInfo    `json:"company_info"`
	Company        *CompanyInfo    `json:"company"`
	SaleData       *SaleData       `json:"sale_data"`
	ClientInfo     *ClientInfo     `json:"client_info"`
	Products       []ProductLine   `json:"products"`
	Totals         *Totals         `json:"totals"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	DeliveryOrder  *DeliveryOrder  `json:"delivery_order"`
	TableOrder     *TableOrder     `json:"table_order"`
	Cufe           Text            `json:"cufe"`
	CufeQR         Text            `json:"cufe_qr"`
	LogoBase64     Text            `json:"logo_base64"`
	User           *UserInfo       `json:"user"`
}

func (r *SaleRecord) company() *CompanyInfo {
	if r.CompanyInfo != nil {
		return r.CompanyInfo
	}
	return r.Company
}

// attendantName resolves who served the customer; nickname is only
// consulted when allowed, and "Sistema" stands in for nobody
func attendantName(u *UserInfo, useNickname bool) string {
	if u != nil {
		if name := u.Name.String(); name != "" {
			return name
		}
		if useNickname {
			if nick := u.Nickname.String(); nick != "" {
				return nick
			}
		}
	}
	return "Sistema"
}

// decodeDocument unmarshals a JSON object leniently: fields whose JSON type
// does not match are left empty instead of failing the whole document.
func decodeDocument(doc []byte, v interface{}) error {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotAnObject
	}

	err := json.Unmarshal(trimmed, v)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return err
	}
	return nil
}
