package formatter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTextAcceptsAnyScalar(t *testing.T) {
	var doc struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
		E Text `json:"e"`
	}
	raw := `{"a":"  hola ","b":123,"c":true,"d":null,"e":{"x":1}}`
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if doc.A.String() != "hola" || doc.B.String() != "123" || doc.C.String() != "true" {
		t.Errorf("got (%q, %q, %q)", doc.A, doc.B, doc.C)
	}
	if doc.D.String() != "" || doc.E.String() != "" {
		t.Errorf("null and objects should be empty, got (%q, %q)", doc.D, doc.E)
	}
}

func TestTextPresent(t *testing.T) {
	for _, v := range []Text{"", "   ", "null", "NULL"} {
		if v.Present() {
			t.Errorf("Text(%q).Present() = true", v)
		}
	}
	if !Text("abc").Present() {
		t.Error(`Text("abc").Present() = false`)
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want decimal.Decimal
	}{
		{`59000`, decimal.NewFromInt(59000)},
		{`"9000"`, decimal.NewFromInt(9000)},
		{`1000.5`, decimal.NewFromFloat(1000.5)},
		{`" 12.25 "`, decimal.RequireFromString("12.25")},
		{`"abc"`, decimal.Zero},
		{`null`, decimal.Zero},
		{`true`, decimal.Zero},
	}

	for _, tt := range tests {
		var a Amount
		if err := a.UnmarshalJSON([]byte(tt.raw)); err != nil {
			t.Fatalf("%s: error = %v", tt.raw, err)
		}
		if !a.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.raw, a.Decimal, tt.want)
		}
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"quantity":2}`, 2},
		{`{"quantity":"3"}`, 3},
		{`{"quantity":2.7}`, 2},
		{`{"quantity":0}`, 0},
		{`{"quantity":"x"}`, 1},
		{`{"quantity":null}`, 1},
		{`{}`, 1},
		{`{"quantity":1000000}`, 1000000},
		{`{"quantity":1e30}`, 1},
		{`{"quantity":"-9e25"}`, 1},
	}

	for _, tt := range tests {
		var p ProductLine
		if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
			t.Fatalf("%s: error = %v", tt.raw, err)
		}
		if got := p.Qty(); got != tt.want {
			t.Errorf("%s: Qty() = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "si", "sí", "yes", " on "} {
		if !ParseFlag(s) {
			t.Errorf("ParseFlag(%q) = false", s)
		}
	}
	for _, s := range []string{"", "false", "0", "no", "maybe"} {
		if ParseFlag(s) {
			t.Errorf("ParseFlag(%q) = true", s)
		}
	}
}

func TestProductDefaults(t *testing.T) {
	var p ProductLine
	if p.DisplayName() != "Producto" {
		t.Errorf("DisplayName() = %q, want Producto", p.DisplayName())
	}
}

func TestDecodeDocument(t *testing.T) {
	t.Run("not an object", func(t *testing.T) {
		var rec OrderRecord
		for _, raw := range []string{``, `[]`, `"x"`, `42`} {
			if err := decodeDocument([]byte(raw), &rec); !errors.Is(err, ErrNotAnObject) {
				t.Errorf("%q: error = %v, want ErrNotAnObject", raw, err)
			}
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		var rec OrderRecord
		if err := decodeDocument([]byte(`{"order_data":`), &rec); err == nil {
			t.Error("truncated document should fail")
		}
	})

	t.Run("type mismatch tolerated", func(t *testing.T) {
		var rec OrderRecord
		raw := `{"products":"nope","general_note":"ok"}`
		if err := decodeDocument([]byte(raw), &rec); err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(rec.Products) != 0 || rec.note() != "ok" {
			t.Errorf("got products=%v note=%q", rec.Products, rec.note())
		}
	})
}

func TestOrderRecordFallbacks(t *testing.T) {
	var rec OrderRecord
	raw := `{"client_info":{"name":"Pedro"},"order_data":{"order_number":"77","shipping_address":"Cra 1"},"user":{"nickname":"caja"}}`
	if err := decodeDocument([]byte(raw), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.clientName() != "Pedro" {
		t.Errorf("clientName() = %q", rec.clientName())
	}
	if rec.orderID() != "77" {
		t.Errorf("orderID() = %q", rec.orderID())
	}
	if rec.attendant() != "caja" {
		t.Errorf("attendant() = %q", rec.attendant())
	}

	var empty OrderRecord
	if empty.orderID() != "1" || empty.attendant() != "Sistema" {
		t.Errorf("empty record = (%q, %q)", empty.orderID(), empty.attendant())
	}
}

func TestSaleRecordCompanyAlias(t *testing.T) {
	var rec SaleRecord
	if err := decodeDocument([]byte(`{"company":{"name":"Alias"}}`), &rec); err != nil {
		t.Fatal(err)
	}
	if c := rec.company(); c == nil || c.Name.String() != "Alias" {
		t.Errorf("company() = %+v", c)
	}
}
