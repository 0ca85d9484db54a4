package service

import (
	"encoding/json"
	"testing"

	"print-bridge/internal/model"
)

func TestClassifyDocument(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    model.DocumentKind
		wantDoc string
	}{
		{
			name:    "wrapped order",
			body:    `{"data_json":{"order_data":{"client_name":"Maria"}},"open_cash":true}`,
			kind:    model.DocumentKindOrder,
			wantDoc: `{"order_data":{"client_name":"Maria"}}`,
		},
		{
			name: "top level order",
			body: `{"order_data":{"id":7},"products":[]}`,
			kind: model.DocumentKindOrder,
		},
		{
			name: "order wins over sale keys",
			body: `{"order_data":{},"sale_data":{}}`,
			kind: model.DocumentKindOrder,
		},
		{
			name: "sale data",
			body: `{"sale_data":{"billing":"FE-1"}}`,
			kind: model.DocumentKindSale,
		},
		{
			name: "company info",
			body: `{"company_info":{"name":"Tienda"}}`,
			kind: model.DocumentKindSale,
		},
		{
			name: "company alias",
			body: `{"company":{"name":"Tienda"}}`,
			kind: model.DocumentKindSale,
		},
		{
			name:    "wrapped sale",
			body:    `{"data_json":{"sale_data":{"id":3}},"paper_width":58}`,
			kind:    model.DocumentKindSale,
			wantDoc: `{"sale_data":{"id":3}}`,
		},
		{
			name: "null sale key is ignored",
			body: `{"sale_data":null,"products":[]}`,
			kind: model.DocumentKindOrder,
		},
		{
			name: "empty object",
			body: `{}`,
			kind: model.DocumentKindOrder,
		},
		{
			name: "array",
			body: `[1,2]`,
			kind: model.DocumentKindOrder,
		},
		{
			name: "malformed",
			body: `{"order_data":`,
			kind: model.DocumentKindOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, doc := ClassifyDocument([]byte(tt.body))
			if kind != tt.kind {
				t.Errorf("kind = %s, want %s", kind, tt.kind)
			}
			want := tt.wantDoc
			if want == "" {
				want = tt.body
			}
			if string(doc) != want {
				t.Errorf("doc = %s, want %s", doc, want)
			}
		})
	}
}

func TestJobSettings(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		width    int
		openCash bool
	}{
		{"nothing", `{"order_data":{}}`, 0, false},
		{"print settings", `{"print_settings":{"paper_width":58}}`, 58, false},
		{"print settings string", `{"print_settings":{"paper_width":"58"}}`, 58, false},
		{"top level width", `{"paper_width":80,"open_cash":true}`, 80, true},
		{"print settings before top level", `{"print_settings":{"paper_width":58},"paper_width":80}`, 58, false},
		{"wrapper before top level", `{"data_json":{"paper_width":58},"paper_width":80}`, 58, false},
		{"wrapper falls through", `{"data_json":{"order_data":{}},"print_settings":{"paper_width":58}}`, 58, false},
		{"open cash string", `{"open_cash":"1"}`, 0, true},
		{"open cash si", `{"open_cash":"si"}`, 0, true},
		{"open cash false", `{"open_cash":false}`, 0, false},
		{"wrapper cash wins", `{"data_json":{"open_cash":false},"open_cash":true}`, 0, false},
		{"odd print settings", `{"print_settings":"wide","paper_width":58}`, 58, false},
		{"garbage width", `{"paper_width":"ancho"}`, 0, false},
		{"not an object", `[58]`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			width, openCash := jobSettings([]byte(tt.body))
			if width != tt.width || openCash != tt.openCash {
				t.Errorf("got (%d, %v), want (%d, %v)", width, openCash, tt.width, tt.openCash)
			}
		})
	}
}

func TestClassifyKeepsWrappedBytes(t *testing.T) {
	_, doc := ClassifyDocument([]byte(`{"data_json":{"order_data":{"note":"sin cebolla"}}}`))
	var parsed map[string]interface{}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("wrapped document is not valid json: %v", err)
	}
	if _, ok := parsed["order_data"]; !ok {
		t.Error("order_data missing from wrapped document")
	}
}
