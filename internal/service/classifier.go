// internal/service/classifier.go
package service

import (
	"bytes"
	"encoding/json"

	"print-bridge/internal/formatter"
	"print-bridge/internal/model"
)

const dataWrapperKey = "data_json"

var saleKeys = []string{"sale_data", "company_info", "company"}

// ClassifyDocument picks the formatter for a JSON body and returns the
// document it should render. Rules are checked in order, first match wins:
//
//  1. data_json.order_data      → Order, rendering data_json
//  2. order_data at top level   → Order, rendering the body
//  3. a sale key at top level   → Sale, rendering the body
//     or under data_json        → Sale, rendering data_json
//  4. anything else             → Order, rendering the body
func ClassifyDocument(body []byte) (model.DocumentKind, json.RawMessage) {
	top, ok := objectFields(body)
	if !ok {
		return model.DocumentKindOrder, body
	}

	wrapped, hasWrapper := objectFields(top[dataWrapperKey])
	if hasWrapper && has(wrapped, "order_data") {
		return model.DocumentKindOrder, top[dataWrapperKey]
	}
	if has(top, "order_data") {
		return model.DocumentKindOrder, body
	}
	for _, key := range saleKeys {
		if has(top, key) {
			return model.DocumentKindSale, body
		}
	}
	if hasWrapper {
		for _, key := range saleKeys {
			if has(wrapped, key) {
				return model.DocumentKindSale, top[dataWrapperKey]
			}
		}
	}
	return model.DocumentKindOrder, body
}

// documentSettings are the job options a JSON body may carry
type documentSettings struct {
	PrintSettings *formatter.PrintSettings `json:"print_settings"`
	PaperWidth    formatter.Text           `json:"paper_width"`
	OpenCash      *formatter.Flag          `json:"open_cash"`
}

// jobSettings reads paper width and cash drawer flags, looking inside
// data_json before the top level. Zero width means not set.
func jobSettings(body []byte) (width int, openCash bool) {
	top, ok := objectFields(body)
	if !ok {
		return 0, false
	}

	layers := make([]documentSettings, 0, 2)
	if wrapped, ok := top[dataWrapperKey]; ok {
		if s, ok := decodeSettings(wrapped); ok {
			layers = append(layers, s)
		}
	}
	if s, ok := decodeSettings(body); ok {
		layers = append(layers, s)
	}

	widthSet, cashSet := false, false
	for _, s := range layers {
		if !widthSet {
			if w, ok := s.paperWidth(); ok {
				width, widthSet = w, true
			}
		}
		if !cashSet && s.OpenCash != nil {
			openCash, cashSet = bool(*s.OpenCash), true
		}
	}
	return width, openCash
}

func (s documentSettings) paperWidth() (int, bool) {
	if s.PrintSettings != nil {
		if w, ok := parseWidth(s.PrintSettings.PaperWidth); ok {
			return w, true
		}
	}
	return parseWidth(s.PaperWidth)
}

func parseWidth(t formatter.Text) (int, bool) {
	if !t.Present() {
		return 0, false
	}
	var a formatter.Amount
	if err := a.UnmarshalJSON([]byte(t.String())); err != nil || !a.Positive() {
		return 0, false
	}
	return int(a.IntPart()), true
}

func decodeSettings(raw []byte) (documentSettings, bool) {
	var s documentSettings
	if _, ok := objectFields(raw); !ok {
		return s, false
	}
	// Lenient field types never fail; a mismatched print_settings shape is dropped
	if err := json.Unmarshal(raw, &s); err != nil {
		var retry struct {
			PaperWidth formatter.Text  `json:"paper_width"`
			OpenCash   *formatter.Flag `json:"open_cash"`
		}
		if json.Unmarshal(raw, &retry) != nil {
			return s, false
		}
		s = documentSettings{PaperWidth: retry.PaperWidth, OpenCash: retry.OpenCash}
	}
	return s, true
}

func objectFields(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func has(fields map[string]json.RawMessage, key string) bool {
	v, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
