package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numericItemFields = []string{"quantity", "unit_price", "total_price", "discount"}
	stringItemFields  = []string{"item_code", "name", "unit_of_measure"}
)

// StripCodeFences removes markdown code fences the model may wrap its JSON in.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// NormalizeSaleJSON repairs the usual drift in model output so the document can
// be schema-validated:
// - comma decimal separators in numeric fields ("1,000" -> 1.000)
// - numbers sent as strings
// - null or absent discount -> 0
// - null barcode dropped, numeric barcode/item_code -> string
// - null string fields -> ""
// Anything it cannot repair is left for the schema to reject. It returns the
// list of touched fields for logging.
func NormalizeSaleJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if m == nil {
		return nil, nil, fmt.Errorf("sanitize: document is not an object")
	}

	var changed []string
	if v, ok := m["sale_date"].(string); ok {
		m["sale_date"] = strings.TrimSpace(v)
	}

	items, _ := m["items"].([]any)
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range numericItemFields {
			v, present := item[k]
			if (!present || v == nil) && k == "discount" {
				item[k] = json.Number("0")
				continue
			}
			if s, ok := v.(string); ok {
				if n, ok := ParseLooseNumber(s); ok {
					item[k] = n
					changed = append(changed, fmt.Sprintf("items[%d].%s", i, k))
				}
			}
		}
		switch b := item["barcode"].(type) {
		case nil:
			delete(item, "barcode")
		case json.Number:
			item["barcode"] = b.String()
			changed = append(changed, fmt.Sprintf("items[%d].barcode", i))
		case string:
			if s := strings.TrimSpace(b); s == "" || strings.EqualFold(s, "null") {
				delete(item, "barcode")
			} else {
				item["barcode"] = s
			}
		}
		for _, k := range stringItemFields {
			switch v := item[k].(type) {
			case nil:
				if _, present := item[k]; present || k == "unit_of_measure" {
					item[k] = ""
				}
			case json.Number:
				item[k] = v.String()
				changed = append(changed, fmt.Sprintf("items[%d].%s", i, k))
			case string:
				item[k] = strings.TrimSpace(v)
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changed", changed)
	}
	return out, changed, nil
}

// ParseLooseNumber parses a number written with either decimal separator.
// "1,000" and "1.000" are both one; "1.234,56" and "1,234.56" are 1234.56.
func ParseLooseNumber(s string) (json.Number, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if strings.Contains(s, ",") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	return json.Number(d.String()), true
}
