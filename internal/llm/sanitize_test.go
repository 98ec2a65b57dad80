package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}```", `{"a":1}`},
		{"no fence", `  {"a":1} `, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseLooseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1,000", "1", true},
		{"0,734", "0.734", true},
		{"56.50", "56.5", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{" 7 ", "7", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLooseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNormalizeSaleJSON(t *testing.T) {
	raw := []byte(`{
		"sale_date": " 10/03/2024 - 14:22 ",
		"items": [
			{"item_code": 1, "barcode": 7891000100103, "name": "LEITE", "quantity": "1,000",
			 "unit_of_measure": null, "unit_price": "4,99", "total_price": 4.99, "discount": null},
			{"item_code": "002", "barcode": null, "name": "PAO", "quantity": 0.5,
			 "unit_of_measure": "KG", "unit_price": 10, "total_price": 5}
		]
	}`)

	out, changed, err := NormalizeSaleJSON(raw, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, changed)

	var doc struct {
		SaleDate string           `json:"sale_date"`
		Items    []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "10/03/2024 - 14:22", doc.SaleDate)
	require.Len(t, doc.Items, 2)

	first := doc.Items[0]
	assert.Equal(t, "1", first["item_code"])
	assert.Equal(t, "7891000100103", first["barcode"])
	assert.Equal(t, "", first["unit_of_measure"])
	assert.InDelta(t, 1.0, first["quantity"], 1e-9)
	assert.InDelta(t, 4.99, first["unit_price"], 1e-9)
	assert.InDelta(t, 0.0, first["discount"], 1e-9)

	second := doc.Items[1]
	_, hasBarcode := second["barcode"]
	assert.False(t, hasBarcode)
	assert.InDelta(t, 0.0, second["discount"], 1e-9)

	require.NoError(t, ValidateJSONAgainstSchema(BuildSaleJSONSchema(), out))
}

func TestNormalizeSaleJSON_NotAnObject(t *testing.T) {
	_, _, err := NormalizeSaleJSON([]byte(`[1,2]`), nil)
	require.Error(t, err)

	_, _, err = NormalizeSaleJSON([]byte(`null`), nil)
	require.Error(t, err)
}

func TestValidateJSONAgainstSchema_Sale(t *testing.T) {
	schema := BuildSaleJSONSchema()
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid empty items", `{"sale_date":"01/01/2024 - 10:00","items":[]}`, false},
		{"missing items", `{"sale_date":"01/01/2024 - 10:00"}`, true},
		{"missing sale_date", `{"items":[]}`, true},
		{"items not array", `{"sale_date":"x","items":{}}`, true},
		{"quantity string", `{"sale_date":"x","items":[{"item_code":"1","name":"a","quantity":"x","unit_price":1,"total_price":1,"discount":0}]}`, true},
		{"negative discount", `{"sale_date":"x","items":[{"item_code":"1","name":"a","quantity":1,"unit_price":1,"total_price":1,"discount":-1}]}`, true},
		{"missing name", `{"sale_date":"x","items":[{"item_code":"1","quantity":1,"unit_price":1,"total_price":1,"discount":0}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONAgainstSchema(schema, []byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	p := BuildExtractionPrompt()
	for _, key := range []string{"sale_date", "item_code", "barcode", "unit_price", "total_price", "discount", "DD/MM/YYYY - HH:MM"} {
		assert.Contains(t, p, key)
	}
}
