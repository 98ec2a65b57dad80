package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/catalog/openfoodfacts"
)

func TestParsePackageQuantity(t *testing.T) {
	tests := []struct {
		in   string
		qty  string
		unit string
		ok   bool
	}{
		{"500 g", "500", "g", true},
		{"1L", "1", "l", true},
		{"1,5 L", "1.5", "l", true},
		{"395", "395", "", true},
		{"100 μg", "100", "μg", true},
		{"2 x 200 ml", "0", "", false},
		{"", "0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			qty, unit, ok := ParsePackageQuantity(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.qty, qty.String())
			assert.Equal(t, tt.unit, unit)
		})
	}
}

func TestMapProduct(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		d := MapProduct("789", &openfoodfacts.Product{
			ProductNamePT:  "Leite Integral",
			ProductName:    "Whole milk",
			GenericNamePT:  "leite UHT",
			Brands:         "Itambé",
			Quantity:       "1 L",
			CategoriesTags: []string{"en:dairies", "pt:leites-integrais"},
			ImageURL:       "https://img/any.jpg",
			ImageFrontURL:  "https://img/front.jpg",
		})
		assert.Equal(t, "789", d.Product.Barcode)
		assert.Equal(t, "Leite Integral", d.Product.Name)
		assert.Equal(t, "Leites integrais", d.CategoryName)
		assert.Equal(t, "leite UHT - Marca: Itambé", d.Product.Description)
		assert.Equal(t, "https://img/front.jpg", d.Product.ImageURL)
		assert.Equal(t, "l", d.Product.UnitOfMeasure)
		require.NotNil(t, d.Product.PackageQuantity)
		assert.Equal(t, "1", d.Product.PackageQuantity.String())
		assert.True(t, d.QuantityOK)
	})

	t.Run("fallbacks", func(t *testing.T) {
		d := MapProduct("123", &openfoodfacts.Product{
			GenericName: "biscoito recheado",
			Brands:      "Marca X",
			Quantity:    "pacote",
			ImageURL:    "https://img/any.jpg",
		})
		assert.Equal(t, constants.DefaultProductName, d.Product.Name)
		assert.Equal(t, "Biscoito recheado", d.CategoryName)
		assert.Equal(t, "biscoito recheado - Marca: Marca X", d.Product.Description)
		assert.Equal(t, "https://img/any.jpg", d.Product.ImageURL)
		assert.Nil(t, d.Product.PackageQuantity)
		assert.False(t, d.QuantityOK)
	})

	t.Run("nothing usable", func(t *testing.T) {
		d := MapProduct("1", &openfoodfacts.Product{Brands: "Solo"})
		assert.Equal(t, constants.DefaultCategory, d.CategoryName)
		assert.Equal(t, "Marca: Solo", d.Product.Description)
		assert.True(t, d.QuantityOK)
	})
}
