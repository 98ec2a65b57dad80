package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/catalog/openfoodfacts"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

var reQuantity = regexp.MustCompile(`^([0-9.]+)\s*([a-zA-Zμ]*)$`)

// ParsePackageQuantity splits a catalog quantity like "500 g" into 500 and "g".
// ok is false when the text does not have that shape.
func ParsePackageQuantity(s string) (qty decimal.Decimal, unit string, ok bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	m := reQuantity.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, "", false
	}
	qty, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, "", false
	}
	return qty, strings.ToLower(m[2]), true
}

// ProductDraft is a catalog product mapped to our shape, before a category id exists.
type ProductDraft struct {
	Product      entity.Product
	CategoryName string
	QuantityOK   bool
}

// MapProduct converts an Open Food Facts product into a draft product.
func MapProduct(barcode string, off *openfoodfacts.Product) ProductDraft {
	name := firstNonEmpty(off.ProductNamePT, off.ProductName, constants.DefaultProductName)
	generic := firstNonEmpty(off.GenericNamePT, off.GenericName)
	category, _ := constants.CanonicalCategory(off.CategoriesTags, generic)

	description := generic
	if brands := strings.TrimSpace(off.Brands); brands != "" {
		if description != "" {
			description += " - "
		}
		description += "Marca: " + brands
	}

	draft := ProductDraft{
		Product: entity.Product{
			Barcode:     barcode,
			Name:        name,
			Description: description,
			ImageURL:    firstNonEmpty(off.ImageFrontURL, off.ImageURL),
		},
		CategoryName: category,
		QuantityOK:   true,
	}
	if q := strings.TrimSpace(off.Quantity); q != "" {
		qty, unit, ok := ParsePackageQuantity(q)
		if ok {
			draft.Product.PackageQuantity = &qty
			draft.Product.UnitOfMeasure = unit
		}
		draft.QuantityOK = ok
	}
	return draft
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
