package constants

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCategory is used when the catalog gives no usable category hint.
const DefaultCategory = "Indefinida"

// DefaultProductName is used when the catalog has no product name.
const DefaultProductName = "Produto Sem Nome"

// categoryTagLang is the language prefix of catalog category tags we keep.
const categoryTagLang = "pt:"

// CanonicalCategory derives a product category name from catalog category tags
// ("pt:leites-fermentados" -> "Leites fermentados"), falling back to the generic
// product name and finally to DefaultCategory. The bool is false on fallback to the default.
func CanonicalCategory(tags []string, genericName string) (string, bool) {
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if !strings.HasPrefix(tag, categoryTagLang) {
			continue
		}
		name := strings.ReplaceAll(strings.TrimPrefix(tag, categoryTagLang), "-", " ")
		if name = strings.TrimSpace(name); name != "" {
			return upperFirst(name), true
		}
	}
	if g := strings.TrimSpace(genericName); g != "" {
		return upperFirst(g), true
	}
	return DefaultCategory, false
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
