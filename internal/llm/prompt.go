package llm

import "strings"

// SaleDateLayout is the only accepted sale_date shape, "DD/MM/YYYY - HH:MM".
const SaleDateLayout = "2/1/2006 - 15:04"

// BuildExtractionPrompt returns the fixed instruction sent with every receipt
// image. It describes the Brazilian "cupom fiscal" line layout and the exact
// JSON shape the response must have.
func BuildExtractionPrompt() string {
	parts := []string{
		"You are a parser for Brazilian retail receipts (cupom fiscal). Return ONLY JSON, no prose and no markdown.",
		"Read the receipt item by item so values from neighbouring lines are never mixed.",
		"Each item spans two lines, or three when a discount line follows it.",
		"Line 1 holds the sequential item number, the barcode and the product description.",
		"Line 2 holds quantity, unit of measure, unit price, a tax amount in parentheses and the line total. Ignore the values in parentheses.",
		"Line 3, when present, reads 'Desconto sobre item NNN' followed by a negative amount. Match NNN to the item number before applying it.",
		"Take extra care with decimal quantities (e.g. 0,734 KG).",
		"Extract:",
		`1. "sale_date": the date and time of the sale (the VENDA operation), formatted "DD/MM/YYYY - HH:MM".`,
		`2. "items": every item on the receipt. For each item:`,
		`"item_code" (string, e.g. "001"),`,
		`"barcode" (string, or null when none is printed),`,
		`"name" (string),`,
		`"quantity" (number),`,
		`"unit_of_measure" (string, e.g. "UN", "KG", "PC"),`,
		`"unit_price" (number),`,
		`"total_price" (number, the line total after the item discount),`,
		`"discount" (number, positive magnitude of the item discount, 0 when there is none).`,
		"All numbers use a dot as decimal separator.",
		"Never abbreviate the list; every item must be present. If there are no items return an empty list.",
		"Example: lines '003 07891350034640 D MONANGE 150ML NY IN', '1,000 UN X 8,99 (0,00)II 8,99', 'Desconto sobre item 003 -1,00' become",
		`{"item_code":"003","barcode":"07891350034640","name":"D MONANGE 150ML NY IN","quantity":1.000,"unit_of_measure":"UN","unit_price":8.99,"total_price":7.99,"discount":1.00}.`,
		`Output shape: {"sale_date":"DD/MM/YYYY - HH:MM","items":[{...}]}`,
	}
	return strings.Join(parts, "\n")
}
