package order

import (
	"strconv"
	"strings"
)

// FieldName identifies one datum of the order schema.
type FieldName string

const (
	FieldProductName        FieldName = "product_name"
	FieldQuantity           FieldName = "quantity"
	FieldQuantityUnit       FieldName = "quantity_unit"
	FieldDestinationCountry FieldName = "destination_country"
	FieldCity               FieldName = "city"
	FieldStreetAddress      FieldName = "street_address"
	FieldShippingIncoterm   FieldName = "shipping_incoterm"
	FieldPaymentOption      FieldName = "payment_option"
)

// fieldOrder is the declared collection order. The engine asks for missing
// fields in exactly this order so prompting stays deterministic.
var fieldOrder = []FieldName{
	FieldProductName,
	FieldQuantity,
	FieldQuantityUnit,
	FieldDestinationCountry,
	FieldCity,
	FieldStreetAddress,
	FieldShippingIncoterm,
	FieldPaymentOption,
}

// displayNames are the human wordings used in targeted prompts.
var displayNames = map[FieldName]string{
	FieldProductName:        "the product you would like to order",
	FieldQuantity:           "the quantity",
	FieldQuantityUnit:       "the quantity unit (carton, pallet or container)",
	FieldDestinationCountry: "the destination country",
	FieldCity:               "the destination city",
	FieldStreetAddress:      "the street address",
	FieldShippingIncoterm:   "the shipping incoterm (FOB or CIF)",
	FieldPaymentOption:      "the payment option",
}

var quantityUnits = map[string]struct{}{
	"carton":    {},
	"pallet":    {},
	"container": {},
}

var incoterms = map[string]struct{}{
	"FOB": {},
	"CIF": {},
}

// FieldOrder returns the required fields in declared collection order.
// The returned slice is a copy.
func FieldOrder() []FieldName {
	out := make([]FieldName, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// DisplayName returns the human wording for a field, for targeted prompts.
func DisplayName(f FieldName) string {
	if n, ok := displayNames[f]; ok {
		return n
	}
	return string(f)
}

// Validate checks a raw extracted value against the field's rule and returns
// the normalised value. A failed validation reports ok=false and leaves the
// caller's state untouched; it is never an error, so a bad extraction cannot
// silently corrupt state as a false-positive fill.
func Validate(f FieldName, raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}

	switch f {
	case FieldQuantity:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case FieldQuantityUnit:
		u := strings.ToLower(v)
		// tolerate plural forms from free text ("50 cartons")
		u = strings.TrimSuffix(u, "s")
		if _, ok := quantityUnits[u]; !ok {
			return "", false
		}
		return u, true
	case FieldShippingIncoterm:
		t := strings.ToUpper(v)
		if _, ok := incoterms[t]; !ok {
			return "", false
		}
		return t, true
	default:
		return v, true
	}
}

// Complete reports whether every required field is set.
func Complete(fields map[FieldName]string) bool {
	for _, f := range fieldOrder {
		if fields[f] == "" {
			return false
		}
	}
	return true
}

// Missing returns the unset required fields in declared order.
func Missing(fields map[FieldName]string) []FieldName {
	var out []FieldName
	for _, f := range fieldOrder {
		if fields[f] == "" {
			out = append(out, f)
		}
	}
	return out
}
