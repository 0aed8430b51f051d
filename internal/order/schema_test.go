package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"50", "50", true},
		{"12.5", "12.5", true},
		{" 3 ", "3", true},
		{"0", "", false},
		{"-2", "", false},
		{"fifty", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := Validate(FieldQuantity, c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestValidateQuantityUnitNormalises(t *testing.T) {
	for in, want := range map[string]string{
		"carton":     "carton",
		"Cartons":    "carton",
		"PALLETS":    "pallet",
		"container":  "container",
		"containers": "container",
	} {
		got, ok := Validate(FieldQuantityUnit, in)
		assert.True(t, ok, "input %q", in)
		assert.Equal(t, want, got)
	}

	_, ok := Validate(FieldQuantityUnit, "bag")
	assert.False(t, ok)
}

func TestValidateIncotermUppercases(t *testing.T) {
	got, ok := Validate(FieldShippingIncoterm, "fob")
	assert.True(t, ok)
	assert.Equal(t, "FOB", got)

	got, ok = Validate(FieldShippingIncoterm, "Cif")
	assert.True(t, ok)
	assert.Equal(t, "CIF", got)

	_, ok = Validate(FieldShippingIncoterm, "DDP")
	assert.False(t, ok)
}

func TestValidateFreeTextFieldsTrim(t *testing.T) {
	got, ok := Validate(FieldCity, "  Rotterdam  ")
	assert.True(t, ok)
	assert.Equal(t, "Rotterdam", got)

	_, ok = Validate(FieldStreetAddress, "   ")
	assert.False(t, ok)
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryProducts, ParseCategory("Products & Sourcing"))
	assert.Equal(t, CategoryDefault, ParseCategory("nonsense"))
	assert.Equal(t, CategoryDefault, ParseCategory(""))
	assert.True(t, ParseCategory("whatever").IsDefault())
}
