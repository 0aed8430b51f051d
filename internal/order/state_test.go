package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSetIfUnset(t *testing.T) {
	s := NewState("s1")

	res := s.Merge(map[FieldName]string{
		FieldProductName: "basmati rice",
		FieldQuantity:    "50",
	}, false)
	assert.ElementsMatch(t, []FieldName{FieldProductName, FieldQuantity}, res.Applied)
	assert.Empty(t, res.Rejected)

	// a later observation must not flip a confirmed value
	res = s.Merge(map[FieldName]string{FieldProductName: "jasmine rice"}, false)
	assert.Empty(t, res.Applied)
	assert.Equal(t, "basmati rice", s.Fields[FieldProductName])
}

func TestMergeOverwriteEnabled(t *testing.T) {
	s := NewState("s1")
	s.Merge(map[FieldName]string{FieldCity: "Hamburg"}, false)

	res := s.Merge(map[FieldName]string{FieldCity: "Bremen"}, true)
	assert.Equal(t, []FieldName{FieldCity}, res.Applied)
	assert.Equal(t, "Bremen", s.Fields[FieldCity])
}

func TestMergeIdempotent(t *testing.T) {
	s := NewState("s1")
	obs := map[FieldName]string{
		FieldProductName:  "olive oil",
		FieldQuantity:     "10",
		FieldQuantityUnit: "pallets",
	}

	first := s.Merge(obs, false)
	require.Len(t, first.Applied, 3)

	second := s.Merge(obs, false)
	assert.Empty(t, second.Applied)
	assert.Empty(t, second.Rejected)
	assert.Equal(t, "pallet", s.Fields[FieldQuantityUnit])
}

func TestMergeRejectsInvalidValues(t *testing.T) {
	s := NewState("s1")

	res := s.Merge(map[FieldName]string{
		FieldQuantity:         "-5",
		FieldQuantityUnit:     "truckload",
		FieldShippingIncoterm: "EXW",
		FieldProductName:      "sugar",
	}, false)

	assert.Equal(t, []FieldName{FieldProductName}, res.Applied)
	assert.ElementsMatch(t, []FieldName{FieldQuantity, FieldQuantityUnit, FieldShippingIncoterm}, res.Rejected)
	assert.Empty(t, s.Fields[FieldQuantity])
}

func TestMergeAbsentNeverClears(t *testing.T) {
	s := NewState("s1")
	s.Merge(map[FieldName]string{FieldProductName: "coffee"}, false)

	s.Merge(map[FieldName]string{FieldCity: "Lagos"}, false)
	assert.Equal(t, "coffee", s.Fields[FieldProductName])
	assert.Equal(t, "Lagos", s.Fields[FieldCity])
}

func TestReadyForPDFRequiresAllFields(t *testing.T) {
	s := NewState("s1")
	assert.False(t, s.ReadyForPDF())

	for i, f := range FieldOrder() {
		assert.False(t, s.ReadyForPDF(), "ready before field %s", f)
		v := "value"
		switch f {
		case FieldQuantity:
			v = "25"
		case FieldQuantityUnit:
			v = "carton"
		case FieldShippingIncoterm:
			v = "CIF"
		}
		res := s.Merge(map[FieldName]string{f: v}, false)
		require.Len(t, res.Applied, 1, "field %d", i)
	}
	assert.True(t, s.ReadyForPDF())
	assert.Empty(t, s.Missing())
}

func TestMissingInCollectionOrder(t *testing.T) {
	s := NewState("s1")
	s.Merge(map[FieldName]string{
		FieldQuantity: "5",
		FieldCity:     "Dubai",
	}, false)

	missing := s.Missing()
	require.Len(t, missing, 6)
	assert.Equal(t, FieldProductName, missing[0])
	assert.Equal(t, FieldQuantityUnit, missing[1])
}

func TestSetCategoryUnknownFallsBack(t *testing.T) {
	s := NewState("s1")
	s.SetCategory(CategoryLogistics)
	assert.Equal(t, CategoryLogistics, s.Category)

	s.SetCategory(Category("Weather & Sports"))
	assert.Equal(t, CategoryDefault, s.Category)
}

func TestQuantityNumeric(t *testing.T) {
	s := NewState("s1")
	_, ok := s.Quantity()
	assert.False(t, ok)

	s.Merge(map[FieldName]string{FieldQuantity: "12.5"}, false)
	n, ok := s.Quantity()
	require.True(t, ok)
	assert.Equal(t, 12.5, n)
}

func TestCloneDoesNotAlias(t *testing.T) {
	s := NewState("s1")
	s.Merge(map[FieldName]string{FieldProductName: "tea"}, false)

	cp := s.Clone()
	cp.Fields[FieldProductName] = "changed"
	assert.Equal(t, "tea", s.Fields[FieldProductName])
}
