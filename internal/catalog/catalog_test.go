package catalog

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Premium   rice", StripHTML("<p>Premium</p> <b>rice</b>"))
	assert.Equal(t, "plain", StripHTML("plain"))
	assert.Equal(t, "", StripHTML("<br/>"))
}

func TestTrimCapsListAndDescriptions(t *testing.T) {
	in := []Product{
		{ID: 1, Name: "rice", Description: "<p>" + string(make([]byte, 0)) + "very long description that should be cut short for prompts</p>"},
		{ID: 2, Name: "tea", Description: "short"},
		{ID: 3, Name: "oil"},
	}

	out := Trim(in, 2, 10)
	assert.Len(t, out, 2)
	assert.LessOrEqual(t, len(out[0].Description), 10)
	assert.Equal(t, "short", out[1].Description)
}

func TestTrimKeepsDescriptionsValidUTF8(t *testing.T) {
	in := []Product{{Name: "tea", Description: strings.Repeat("é", 10)}}

	out := Trim(in, 0, 5)
	require.Len(t, out, 1)
	assert.True(t, utf8.ValidString(out[0].Description), "truncation must not split a rune")
	assert.LessOrEqual(t, len(out[0].Description), 5)
	assert.Equal(t, "éé", out[0].Description)
}

func TestTrimZeroLimitsKeepEverything(t *testing.T) {
	in := []Product{{Name: "a", Description: "keep me whole"}}
	out := Trim(in, 0, 0)
	assert.Len(t, out, 1)
	assert.Equal(t, "keep me whole", out[0].Description)
}
