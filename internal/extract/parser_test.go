package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otrade-bot/server/internal/order"
)

func TestParseReplyWellFormed(t *testing.T) {
	content := "Great choice! How many cartons would you like?\n" +
		`{"category": "Products & Sourcing", "ready_for_pdf": false, "product_name": "basmati rice", "quantity": null, "quantity_unit": null, "destination_country": null, "city": null, "street_address": null, "shipping_incoterm": null, "payment_option": null}`

	reply, md := ParseReply(content)
	assert.Equal(t, "Great choice! How many cartons would you like?", reply)
	assert.Equal(t, order.CategoryProducts, md.Category)
	assert.Equal(t, map[order.FieldName]string{order.FieldProductName: "basmati rice"}, md.Fields)
}

func TestParseReplyNumbersAndNulls(t *testing.T) {
	content := "Noted.\n" + `{"category": "Logistics & Shipping", "quantity": 50, "city": null}`

	_, md := ParseReply(content)
	assert.Equal(t, order.CategoryLogistics, md.Category)
	assert.Equal(t, "50", md.Fields[order.FieldQuantity])
	_, present := md.Fields[order.FieldCity]
	assert.False(t, present, "null must report absent, not empty")
}

func TestParseReplyEmbeddedObjectFallback(t *testing.T) {
	content := `Sure thing {"category": "Payments & Finance", "payment_option": "letter of credit"} thanks`

	// last object wins even when it is not on its own final line
	_, md := ParseReply(content)
	assert.Equal(t, order.CategoryPayments, md.Category)
	assert.Equal(t, "letter of credit", md.Fields[order.FieldPaymentOption])
}

func TestParseReplySingleQuotedPseudoJSON(t *testing.T) {
	content := "Okay.\n" + `{'category': 'Guarantees & Quality', 'product_name': 'olive oil'}`

	_, md := ParseReply(content)
	assert.Equal(t, order.CategoryGuarantees, md.Category)
	assert.Equal(t, "olive oil", md.Fields[order.FieldProductName])
}

func TestParseReplyNoMetadata(t *testing.T) {
	reply, md := ParseReply("Hello! How can I help you today?")
	assert.Equal(t, "Hello! How can I help you today?", reply)
	assert.Equal(t, order.CategoryDefault, md.Category)
	assert.Empty(t, md.Fields)
}

func TestParseReplyMalformedMetadata(t *testing.T) {
	reply, md := ParseReply("Hi there\n{category: broken")
	require.NotEmpty(t, reply)
	assert.Equal(t, order.CategoryDefault, md.Category)
	assert.Empty(t, md.Fields)
}

func TestParseReplyUnknownCategoryDefaults(t *testing.T) {
	_, md := ParseReply(`{"category": "Gossip", "city": "Accra"}`)
	assert.Equal(t, order.CategoryDefault, md.Category)
	assert.Equal(t, "Accra", md.Fields[order.FieldCity])
}

func TestParseReplyIgnoresUnknownKeys(t *testing.T) {
	_, md := ParseReply(`{"category": "Products & Sourcing", "ready_for_pdf": true, "discount_code": "XX"}`)
	// completeness is always recomputed from state, never trusted from output
	assert.Empty(t, md.Fields)
}

func TestParseReplyOversizedContent(t *testing.T) {
	big := strings.Repeat("a", maxContentLen+100)
	reply, md := ParseReply(big)
	assert.LessOrEqual(t, len(reply), maxContentLen)
	assert.Equal(t, order.CategoryDefault, md.Category)
}

func TestParseReplyOversizedContentKeepsValidUTF8(t *testing.T) {
	// multi-byte runes straddling the size limit must not be split
	big := strings.Repeat("é", maxContentLen/2+100)
	reply, _ := ParseReply(big)
	assert.LessOrEqual(t, len(reply), maxContentLen)
	assert.True(t, utf8.ValidString(reply))
}

func TestParseReplyEmpty(t *testing.T) {
	reply, md := ParseReply("")
	assert.Empty(t, reply)
	assert.Equal(t, order.CategoryDefault, md.Category)
	assert.NotNil(t, md.Fields)
}
