package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneNumber(t *testing.T) {
	assert.Equal(t, "+491715550000", PhoneNumber("whatsapp:+491715550000"))
	assert.Equal(t, "+491715550000", PhoneNumber(" +491715550000 "))
	assert.Equal(t, "", PhoneNumber(""))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+49171", Address("+49171"))
	assert.Equal(t, "whatsapp:+49171", Address("whatsapp:+49171"))
}

func TestConfigured(t *testing.T) {
	assert.False(t, Config{}.Configured())
	assert.True(t, Config{AccountSID: "AC", AuthToken: "tok", From: "+1"}.Configured())
}
