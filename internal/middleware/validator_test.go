package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOwnerID(t *testing.T) {
	assert.NoError(t, ValidateOwnerID("auth0|5f7c8ec7c33c6c004bbafe82"))
	assert.NoError(t, ValidateOwnerID("jane.doe@example.com"))
	assert.Error(t, ValidateOwnerID(""))
	assert.Error(t, ValidateOwnerID("has space"))
	assert.Error(t, ValidateOwnerID(string(make([]byte, 65))))
}

func TestValidateAnalysisID(t *testing.T) {
	assert.NoError(t, ValidateAnalysisID("0b7e4c1e-8a51-4b7e-9d0c-3b2f8f1c2d3e"))
	assert.Error(t, ValidateAnalysisID("../etc/passwd"))
	assert.Error(t, ValidateAnalysisID(""))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Shampoo Plus", SanitizeString("  Sham\x00poo\x07 Plus "))
	assert.Equal(t, "a\tb\nc", SanitizeString("a\tb\nc"))
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
	assert.Equal(t, 7, ValidateLimit(7))
	assert.Equal(t, 30, ValidateDays(-1))
	assert.Equal(t, 365, ValidateDays(1000))
	assert.Equal(t, 3, QueryInt(" 3 ", 1))
	assert.Equal(t, 1, QueryInt("x", 1))
}
