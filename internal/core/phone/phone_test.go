package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIn(t *testing.T) {
	got, err := NormalizeIn("98765 43210", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)

	got, err = NormalizeIn("+91 98765-43210", "US")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)
}

func TestNormalizeIn_Invalid(t *testing.T) {
	_, err := NormalizeIn("12", "IN")
	assert.Error(t, err)

	_, err = NormalizeIn("not a phone", "IN")
	assert.Error(t, err)
}

func TestDefaultRegion(t *testing.T) {
	assert.Equal(t, "IN", DefaultRegion())
	SetDefaultRegion("  ")
	assert.Equal(t, "IN", DefaultRegion())
	assert.True(t, Valid("9876543210"))
}
