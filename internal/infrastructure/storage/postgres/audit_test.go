package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_PackRoundTrip(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	small := svc.pack(AuditRecord{Changes: []byte(`{"qty":1}`)})
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := `{"items":"` + strings.Repeat("paracetamol ", 2000) + `"}`
	large := svc.pack(AuditRecord{Changes: []byte(payload)})
	require.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, svc.unpack(&large))
	assert.JSONEq(t, payload, string(large.Changes))
}
