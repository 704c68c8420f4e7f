package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

func TestSupplier_Validate(t *testing.T) {
	s := NewSupplier(id.New(), id.New(), "  Sun Distributors ")
	s.Phone = "098765 43210"
	s.GSTNo = "27aapfu0939f1zv"
	s.Email = " orders@sun-distributors.co.in "

	require.NoError(t, s.Validate())
	assert.Equal(t, "orders@sun-distributors.co.in", s.Email)
	assert.Equal(t, "Sun Distributors", s.Name)
	assert.Equal(t, "+919876543210", s.Phone)
	assert.Equal(t, "27AAPFU0939F1ZV", s.GSTNo)
}

func TestSupplier_ValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Supplier)
		field string
	}{
		{"empty name", func(s *Supplier) { s.Name = " " }, "name"},
		{"bad phone", func(s *Supplier) { s.Phone = "123" }, "phone"},
		{"bad email", func(s *Supplier) { s.Email = "sales@" }, "email"},
		{"email with spaces", func(s *Supplier) { s.Email = "sales team@sun.in" }, "email"},
		{"email without at", func(s *Supplier) { s.Email = "sales.sun.in" }, "email"},
		{"bad gst", func(s *Supplier) { s.GSTNo = "GST123" }, "gst_no"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSupplier(id.New(), id.New(), "Sun Distributors")
			tt.mut(s)
			err := s.Validate()
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}
