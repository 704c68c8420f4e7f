package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pharmaledger/internal/core/phone"
)

// RegisterValidators adds the ledger's custom rules to gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("mobile", validateMobile)
}

// validateMobile accepts numbers libphonenumber can place in the default region.
func validateMobile(fl validator.FieldLevel) bool {
	return phone.Valid(fl.Field().String())
}
