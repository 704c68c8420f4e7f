// Package customer keeps the pharmacy's customers and their running debt
// from unpaid bills.
package customer

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
)

// Customer is identified within a pharmacy by an E.164 mobile number.
type Customer struct {
	entity.BaseEntity

	Name       string          `db:"name" json:"name"`
	Mobile     string          `db:"mobile" json:"mobile"`
	Email      string          `db:"email" json:"email,omitempty"`
	Address    string          `db:"address" json:"address,omitempty"`
	TotalDebt  decimal.Decimal `db:"total_debt" json:"total_debt"`
	LastBillAt *time.Time      `db:"last_bill_at" json:"last_bill_at,omitempty"`
}

// NewCustomer creates a customer record.
func NewCustomer(pharmacyID, actorID id.ID, name, mobile string) *Customer {
	return &Customer{
		BaseEntity: entity.NewBaseEntity(pharmacyID, actorID),
		Name:       strings.TrimSpace(name),
		Mobile:     mobile,
	}
}

var validate = validator.New()

// Validate checks required fields. Mobile must already be normalized.
func (c *Customer) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Mobile == "" {
		return apperror.NewFieldValidation("mobile", "mobile is required")
	}
	if c.Email != "" {
		c.Email = strings.TrimSpace(c.Email)
		if err := validate.Var(c.Email, "email"); err != nil {
			return apperror.NewFieldValidation("email", "invalid email format")
		}
	}
	return nil
}
