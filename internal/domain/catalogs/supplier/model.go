// Package supplier provides the supplier catalog referenced by purchases.
package supplier

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/phone"
)

var (
	validate = validator.New()
	// GSTIN: 2-digit state, 10-char PAN, entity digit, 'Z', checksum.
	gstRE = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
)

// Supplier is a wholesaler the pharmacy buys from.
type Supplier struct {
	entity.BaseEntity

	Name          string `db:"name" json:"name"`
	ContactPerson string `db:"contact_person" json:"contact_person,omitempty"`
	Phone         string `db:"phone" json:"phone,omitempty"`
	Email         string `db:"email" json:"email,omitempty"`
	GSTNo         string `db:"gst_no" json:"gst_no,omitempty"`
	DrugLicenseNo string `db:"drug_license_no" json:"drug_license_no,omitempty"`
	Address       string `db:"address" json:"address,omitempty"`
	DeletionMark  bool   `db:"deletion_mark" json:"deletion_mark"`
}

// NewSupplier creates a supplier owned by pharmacyID.
func NewSupplier(pharmacyID, actorID id.ID, name string) *Supplier {
	return &Supplier{
		BaseEntity: entity.NewBaseEntity(pharmacyID, actorID),
		Name:       strings.TrimSpace(name),
	}
}

// Validate normalizes contact fields and checks formats.
func (s *Supplier) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if s.Phone != "" {
		normalized, err := phone.Normalize(s.Phone)
		if err != nil {
			return apperror.NewFieldValidation("phone", "invalid phone number")
		}
		s.Phone = normalized
	}
	if s.Email != "" {
		s.Email = strings.TrimSpace(s.Email)
		if err := validate.Var(s.Email, "email"); err != nil {
			return apperror.NewFieldValidation("email", "invalid email format")
		}
	}
	if s.GSTNo != "" {
		s.GSTNo = strings.ToUpper(strings.TrimSpace(s.GSTNo))
		if !gstRE.MatchString(s.GSTNo) {
			return apperror.NewFieldValidation("gst_no", "invalid GSTIN format")
		}
	}
	return nil
}
