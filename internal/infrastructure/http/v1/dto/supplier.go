package dto

import (
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/catalogs/supplier"
)

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	ContactPerson string `json:"contact_person" binding:"max=200"`
	Phone         string `json:"phone" binding:"omitempty,mobile"`
	Email         string `json:"email" binding:"omitempty,email"`
	GSTNo         string `json:"gst_no" binding:"omitempty,len=15"`
	DrugLicenseNo string `json:"drug_license_no" binding:"max=100"`
	Address       string `json:"address" binding:"max=500"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierRequest) ToEntity(pharmacyID, actorID id.ID) *supplier.Supplier {
	s := supplier.NewSupplier(pharmacyID, actorID, r.Name)
	s.ContactPerson = r.ContactPerson
	s.Phone = r.Phone
	s.Email = r.Email
	s.GSTNo = r.GSTNo
	s.DrugLicenseNo = r.DrugLicenseNo
	s.Address = r.Address
	return s
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=200"`
	ContactPerson *string `json:"contact_person" binding:"omitempty,max=200"`
	Phone         *string `json:"phone" binding:"omitempty"`
	Email         *string `json:"email" binding:"omitempty"`
	GSTNo         *string `json:"gst_no" binding:"omitempty"`
	DrugLicenseNo *string `json:"drug_license_no" binding:"omitempty,max=100"`
	Address       *string `json:"address" binding:"omitempty,max=500"`
}

// ApplyTo applies update DTO to existing entity. Empty strings clear
// optional fields; Supplier.Validate checks formats afterwards.
func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.ContactPerson != nil {
		s.ContactPerson = *r.ContactPerson
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.GSTNo != nil {
		s.GSTNo = *r.GSTNo
	}
	if r.DrugLicenseNo != nil {
		s.DrugLicenseNo = *r.DrugLicenseNo
	}
	if r.Address != nil {
		s.Address = *r.Address
	}
}
