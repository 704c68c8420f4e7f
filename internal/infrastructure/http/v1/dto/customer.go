package dto

import (
	"pharmaledger/internal/domain/catalogs/customer"
)

// CustomerSearchResponse is the typeahead result of GET /customers/search.
type CustomerSearchResponse struct {
	Customers []customer.Customer `json:"customers"`
	Count     int                 `json:"count"`
}

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"max=200"`
	Mobile  string `json:"mobile" binding:"required,mobile"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address" binding:"max=500"`
}

// ToInput converts the request to the service input.
func (r *CreateCustomerRequest) ToInput() customer.CreateInput {
	return customer.CreateInput{Name: r.Name, Mobile: r.Mobile, Email: r.Email, Address: r.Address}
}

// UpdateCustomerRequest is the request body for updating a customer.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=200"`
	Mobile  *string `json:"mobile" binding:"omitempty,mobile"`
	Email   *string `json:"email" binding:"omitempty"`
	Address *string `json:"address" binding:"omitempty,max=500"`
}

// ToInput converts the request to the service input.
func (r *UpdateCustomerRequest) ToInput() customer.UpdateInput {
	return customer.UpdateInput{Name: r.Name, Mobile: r.Mobile, Email: r.Email, Address: r.Address}
}
