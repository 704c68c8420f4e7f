package dto

import (
	"pharmaledger/internal/domain/purchase"
)

// PriceHistoryQuery selects past purchase prices of one product.
type PriceHistoryQuery struct {
	ProductName string `form:"product_name" binding:"required"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// PriceHistoryResponse lists price points, newest first.
type PriceHistoryResponse struct {
	ProductName string                `json:"product_name"`
	History     []purchase.PricePoint `json:"history"`
	Count       int                   `json:"count"`
}

// PurchaseDeleteResponse reports a deleted purchase.
type PurchaseDeleteResponse struct {
	Message string `json:"message"`
	purchase.DeleteResult
}
