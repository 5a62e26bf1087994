package orders

import (
	"github.com/google/uuid"
)

// OrderLineInput is one requested line at order creation.
type OrderLineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	BuyerRef      string           `json:"buyer_ref" validate:"required,max=255"`
	Currency      string           `json:"currency" validate:"omitempty,oneof=EUR USD GBP"`
	AffiliateCode string           `json:"affiliate_code" validate:"omitempty,max=64"`
	Lines         []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
}
