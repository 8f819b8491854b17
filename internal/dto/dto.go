package dto

type CreateCheckoutRequest struct {
	PlanID        string `json:"planId" validate:"required"`
	BusinessID    string `json:"businessId" validate:"required"`
	TransactionID string `json:"transactionId" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
}

type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

type CancelSubscriptionRequest struct {
	BusinessID string `json:"businessId" validate:"required"`
}

type TransactionStatusResponse struct {
	Status string `json:"status"`
}
