package model

import "time"

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusCanceled  = "canceled"

	SubStatusFree     = "free"
	SubStatusActive   = "active"
	SubStatusCanceled = "canceled"

	VerifiedViaPolarOrder = "polar_order"
)

// Transaction is one purchase attempt. Its id doubles as the correlation
// reference round-tripped through Polar checkout metadata.
type Transaction struct {
	ID                  string `gorm:"primaryKey;size:64;not null"`
	Status              string `gorm:"size:32;index;not null"` // pending, completed, canceled or raw provider status
	PlanID              string `gorm:"size:32"`
	BusinessID          string `gorm:"size:64;index"`
	CheckoutID          string `gorm:"size:64;index"` // secondary lookup key once set
	CheckoutURL         string
	CheckoutStatus      string `gorm:"size:32"`
	PolarSubscriptionID string `gorm:"size:64"`
	PolarProductID      string `gorm:"size:64"`
	OrderID             string `gorm:"size:64"`
	VerifiedVia         string `gorm:"size:32"`
	CheckoutCreatedAt   *time.Time
	CompletedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Subscription is embedded in Business. Writes go through column-level
// Updates maps so one transition never clobbers fields set by another.
type Subscription struct {
	Plan                string `gorm:"size:32"`
	Status              string `gorm:"size:32"` // free, active, canceled, trialing or raw provider status
	PolarSubscriptionID string `gorm:"size:64"`
	CustomerID          string `gorm:"size:64"`
	ProductID           string `gorm:"size:64"`
	TransactionID       string `gorm:"size:64"`
	StartDate           *time.Time
	EndDate             *time.Time
	CanceledAt          *time.Time
	UpdatedAt           *time.Time
}

// Business is a tenant. CompanyCode is the external handle; callers may
// address a business by either the document id or the code.
type Business struct {
	ID           string       `gorm:"primaryKey;size:64;not null"`
	CompanyCode  string       `gorm:"size:64;index;not null"`
	Subscription Subscription `gorm:"embedded;embeddedPrefix:subscription_"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSubscription reports whether a subscription has ever been set up.
// Businesses are provisioned upstream with these columns empty.
func (b *Business) HasSubscription() bool {
	return b.Subscription.Status != "" || b.Subscription.Plan != ""
}

// WebhookEventLog is the audit trail row for every received billing event.
type WebhookEventLog struct {
	ID          string `gorm:"primaryKey;size:36;not null"`
	EventType   string `gorm:"size:64;index"`
	Payload     string `gorm:"type:text"`
	Disposition string `gorm:"size:64"`
	ReceivedAt  time.Time
}

// CheckoutRedirect records a hit on the payment-success page.
type CheckoutRedirect struct {
	ID            string `gorm:"primaryKey;size:36;not null"`
	CheckoutID    string `gorm:"size:64;index"`
	TransactionID string `gorm:"size:64"`
	CreatedAt     time.Time
}
