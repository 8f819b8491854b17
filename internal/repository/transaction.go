package repository

import (
	"context"
	"time"

	"polar-billing-bridge/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	FindByCheckoutID(ctx context.Context, checkoutID string) (*model.Transaction, error)
	BindCheckout(ctx context.Context, id, checkoutID, checkoutURL, checkoutStatus string) error
	UpdateCheckoutStatus(ctx context.Context, id, checkoutID, checkoutStatus string) (bool, error)
	MarkCompleted(ctx context.Context, id, orderID, verifiedVia string) (bool, error)
	MirrorProviderStatus(ctx context.Context, id, status, subscriptionID, productID string) (bool, error)
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{
		db: db,
	}
}

func (r *transactionRepoImpl) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tx).Error

	if err != nil {
		return nil, err
	}

	return &tx, nil
}

func (r *transactionRepoImpl) FindByCheckoutID(ctx context.Context, checkoutID string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).
		Where("checkout_id = ?", checkoutID).
		First(&tx).Error

	if err != nil {
		return nil, err
	}

	return &tx, nil
}

// BindCheckout persists the session binding created by the checkout
// initiator. Called before the HTTP response goes out.
func (r *transactionRepoImpl) BindCheckout(ctx context.Context, id, checkoutID, checkoutURL, checkoutStatus string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"checkout_id":         checkoutID,
			"checkout_url":        checkoutURL,
			"checkout_status":     checkoutStatus,
			"checkout_created_at": now,
			"updated_at":          now,
		}).Error
}

// UpdateCheckoutStatus mirrors a checkout.* event onto the transaction.
// Never touches the transaction status.
func (r *transactionRepoImpl) UpdateCheckoutStatus(ctx context.Context, id, checkoutID, checkoutStatus string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"checkout_id":     checkoutID,
			"checkout_status": checkoutStatus,
			"updated_at":      time.Now(),
		})

	return result.RowsAffected > 0, result.Error
}

// MarkCompleted transitions the transaction to completed, guarded at write
// time so a replayed event cannot re-fire side effects. Returns whether the
// guard let the update through.
func (r *transactionRepoImpl) MarkCompleted(ctx context.Context, id, orderID, verifiedVia string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status <> ?", id, model.TxStatusCompleted).
		Updates(map[string]interface{}{
			"status":       model.TxStatusCompleted,
			"order_id":     orderID,
			"verified_via": verifiedVia,
			"completed_at": now,
			"updated_at":   now,
		})

	return result.RowsAffected > 0, result.Error
}

// MirrorProviderStatus applies a subscription.* event to the transaction.
// A completed transaction never regresses to an earlier-looking status.
func (r *transactionRepoImpl) MirrorProviderStatus(ctx context.Context, id, status, subscriptionID, productID string) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if subscriptionID != "" {
		updates["polar_subscription_id"] = subscriptionID
	}
	if productID != "" {
		updates["polar_product_id"] = productID
	}

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status <> ?", id, model.TxStatusCompleted).
		Updates(updates)

	return result.RowsAffected > 0, result.Error
}
