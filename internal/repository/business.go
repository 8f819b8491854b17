package repository

import (
	"context"
	"errors"
	"time"

	"polar-billing-bridge/internal/model"

	"gorm.io/gorm"
)

type ActivatePlanParams struct {
	Plan                string
	TransactionID       string
	PolarSubscriptionID string
	CustomerID          string
	StartDate           time.Time
	EndDate             time.Time
}

type SubscriptionMergeParams struct {
	Status              string
	PolarSubscriptionID string
	CustomerID          string
	ProductID           string
}

type BusinessRepository interface {
	GetByIDOrCode(ctx context.Context, ref string) (*model.Business, error)
	GetByCompanyCode(ctx context.Context, code string) (*model.Business, error)
	ActivatePlan(ctx context.Context, id string, params *ActivatePlanParams) error
	MergeSubscription(ctx context.Context, id string, params *SubscriptionMergeParams) error
	CancelSubscription(ctx context.Context, id string) error
}

type businessRepoImpl struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepoImpl{
		db: db,
	}
}

// GetByIDOrCode tries the document id first, then falls back to the
// companyCode query. Transactions store the external handle in businessId
// and the two are used interchangeably upstream.
func (r *businessRepoImpl) GetByIDOrCode(ctx context.Context, ref string) (*model.Business, error) {
	var business model.Business
	err := r.db.WithContext(ctx).
		Where("id = ?", ref).
		First(&business).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.GetByCompanyCode(ctx, ref)
	}
	if err != nil {
		return nil, err
	}

	return &business, nil
}

func (r *businessRepoImpl) GetByCompanyCode(ctx context.Context, code string) (*model.Business, error) {
	var business model.Business
	err := r.db.WithContext(ctx).
		Where("company_code = ?", code).
		First(&business).Error

	if err != nil {
		return nil, err
	}

	return &business, nil
}

// ActivatePlan is the order.paid advance: plan, active status, one-month
// window, provider ids. Column-level updates only — sibling subscription
// fields stay untouched.
func (r *businessRepoImpl) ActivatePlan(ctx context.Context, id string, params *ActivatePlanParams) error {
	updates := map[string]interface{}{
		"subscription_plan":           params.Plan,
		"subscription_status":         model.SubStatusActive,
		"subscription_start_date":     params.StartDate,
		"subscription_end_date":       params.EndDate,
		"subscription_transaction_id": params.TransactionID,
		"subscription_updated_at":     time.Now(),
	}
	if params.PolarSubscriptionID != "" {
		updates["subscription_polar_subscription_id"] = params.PolarSubscriptionID
	}
	if params.CustomerID != "" {
		updates["subscription_customer_id"] = params.CustomerID
	}

	return r.db.WithContext(ctx).Model(&model.Business{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MergeSubscription applies a subscription.* event. Status is always set;
// provider ids only when present so a partial event cannot blank them.
func (r *businessRepoImpl) MergeSubscription(ctx context.Context, id string, params *SubscriptionMergeParams) error {
	updates := map[string]interface{}{
		"subscription_status":     params.Status,
		"subscription_updated_at": time.Now(),
	}
	if params.PolarSubscriptionID != "" {
		updates["subscription_polar_subscription_id"] = params.PolarSubscriptionID
	}
	if params.CustomerID != "" {
		updates["subscription_customer_id"] = params.CustomerID
	}
	if params.ProductID != "" {
		updates["subscription_product_id"] = params.ProductID
	}

	return r.db.WithContext(ctx).Model(&model.Business{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *businessRepoImpl) CancelSubscription(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Business{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_status":      model.SubStatusCanceled,
			"subscription_plan":        model.SubStatusFree,
			"subscription_canceled_at": now,
			"subscription_updated_at":  now,
		}).Error
}
