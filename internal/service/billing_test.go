package service

import (
	"context"
	"errors"
	"testing"

	"polar-billing-bridge/internal/client"
	"polar-billing-bridge/internal/dto"
	"polar-billing-bridge/internal/model"
	"polar-billing-bridge/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePolarClient struct {
	createCalls int
	checkout    *client.Checkout
	createErr   error

	revokeCalls  int
	revokeIDs    []string
	cancelResult client.CancelOutcome
	revokeErr    error
}

func (f *fakePolarClient) CreateCheckout(ctx context.Context, params *client.CreateCheckoutParams) (*client.Checkout, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.checkout, nil
}

func (f *fakePolarClient) RevokeSubscription(ctx context.Context, subscriptionID string) (client.CancelOutcome, error) {
	f.revokeCalls++
	f.revokeIDs = append(f.revokeIDs, subscriptionID)
	if f.revokeErr != nil {
		return client.CancelOK, f.revokeErr
	}
	return f.cancelResult, nil
}

func newBillingService(t *testing.T, polar *fakePolarClient) (BillingService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewBillingService(
		polar, "https://example.com/payment-success",
		repository.NewTransactionRepository(db),
		repository.NewBusinessRepository(db),
		repository.NewRedirectRepository(db),
	)
	return svc, db
}

func TestCreateCheckoutBindsSessionBeforeReturning(t *testing.T) {
	polar := &fakePolarClient{checkout: &client.Checkout{ID: "chk-1", URL: "https://polar.sh/c/chk-1", Status: "open"}}
	svc, db := newBillingService(t, polar)
	ctx := context.Background()

	seedPendingTransaction(t, db, "tx1", "ACME", "plus")

	resp, err := svc.CreateCheckout(ctx, "uid-1", "user@example.com", &dto.CreateCheckoutRequest{
		PlanID:        "plus",
		BusinessID:    "ACME",
		TransactionID: "tx1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://polar.sh/c/chk-1", resp.CheckoutURL)
	assert.Equal(t, 1, polar.createCalls)

	tx := getTransaction(t, db, "tx1")
	assert.Equal(t, "chk-1", tx.CheckoutID)
	assert.Equal(t, "https://polar.sh/c/chk-1", tx.CheckoutURL)
	assert.NotNil(t, tx.CheckoutCreatedAt)
	assert.Equal(t, model.TxStatusPending, tx.Status)
}

func TestCreateCheckoutTransactionNotFound(t *testing.T) {
	polar := &fakePolarClient{}
	svc, _ := newBillingService(t, polar)

	_, err := svc.CreateCheckout(context.Background(), "uid-1", "", &dto.CreateCheckoutRequest{
		PlanID:        "plus",
		BusinessID:    "ACME",
		TransactionID: "tx-missing",
	})
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.Zero(t, polar.createCalls)
}

func TestCreateCheckoutNotPendingSkipsProviderCall(t *testing.T) {
	polar := &fakePolarClient{}
	svc, db := newBillingService(t, polar)

	require.NoError(t, db.Create(&model.Transaction{
		ID:     "tx1",
		Status: model.TxStatusCompleted,
	}).Error)

	_, err := svc.CreateCheckout(context.Background(), "uid-1", "", &dto.CreateCheckoutRequest{
		PlanID:        "plus",
		BusinessID:    "ACME",
		TransactionID: "tx1",
	})
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Zero(t, polar.createCalls)
}

func TestCreateCheckoutInvalidPlan(t *testing.T) {
	polar := &fakePolarClient{}
	svc, db := newBillingService(t, polar)

	seedPendingTransaction(t, db, "tx1", "ACME", "gold")

	_, err := svc.CreateCheckout(context.Background(), "uid-1", "", &dto.CreateCheckoutRequest{
		PlanID:        "gold",
		BusinessID:    "ACME",
		TransactionID: "tx1",
	})
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.Zero(t, polar.createCalls)
}

func TestCancelSubscriptionRevokesAndResetsLocally(t *testing.T) {
	polar := &fakePolarClient{cancelResult: client.CancelOK}
	svc, db := newBillingService(t, polar)
	ctx := context.Background()

	seedBusiness(t, db, "biz-doc-1", "ACME")
	require.NoError(t, db.Model(&model.Business{}).Where("id = ?", "biz-doc-1").
		Updates(map[string]interface{}{
			"subscription_plan":                  "plus",
			"subscription_status":                model.SubStatusActive,
			"subscription_polar_subscription_id": "sub-1",
		}).Error)

	require.NoError(t, svc.CancelSubscription(ctx, "ACME"))
	assert.Equal(t, []string{"sub-1"}, polar.revokeIDs)

	b := getBusiness(t, db, "biz-doc-1")
	assert.Equal(t, model.SubStatusCanceled, b.Subscription.Status)
	assert.Equal(t, model.SubStatusFree, b.Subscription.Plan)
	assert.NotNil(t, b.Subscription.CanceledAt)
	// sibling field survives the merge
	assert.Equal(t, "sub-1", b.Subscription.PolarSubscriptionID)
}

func TestCancelSubscriptionBenignProviderOutcome(t *testing.T) {
	polar := &fakePolarClient{cancelResult: client.CancelAlreadyDone}
	svc, db := newBillingService(t, polar)

	seedBusiness(t, db, "biz-doc-1", "ACME")
	require.NoError(t, db.Model(&model.Business{}).Where("id = ?", "biz-doc-1").
		Updates(map[string]interface{}{
			"subscription_status":                model.SubStatusActive,
			"subscription_polar_subscription_id": "sub-1",
		}).Error)

	require.NoError(t, svc.CancelSubscription(context.Background(), "ACME"))

	b := getBusiness(t, db, "biz-doc-1")
	assert.Equal(t, model.SubStatusCanceled, b.Subscription.Status)
}

func TestCancelSubscriptionProviderFailureAborts(t *testing.T) {
	polar := &fakePolarClient{revokeErr: errors.New("polar is down")}
	svc, db := newBillingService(t, polar)

	seedBusiness(t, db, "biz-doc-1", "ACME")
	require.NoError(t, db.Model(&model.Business{}).Where("id = ?", "biz-doc-1").
		Updates(map[string]interface{}{
			"subscription_status":                model.SubStatusActive,
			"subscription_polar_subscription_id": "sub-1",
		}).Error)

	err := svc.CancelSubscription(context.Background(), "ACME")
	require.Error(t, err)

	// no local mutation on provider failure
	b := getBusiness(t, db, "biz-doc-1")
	assert.Equal(t, model.SubStatusActive, b.Subscription.Status)
	assert.Nil(t, b.Subscription.CanceledAt)
}

func TestCancelSubscriptionForceCancelWithoutProviderID(t *testing.T) {
	polar := &fakePolarClient{}
	svc, db := newBillingService(t, polar)

	seedBusiness(t, db, "biz-doc-1", "ACME")
	require.NoError(t, db.Model(&model.Business{}).Where("id = ?", "biz-doc-1").
		Update("subscription_status", model.SubStatusActive).Error)

	require.NoError(t, svc.CancelSubscription(context.Background(), "ACME"))
	assert.Zero(t, polar.revokeCalls)

	b := getBusiness(t, db, "biz-doc-1")
	assert.Equal(t, model.SubStatusCanceled, b.Subscription.Status)
	assert.Equal(t, model.SubStatusFree, b.Subscription.Plan)
}

func TestCancelSubscriptionRequiresExistingSubscription(t *testing.T) {
	polar := &fakePolarClient{}
	svc, db := newBillingService(t, polar)

	seedBusiness(t, db, "biz-doc-1", "ACME")

	err := svc.CancelSubscription(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrNoSubscription)

	err = svc.CancelSubscription(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestTransactionStatus(t *testing.T) {
	polar := &fakePolarClient{}
	svc, db := newBillingService(t, polar)

	seedPendingTransaction(t, db, "tx1", "ACME", "plus")

	status, err := svc.TransactionStatus(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusPending, status)

	_, err = svc.TransactionStatus(context.Background(), "tx-missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestRecordSuccessRedirectResolvesTransaction(t *testing.T) {
	polar := &fakePolarClient{}
	svc, db := newBillingService(t, polar)
	ctx := context.Background()

	seedPendingTransaction(t, db, "tx1", "ACME", "plus")
	require.NoError(t, db.Model(&model.Transaction{}).Where("id = ?", "tx1").
		Update("checkout_id", "chk-1").Error)

	assert.Equal(t, "tx1", svc.RecordSuccessRedirect(ctx, "chk-1"))
	assert.Equal(t, "", svc.RecordSuccessRedirect(ctx, "chk-unknown"))
	assert.Equal(t, "", svc.RecordSuccessRedirect(ctx, ""))

	var count int64
	require.NoError(t, db.Model(&model.CheckoutRedirect{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
