package service

import (
	"context"
	"errors"
	"fmt"

	"polar-billing-bridge/internal/client"
	"polar-billing-bridge/internal/config"
	"polar-billing-bridge/internal/dto"
	"polar-billing-bridge/internal/model"
	"polar-billing-bridge/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type BillingService interface {
	CreateCheckout(ctx context.Context, principalUID, principalEmail string, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error)
	CancelSubscription(ctx context.Context, businessCode string) error
	TransactionStatus(ctx context.Context, transactionID string) (string, error)
	RecordSuccessRedirect(ctx context.Context, checkoutID string) string
}

type billingServiceImpl struct {
	polarClient  client.PolarClient
	successURL   string
	txRepo       repository.TransactionRepository
	businessRepo repository.BusinessRepository
	redirectRepo repository.RedirectRepository
}

func NewBillingService(
	polarClient client.PolarClient,
	successURL string,
	txRepo repository.TransactionRepository,
	businessRepo repository.BusinessRepository,
	redirectRepo repository.RedirectRepository,
) BillingService {
	return &billingServiceImpl{
		polarClient:  polarClient,
		successURL:   successURL,
		txRepo:       txRepo,
		businessRepo: businessRepo,
		redirectRepo: redirectRepo,
	}
}

// CreateCheckout verifies the pending transaction, opens a Polar checkout
// session carrying the correlation metadata, and persists the session
// binding before the response leaves the process. If the client disconnects
// after the provider call, the binding is still recoverable from the store.
func (s *billingServiceImpl) CreateCheckout(ctx context.Context, principalUID, principalEmail string, req *dto.CreateCheckoutRequest) (*dto.CreateCheckoutResponse, error) {
	tx, err := s.txRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("load transaction: %w", err)
	}

	if tx.Status != model.TxStatusPending {
		return nil, ErrNotPending
	}

	productID, ok := config.ProductForPlan(req.PlanID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	email := req.CustomerEmail
	if email == "" {
		email = principalEmail
	}

	checkout, err := s.polarClient.CreateCheckout(ctx, &client.CreateCheckoutParams{
		ProductID:     productID,
		SuccessURL:    s.successURL,
		CustomerEmail: email,
		Metadata: map[string]string{
			"transactionId": req.TransactionID,
			"businessId":    req.BusinessID,
			"planId":        req.PlanID,
			"uid":           principalUID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("polar create checkout: %w", err)
	}

	if err := s.txRepo.BindCheckout(ctx, tx.ID, checkout.ID, checkout.URL, checkout.Status); err != nil {
		// The session exists at Polar but the binding write failed. Rare
		// orphan window accepted; make it loud for operational follow-up.
		logrus.WithFields(logrus.Fields{
			"transactionId": tx.ID,
			"checkoutId":    checkout.ID,
		}).WithError(err).Error("checkout created but binding write failed")
		return nil, fmt.Errorf("store checkout binding: %w", err)
	}

	return &dto.CreateCheckoutResponse{CheckoutURL: checkout.URL}, nil
}

// CancelSubscription revokes at Polar when an id is on file and resets the
// local subscription to free/canceled. "Already canceled" and "not found"
// provider responses are benign; any other provider failure aborts with no
// local mutation so the two sides cannot silently diverge.
func (s *billingServiceImpl) CancelSubscription(ctx context.Context, businessCode string) error {
	business, err := s.businessRepo.GetByCompanyCode(ctx, businessCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("load business: %w", err)
	}

	if !business.HasSubscription() {
		return ErrNoSubscription
	}

	subscriptionID := business.Subscription.PolarSubscriptionID
	if subscriptionID != "" {
		outcome, err := s.polarClient.RevokeSubscription(ctx, subscriptionID)
		if err != nil {
			return fmt.Errorf("polar revoke subscription: %w", err)
		}
		switch outcome {
		case client.CancelAlreadyDone:
			logrus.WithField("polarSubscriptionId", subscriptionID).
				Warn("subscription already canceled at Polar, updating locally")
		case client.CancelNotFound:
			logrus.WithField("polarSubscriptionId", subscriptionID).
				Warn("subscription not found at Polar, updating locally")
		}
	} else {
		logrus.WithField("companyCode", businessCode).
			Warn("no polarSubscriptionId on file, forcing local cancel")
	}

	if err := s.businessRepo.CancelSubscription(ctx, business.ID); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	return nil
}

func (s *billingServiceImpl) TransactionStatus(ctx context.Context, transactionID string) (string, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTransactionNotFound
		}
		return "", fmt.Errorf("load transaction: %w", err)
	}

	return tx.Status, nil
}

// RecordSuccessRedirect resolves the owning transaction by checkout id and
// writes the audit row. Best effort all the way; the success page renders
// regardless.
func (s *billingServiceImpl) RecordSuccessRedirect(ctx context.Context, checkoutID string) string {
	if checkoutID == "" {
		return ""
	}

	transactionID := ""
	tx, err := s.txRepo.FindByCheckoutID(ctx, checkoutID)
	if err == nil {
		transactionID = tx.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithField("checkoutId", checkoutID).WithError(err).
			Warn("transaction lookup for redirect failed")
	}

	if err := s.redirectRepo.Record(ctx, checkoutID, transactionID); err != nil {
		logrus.WithField("checkoutId", checkoutID).WithError(err).
			Warn("record checkout redirect failed")
	}

	return transactionID
}
