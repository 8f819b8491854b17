package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"polar-billing-bridge/internal/model"
	"polar-billing-bridge/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Disposition is the terminal classification of a webhook delivery. All of
// these acknowledge the event; senders retry on non-2xx and none of the
// no-op conditions can become resolvable by retrying.
type Disposition string

const (
	DispositionProcessed        Disposition = "processed"
	DispositionAlreadyCompleted Disposition = "already completed"
	DispositionNoReference      Disposition = "no reference_id"
	DispositionTxNotFound       Disposition = "transaction not found"
	DispositionIgnored          Disposition = "ignored"
)

type WebhookService interface {
	HandleEvent(ctx context.Context, envelope *model.WebhookEnvelope) (Disposition, error)
}

type webhookServiceImpl struct {
	txRepo       repository.TransactionRepository
	businessRepo repository.BusinessRepository
	eventRepo    repository.WebhookEventRepository
}

func NewWebhookService(
	txRepo repository.TransactionRepository,
	businessRepo repository.BusinessRepository,
	eventRepo repository.WebhookEventRepository,
) WebhookService {
	return &webhookServiceImpl{
		txRepo:       txRepo,
		businessRepo: businessRepo,
		eventRepo:    eventRepo,
	}
}

// HandleEvent classifies a billing event, resolves its correlation
// references and applies the idempotent transitions. Deliveries are
// at-least-once with arbitrary reordering, so every write is either a
// re-set of the same fields or guarded at write time.
func (s *webhookServiceImpl) HandleEvent(ctx context.Context, envelope *model.WebhookEnvelope) (Disposition, error) {
	var payload model.EventPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	disposition, err := s.applyEvent(ctx, envelope.Type, &payload)
	if err != nil {
		return disposition, err
	}

	if auditErr := s.eventRepo.Record(ctx, envelope.Type, string(envelope.Data), string(disposition)); auditErr != nil {
		logrus.WithField("type", envelope.Type).WithError(auditErr).
			Warn("webhook audit write failed")
	}

	return disposition, nil
}

func (s *webhookServiceImpl) applyEvent(ctx context.Context, eventType string, payload *model.EventPayload) (Disposition, error) {
	txRef := ResolveTransactionRef(payload)
	log := logrus.WithFields(logrus.Fields{
		"type":        eventType,
		"referenceId": txRef,
	})

	switch {
	case eventType == "checkout.created" || eventType == "checkout.updated":
		if txRef == "" {
			log.Warn("checkout event without reference")
			return DispositionNoReference, nil
		}
		return s.applyCheckoutEvent(ctx, txRef, payload, log)

	case eventType == "order.paid":
		if txRef == "" {
			log.Warn("order.paid without reference")
			return DispositionNoReference, nil
		}
		return s.applyOrderPaid(ctx, txRef, payload, log)

	case strings.HasPrefix(eventType, "subscription."):
		return s.applySubscriptionEvent(ctx, txRef, payload, log)

	default:
		log.Info("event ignored")
		return DispositionIgnored, nil
	}
}

// applyCheckoutEvent binds the checkout session id and raw provider status
// onto the transaction. Never touches the transaction status and never
// advances the business.
func (s *webhookServiceImpl) applyCheckoutEvent(ctx context.Context, txRef string, payload *model.EventPayload, log *logrus.Entry) (Disposition, error) {
	updated, err := s.txRepo.UpdateCheckoutStatus(ctx, txRef, payload.ID, payload.Status)
	if err != nil {
		return "", fmt.Errorf("bind checkout onto transaction: %w", err)
	}
	if !updated {
		log.Warn("checkout event for unknown transaction")
		return DispositionTxNotFound, nil
	}

	log.WithField("checkoutId", payload.ID).Info("checkout bound to transaction")
	return DispositionProcessed, nil
}

// applyOrderPaid is the authoritative completion path. The pending →
// completed transition is guarded at write time; when the guard reports the
// transaction already completed, the whole effect — business advance
// included — is skipped so replays cannot shift the subscription window.
func (s *webhookServiceImpl) applyOrderPaid(ctx context.Context, txRef string, payload *model.EventPayload, log *logrus.Entry) (Disposition, error) {
	tx, err := s.txRepo.GetByID(ctx, txRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("order.paid for unknown transaction")
			return DispositionTxNotFound, nil
		}
		return "", fmt.Errorf("load transaction: %w", err)
	}

	completed, err := s.txRepo.MarkCompleted(ctx, tx.ID, payload.ID, model.VerifiedViaPolarOrder)
	if err != nil {
		return "", fmt.Errorf("mark transaction completed: %w", err)
	}
	if !completed {
		log.Info("transaction already completed, skipping")
		return DispositionAlreadyCompleted, nil
	}

	log.WithField("orderId", payload.ID).Info("transaction completed")

	if tx.BusinessID == "" || tx.PlanID == "" {
		return DispositionProcessed, nil
	}

	// Business advance failures are tolerated as a recoverable
	// inconsistency: logged for operational follow-up, never retried by
	// failing the delivery (the transaction guard above would skip it).
	business, err := s.businessRepo.GetByIDOrCode(ctx, tx.BusinessID)
	if err != nil {
		log.WithField("businessId", tx.BusinessID).WithError(err).
			Error("business not found for completed transaction")
		return DispositionProcessed, nil
	}

	now := time.Now()
	err = s.businessRepo.ActivatePlan(ctx, business.ID, &repository.ActivatePlanParams{
		Plan:                tx.PlanID,
		TransactionID:       tx.ID,
		PolarSubscriptionID: payload.SubscriptionID,
		CustomerID:          payload.CustomerID,
		StartDate:           now,
		EndDate:             now.AddDate(0, 1, 0),
	})
	if err != nil {
		log.WithField("businessId", business.ID).WithError(err).
			Error("business subscription advance failed")
		return DispositionProcessed, nil
	}

	log.WithFields(logrus.Fields{
		"businessId": business.ID,
		"plan":       tx.PlanID,
	}).Info("business subscription activated")
	return DispositionProcessed, nil
}

// applySubscriptionEvent mirrors provider subscription state. The
// transaction side maps active → completed and otherwise carries the
// provider status verbatim; the business side is a field-merge of status
// and provider ids, never the plan or billing window.
func (s *webhookServiceImpl) applySubscriptionEvent(ctx context.Context, txRef string, payload *model.EventPayload, log *logrus.Entry) (Disposition, error) {
	businessRef := ResolveBusinessRef(payload)
	if txRef == "" && businessRef == "" {
		log.Warn("subscription event without any reference")
		return DispositionNoReference, nil
	}

	if txRef != "" {
		status := payload.Status
		if status == model.SubStatusActive {
			status = model.TxStatusCompleted
		}

		updated, err := s.txRepo.MirrorProviderStatus(ctx, txRef, status, payload.ID, payload.ProductID)
		if err != nil {
			return "", fmt.Errorf("mirror subscription status: %w", err)
		}
		if updated {
			log.WithField("status", status).Info("transaction updated from subscription event")
		} else {
			log.Info("transaction update skipped (completed or not found)")
		}

		// Fall back to the businessId stored on the transaction when the
		// event metadata did not carry one.
		if businessRef == "" {
			if tx, err := s.txRepo.GetByID(ctx, txRef); err == nil {
				businessRef = tx.BusinessID
			}
		}
	}

	if businessRef == "" {
		return DispositionProcessed, nil
	}

	business, err := s.businessRepo.GetByCompanyCode(ctx, businessRef)
	if err != nil {
		log.WithField("businessId", businessRef).Warn("business not found for subscription event")
		return DispositionProcessed, nil
	}

	customerID := payload.CustomerID
	if customerID == "" {
		customerID = payload.UserID
	}

	err = s.businessRepo.MergeSubscription(ctx, business.ID, &repository.SubscriptionMergeParams{
		Status:              payload.Status,
		PolarSubscriptionID: payload.ID,
		CustomerID:          customerID,
		ProductID:           payload.ProductID,
	})
	if err != nil {
		log.WithField("businessId", business.ID).WithError(err).
			Error("business subscription merge failed")
		return DispositionProcessed, nil
	}

	log.WithFields(logrus.Fields{
		"businessId": business.ID,
		"status":     payload.Status,
	}).Info("business subscription merged")
	return DispositionProcessed, nil
}
