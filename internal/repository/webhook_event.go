package repository

import (
	"context"
	"time"

	"polar-billing-bridge/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookEventRepository interface {
	Record(ctx context.Context, eventType, payload, disposition string) error
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) Record(ctx context.Context, eventType, payload, disposition string) error {
	return r.db.WithContext(ctx).Create(&model.WebhookEventLog{
		ID:          uuid.NewString(),
		EventType:   eventType,
		Payload:     payload,
		Disposition: disposition,
		ReceivedAt:  time.Now(),
	}).Error
}
