package repository

import (
	"context"
	"time"

	"polar-billing-bridge/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedirectRepository interface {
	Record(ctx context.Context, checkoutID, transactionID string) error
}

type redirectRepoImpl struct {
	db *gorm.DB
}

func NewRedirectRepository(db *gorm.DB) RedirectRepository {
	return &redirectRepoImpl{db: db}
}

func (r *redirectRepoImpl) Record(ctx context.Context, checkoutID, transactionID string) error {
	return r.db.WithContext(ctx).Create(&model.CheckoutRedirect{
		ID:            uuid.NewString(),
		CheckoutID:    checkoutID,
		TransactionID: transactionID,
		CreatedAt:     time.Now(),
	}).Error
}
