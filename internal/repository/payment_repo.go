package repository

import (
	"context"
	"errors"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository persists the local projection of tracked payments.
// The authority stays the source of truth; rows here exist for audit and for
// surviving restarts without losing the notification high-water mark.
type PaymentRepository interface {
	Upsert(ctx context.Context, p *domain.TrackedPayment) error
	GetByID(ctx context.Context, id string) (*domain.TrackedPayment, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	SetLastNotifiedStatus(ctx context.Context, id string, status domain.Status) error
	ListNonTerminal(ctx context.Context) ([]domain.TrackedPayment, error)
}

type GormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) *GormPaymentRepo {
	return &GormPaymentRepo{db: db}
}

var _ PaymentRepository = (*GormPaymentRepo)(nil)

func (r *GormPaymentRepo) Upsert(ctx context.Context, p *domain.TrackedPayment) error {
	model := paymentModelFromDomain(p)
	if model == nil {
		return domain.ErrValidation
	}

	// Status is refreshed on conflict; lastNotifiedStatus is owned by the
	// dedup flow and never touched here.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}

	*p = *paymentModelToDomain(model)
	return nil
}

func (r *GormPaymentRepo) GetByID(ctx context.Context, id string) (*domain.TrackedPayment, error) {
	var model PaymentModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return paymentModelToDomain(&model), nil
}

func (r *GormPaymentRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormPaymentRepo) SetLastNotifiedStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", id).
		Update("last_notified_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormPaymentRepo) ListNonTerminal(ctx context.Context) ([]domain.TrackedPayment, error) {
	var models []PaymentModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.Status{domain.StatusPending, domain.StatusUnderReview}).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	payments := make([]domain.TrackedPayment, 0, len(models))
	for i := range models {
		payments = append(payments, *paymentModelToDomain(&models[i]))
	}

	return payments, nil
}
