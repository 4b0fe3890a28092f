package repository

import (
	"context"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"gorm.io/gorm"
)

// TransitionRepository appends reconciliation audit records.
type TransitionRepository interface {
	Create(ctx context.Context, t *domain.StatusTransition) error
	ListByPayment(ctx context.Context, paymentID string) ([]domain.StatusTransition, error)
}

type GormTransitionRepo struct {
	db *gorm.DB
}

func NewGormTransitionRepo(db *gorm.DB) *GormTransitionRepo {
	return &GormTransitionRepo{db: db}
}

var _ TransitionRepository = (*GormTransitionRepo)(nil)

func (r *GormTransitionRepo) Create(ctx context.Context, t *domain.StatusTransition) error {
	model := transitionModelFromDomain(t)
	if model == nil {
		return domain.ErrValidation
	}
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *GormTransitionRepo) ListByPayment(ctx context.Context, paymentID string) ([]domain.StatusTransition, error) {
	var models []TransitionModel
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("observed_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	transitions := make([]domain.StatusTransition, 0, len(models))
	for i := range models {
		transitions = append(transitions, *transitionModelToDomain(&models[i]))
	}

	return transitions, nil
}
