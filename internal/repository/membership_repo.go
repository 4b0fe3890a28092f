package repository

import (
	"context"
	"errors"

	"github.com/fitgrid/settlement-tracker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository caches the authority's membership projection.
type MembershipRepository interface {
	Get(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error)
	Put(ctx context.Context, snapshot *domain.MembershipSnapshot) error
	Delete(ctx context.Context, memberID string) error
}

type GormMembershipRepo struct {
	db *gorm.DB
}

func NewGormMembershipRepo(db *gorm.DB) *GormMembershipRepo {
	return &GormMembershipRepo{db: db}
}

var _ MembershipRepository = (*GormMembershipRepo)(nil)

func (r *GormMembershipRepo) Get(ctx context.Context, memberID string) (*domain.MembershipSnapshot, error) {
	var model MembershipModel
	err := r.db.WithContext(ctx).First(&model, "member_id = ?", memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return membershipModelToDomain(&model), nil
}

func (r *GormMembershipRepo) Put(ctx context.Context, snapshot *domain.MembershipSnapshot) error {
	model := membershipModelFromDomain(snapshot)
	if model == nil {
		return domain.ErrValidation
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "plan_name", "valid_until", "fetched_at"}),
		}).
		Create(model).Error
}

func (r *GormMembershipRepo) Delete(ctx context.Context, memberID string) error {
	return r.db.WithContext(ctx).
		Delete(&MembershipModel{}, "member_id = ?", memberID).Error
}
