package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func planPreloads(stmt *gorm.DB) *gorm.DB {
	return stmt.
		Preload("RattingRules").
		Preload("RattingRules.Regions").
		Preload("CharacterPayoutRules").
		Preload("CorporationPayoutRules").
		Preload("MemberTaxRules").
		Preload("StructureServiceRules").
		Preload("StructureServiceRules.Regions").
		Preload("ExemptCorporations").
		Preload("IncludedAlliances")
}

func (r *repo) FindPlan(ctx context.Context, id snowflake.ID) (*domain.TaxPlan, error) {
	var plan domain.TaxPlan
	err := planPreloads(r.db.WithContext(ctx)).First(&plan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) ListEnabledPlans(ctx context.Context) ([]*domain.TaxPlan, error) {
	var plans []*domain.TaxPlan
	err := planPreloads(r.db.WithContext(ctx)).
		Where("enabled = ?", true).
		Order("id").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) LastRecordEnd(ctx context.Context, planID snowflake.ID) (*time.Time, error) {
	var record domain.TaxRecord
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("end_date DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	end := record.EndDate
	return &end, nil
}

func (r *repo) InsertRecord(ctx context.Context, record *domain.TaxRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repo) ListRecords(ctx context.Context, planID snowflake.ID, limit int) ([]*domain.TaxRecord, error) {
	stmt := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("end_date DESC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	var records []*domain.TaxRecord
	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) MarkCharacterEntries(ctx context.Context, markers []domain.CharacterTaxMarker) error {
	if len(markers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(markers, 500).Error
}

func (r *repo) MarkCorporationEntries(ctx context.Context, markers []domain.CorporationTaxMarker) error {
	if len(markers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(markers, 500).Error
}

func (r *repo) ListRatePoints(ctx context.Context, corporationID int64) ([]domain.RatePoint, error) {
	var points []domain.RatePoint
	err := r.db.WithContext(ctx).
		Where("corporation_id = ?", corporationID).
		Order("start_date").
		Find(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (r *repo) InsertRatePoints(ctx context.Context, points []domain.RatePoint) error {
	if len(points) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(points, 500).Error
}

func (r *repo) DeleteRatePoints(ctx context.Context, corporationID int64) error {
	return r.db.WithContext(ctx).
		Where("corporation_id = ?", corporationID).
		Delete(&domain.RatePoint{}).Error
}
