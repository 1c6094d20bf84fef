package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/registry/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) FindUser(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindOwner(ctx context.Context, characterID int64) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Raw(
		`SELECT u.id, u.username, u.state, u.main_character_id, u.created_at, u.updated_at
		 FROM users u
		 JOIN character_ownerships co ON co.user_id = u.id
		 WHERE co.character_id = ?`,
		characterID,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) MainCharacter(ctx context.Context, user *domain.User) (*domain.Character, error) {
	if user == nil || user.MainCharacterID == nil {
		return nil, nil
	}
	return r.FindCharacter(ctx, *user.MainCharacterID)
}

func (r *repo) FindCorporation(ctx context.Context, corporationID int64) (*domain.Corporation, error) {
	var corporation domain.Corporation
	err := r.db.WithContext(ctx).First(&corporation, "corporation_id = ?", corporationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &corporation, nil
}

func (r *repo) FindCorporationsByIDs(ctx context.Context, ids []int64) ([]*domain.Corporation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var corporations []*domain.Corporation
	err := r.db.WithContext(ctx).
		Where("corporation_id IN ?", ids).
		Find(&corporations).Error
	if err != nil {
		return nil, err
	}
	return corporations, nil
}

func (r *repo) SaveCorporation(ctx context.Context, corporation *domain.Corporation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "corporation_id"}},
			UpdateAll: true,
		}).
		Create(corporation).Error
}

func (r *repo) ListCorporationIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&domain.Corporation{}).
		Order("corporation_id").
		Pluck("corporation_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) FindCharacter(ctx context.Context, characterID int64) (*domain.Character, error) {
	var character domain.Character
	err := r.db.WithContext(ctx).First(&character, "character_id = ?", characterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &character, nil
}

func (r *repo) FindCharacterByName(ctx context.Context, name string) (*domain.Character, error) {
	var character domain.Character
	err := r.db.WithContext(ctx).First(&character, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &character, nil
}

func (r *repo) SaveCharacter(ctx context.Context, character *domain.Character) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "character_id"}},
			UpdateAll: true,
		}).
		Create(character).Error
}

func (r *repo) FindAlliance(ctx context.Context, allianceID int64) (*domain.Alliance, error) {
	var alliance domain.Alliance
	err := r.db.WithContext(ctx).First(&alliance, "alliance_id = ?", allianceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alliance, nil
}

func (r *repo) SaveAlliance(ctx context.Context, alliance *domain.Alliance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "alliance_id"}},
			UpdateAll: true,
		}).
		Create(alliance).Error
}

func (r *repo) MainCountsByState(ctx context.Context, state string) ([]domain.MainCount, error) {
	var counts []domain.MainCount
	err := r.db.WithContext(ctx).Raw(
		`SELECT c.corporation_id AS corporation_id, COUNT(u.id) AS mains
		 FROM users u
		 JOIN characters c ON c.character_id = u.main_character_id
		 WHERE u.state = ? AND u.username <> ?
		 GROUP BY c.corporation_id`,
		state,
		domain.DeletedUsername,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
