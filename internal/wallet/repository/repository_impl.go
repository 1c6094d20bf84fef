package repository

import (
	"context"
	"strings"
	"time"

	"github.com/karmafleet/allianceledger/internal/wallet/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) ListCharacterEntries(ctx context.Context, q domain.CharacterEntryQuery) ([]domain.CharacterEntryRow, error) {
	var sql strings.Builder
	args := make([]any, 0, 8)

	sql.WriteString(
		`SELECT j.entry_id, j.character_id, c.name AS character_name, c.corporation_id AS corporation_id,
		        j.amount, j.tax, j.date,
		        COALESCE(mc.name, c.name) AS main_name,
		        COALESCE(mc.corporation_id, c.corporation_id) AS main_corporation_id,
		        COALESCE(mc.alliance_id, c.alliance_id) AS main_alliance_id
		 FROM character_journal_entries j
		 JOIN characters c ON c.character_id = j.character_id
		 LEFT JOIN character_ownerships co ON co.character_id = j.character_id
		 LEFT JOIN users u ON u.id = co.user_id
		 LEFT JOIN characters mc ON mc.character_id = u.main_character_id
		 WHERE j.ref_type IN ? AND j.date >= ? AND j.date <= ?
		   AND NOT EXISTS (
		     SELECT 1 FROM character_tax_markers m
		     WHERE m.entry_id = j.entry_id AND m.processed
		   )`)
	args = append(args, q.RefTypes, q.Start, q.End)

	if len(q.RegionIDs) > 0 {
		sql.WriteString(` AND j.context_id IN (SELECT s.system_id FROM solar_systems s WHERE s.region_id IN ?)`)
		args = append(args, q.RegionIDs)
	}
	if len(q.FirstPartyIDs) > 0 {
		sql.WriteString(` AND j.first_party_id IN ?`)
		args = append(args, q.FirstPartyIDs)
	}
	if len(q.AllianceIDs) > 0 {
		sql.WriteString(` AND COALESCE(mc.alliance_id, c.alliance_id) IN ?`)
		args = append(args, q.AllianceIDs)
	}
	sql.WriteString(` ORDER BY j.date, j.entry_id`)

	var rows []domain.CharacterEntryRow
	err := r.db.WithContext(ctx).Raw(sql.String(), args...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListCorporationEntries(ctx context.Context, q domain.CorporationEntryQuery) ([]domain.CorporationEntryRow, error) {
	var sql strings.Builder
	args := make([]any, 0, 4)

	sql.WriteString(
		`SELECT j.entry_id, j.corporation_id, j.amount, j.tax, j.date,
		        COALESCE(sc.name, '') AS second_party_name
		 FROM corporation_journal_entries j
		 LEFT JOIN characters sc ON sc.character_id = j.second_party_id
		 WHERE j.ref_type IN ? AND j.date >= ? AND j.date <= ?
		   AND (j.first_party_id IS NULL OR j.first_party_id <> j.corporation_id)
		   AND NOT EXISTS (
		     SELECT 1 FROM corporation_tax_markers m
		     WHERE m.entry_id = j.entry_id AND m.processed
		   )`)
	args = append(args, q.RefTypes, q.Start, q.End)

	if len(q.FirstPartyIDs) > 0 {
		sql.WriteString(` AND j.first_party_id IN ?`)
		args = append(args, q.FirstPartyIDs)
	}
	sql.WriteString(` ORDER BY j.date, j.entry_id`)

	var rows []domain.CorporationEntryRow
	err := r.db.WithContext(ctx).Raw(sql.String(), args...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListBankPayments(ctx context.Context, bankCorporationID int64, refTypes []string, after time.Time, minAmount decimal.Decimal) ([]domain.PaymentRow, error) {
	var rows []domain.PaymentRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT j.entry_id, j.ref_type, j.amount, j.date, j.context_id, j.first_party_id, j.second_party_id, j.reason
		 FROM corporation_journal_entries j
		 WHERE j.corporation_id = ? AND j.ref_type IN ? AND j.amount > ? AND j.date > ?
		 ORDER BY j.date, j.entry_id`,
		bankCorporationID,
		refTypes,
		minAmount,
		after,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CountServicesByCorporation(ctx context.Context, q domain.ServiceCountQuery) ([]domain.ServiceCount, error) {
	var sql strings.Builder
	args := make([]any, 0, 4)

	sql.WriteString(
		`SELECT st.corporation_id, COUNT(sv.id) AS count
		 FROM structure_services sv
		 JOIN structures st ON st.structure_id = sv.structure_id
		 JOIN corporations corp ON corp.corporation_id = st.corporation_id
		 WHERE sv.name IN ? AND corp.last_structure_update >= ?`)
	args = append(args, q.ServiceNames, q.UpdatedSince)

	if len(q.TypeIDs) > 0 {
		sql.WriteString(` AND st.type_id IN ?`)
		args = append(args, q.TypeIDs)
	}
	if len(q.RegionIDs) > 0 {
		sql.WriteString(` AND st.system_id IN (SELECT s.system_id FROM solar_systems s WHERE s.region_id IN ?)`)
		args = append(args, q.RegionIDs)
	}
	sql.WriteString(` GROUP BY st.corporation_id`)

	var counts []domain.ServiceCount
	err := r.db.WithContext(ctx).Raw(sql.String(), args...).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repo) ListNotificationsByType(ctx context.Context, characterIDs []int64, notificationType string) ([]domain.Notification, error) {
	stmt := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("type = ?", notificationType)
	if len(characterIDs) > 0 {
		stmt = stmt.Where("character_id IN ?", characterIDs)
	}
	var notifications []domain.Notification
	err := stmt.Order("timestamp").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
