package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	pkgdb "github.com/karmafleet/allianceledger/pkg/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db   *gorm.DB
	node *snowflake.Node
}

func Provide(db *gorm.DB, node *snowflake.Node) domain.Repository {
	return &repo{db: db, node: node}
}

func (r *repo) GetOrCreateUserAccount(ctx context.Context, userID snowflake.ID) (*domain.UserAccount, error) {
	var account domain.UserAccount
	err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = domain.UserAccount{
		ID:      r.node.Generate(),
		UserID:  userID,
		Balance: decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&account).Error; err != nil {
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
		// A concurrent writer won the insert; take their row.
		if err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error; err != nil {
			return nil, err
		}
	}
	return &account, nil
}

func (r *repo) GetOrCreateCorporationAccount(ctx context.Context, corporationID int64) (*domain.CorporationAccount, error) {
	var account domain.CorporationAccount
	err := r.db.WithContext(ctx).First(&account, "corporation_id = ?", corporationID).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = domain.CorporationAccount{
		ID:            r.node.Generate(),
		CorporationID: corporationID,
		Balance:       decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&account).Error; err != nil {
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
		if err := r.db.WithContext(ctx).First(&account, "corporation_id = ?", corporationID).Error; err != nil {
			return nil, err
		}
	}
	return &account, nil
}

func (r *repo) AddUserEntry(ctx context.Context, entry *domain.UserLedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		err := tx.Exec(
			`UPDATE user_accounts SET balance = balance + ?, updated_at = ? WHERE id = ?`,
			entry.Amount, time.Now().UTC(), entry.AccountID,
		).Error
		if err != nil {
			return err
		}
		var account domain.UserAccount
		if err := tx.First(&account, "id = ?", entry.AccountID).Error; err != nil {
			return err
		}
		entry.Balance = account.Balance
		return tx.Model(&domain.UserLedgerEntry{}).
			Where("id = ?", entry.ID).
			Update("balance", account.Balance).Error
	})
}

func (r *repo) AddCorporationEntry(ctx context.Context, entry *domain.CorporationLedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		err := tx.Exec(
			`UPDATE corporation_accounts SET balance = balance + ?, updated_at = ? WHERE id = ?`,
			entry.Amount, time.Now().UTC(), entry.AccountID,
		).Error
		if err != nil {
			return err
		}
		var account domain.CorporationAccount
		if err := tx.First(&account, "id = ?", entry.AccountID).Error; err != nil {
			return err
		}
		entry.Balance = account.Balance
		return tx.Model(&domain.CorporationLedgerEntry{}).
			Where("id = ?", entry.ID).
			Update("balance", account.Balance).Error
	})
}

func (r *repo) CreateUnclaimed(ctx context.Context, row *domain.UnclaimedTax) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repo) ListUnclaimed(ctx context.Context) ([]domain.UnclaimedTax, error) {
	var rows []domain.UnclaimedTax
	err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) DeleteUnclaimed(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.UnclaimedTax{}, "id = ?", id).Error
}

func (r *repo) OutstandingUserAccounts(ctx context.Context) ([]domain.UserAccount, error) {
	var accounts []domain.UserAccount
	err := r.db.WithContext(ctx).Where("balance < 0").Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) OutstandingCorporationAccounts(ctx context.Context) ([]domain.CorporationAccount, error) {
	var accounts []domain.CorporationAccount
	err := r.db.WithContext(ctx).Where("balance < 0").Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) OverdueCorporationAccounts(ctx context.Context, cutoff time.Time) ([]domain.CorporationAccount, error) {
	var accounts []domain.CorporationAccount
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT a.id, a.corporation_id, a.balance, a.created_at, a.updated_at
		 FROM corporation_accounts a
		 JOIN corporation_ledger_entries e ON e.account_id = a.id
		 WHERE a.balance < 0 AND e.created_at < ?`,
		cutoff,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) TotalUserBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Raw(`SELECT SUM(balance) FROM user_accounts`).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repo) TotalCorporationBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Raw(`SELECT SUM(balance) FROM corporation_accounts`).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repo) GetPaymentCursor(ctx context.Context) (*domain.PaymentCursor, error) {
	var cursor domain.PaymentCursor
	err := r.db.WithContext(ctx).First(&cursor, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *repo) AdvancePaymentCursor(ctx context.Context, to time.Time) error {
	cursor := domain.PaymentCursor{ID: 1, LastPaymentAt: to}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_payment_at"}),
		}).
		Create(&cursor).Error
}
