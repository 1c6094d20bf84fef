package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	"github.com/karmafleet/allianceledger/internal/clock"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UserDebt is one user account in the red, with the owner's names
// resolved for the report.
type UserDebt struct {
	UserID        snowflake.ID    `json:"user_id"`
	Username      string          `json:"username"`
	MainCharacter string          `json:"main_character,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
}

// CorporationDebt is one corporation account in the red.
type CorporationDebt struct {
	CorporationID int64           `json:"corporation_id"`
	Name          string          `json:"name,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
}

// Statement is a point-in-time debt summary across both ledgers.
// OverdueCorporations is the subset of OutstandingCorporations whose
// oldest unpaid charge predates the report's cutoff.
type Statement struct {
	OutstandingUsers        []UserDebt        `json:"outstanding_users"`
	OutstandingCorporations []CorporationDebt `json:"outstanding_corporations"`
	OverdueCorporations     []CorporationDebt `json:"overdue_corporations"`
	UserTotal               decimal.Decimal   `json:"user_total"`
	CorporationTotal        decimal.Decimal   `json:"corporation_total"`
}

// Reporter summarizes account debt for the periodic statement job.
type Reporter struct {
	repo     domain.Repository
	registry registrydomain.Repository
	clk      clock.Clock
	log      *zap.Logger
}

func NewReporter(repo domain.Repository, registry registrydomain.Repository, clk clock.Clock, log *zap.Logger) *Reporter {
	return &Reporter{
		repo:     repo,
		registry: registry,
		clk:      clk,
		log:      log.Named("accounting.reporter"),
	}
}

// Statement builds the current debt summary. overdueAfter is how long a
// charge may sit unpaid before its corporation counts as overdue.
func (r *Reporter) Statement(ctx context.Context, overdueAfter time.Duration) (*Statement, error) {
	userAccounts, err := r.repo.OutstandingUserAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("outstanding user accounts: %w", err)
	}
	users := make([]UserDebt, 0, len(userAccounts))
	for _, account := range userAccounts {
		debt := UserDebt{UserID: account.UserID, Balance: account.Balance}
		user, err := r.registry.FindUser(ctx, account.UserID)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", account.UserID, err)
		}
		if user == nil {
			r.log.Warn("outstanding account without a user row",
				zap.Int64("user_id", int64(account.UserID)),
			)
		} else {
			debt.Username = user.Username
			main, err := r.registry.MainCharacter(ctx, user)
			if err != nil {
				return nil, fmt.Errorf("main character of user %d: %w", account.UserID, err)
			}
			if main != nil {
				debt.MainCharacter = main.Name
			}
		}
		users = append(users, debt)
	}

	corporationAccounts, err := r.repo.OutstandingCorporationAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("outstanding corporation accounts: %w", err)
	}
	cutoff := r.clk.Now().Add(-overdueAfter)
	overdueAccounts, err := r.repo.OverdueCorporationAccounts(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("overdue corporation accounts: %w", err)
	}

	names, err := r.corporationNames(ctx, corporationAccounts, overdueAccounts)
	if err != nil {
		return nil, err
	}

	userTotal, err := r.repo.TotalUserBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("user balance total: %w", err)
	}
	corporationTotal, err := r.repo.TotalCorporationBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("corporation balance total: %w", err)
	}

	return &Statement{
		OutstandingUsers:        users,
		OutstandingCorporations: corporationDebts(corporationAccounts, names),
		OverdueCorporations:     corporationDebts(overdueAccounts, names),
		UserTotal:               userTotal,
		CorporationTotal:        corporationTotal,
	}, nil
}

func (r *Reporter) corporationNames(ctx context.Context, lists ...[]domain.CorporationAccount) (map[int64]string, error) {
	var ids []int64
	seen := make(map[int64]bool)
	for _, accounts := range lists {
		for _, account := range accounts {
			if !seen[account.CorporationID] {
				seen[account.CorporationID] = true
				ids = append(ids, account.CorporationID)
			}
		}
	}
	corporations, err := r.registry.FindCorporationsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("corporation names: %w", err)
	}
	names := make(map[int64]string, len(corporations))
	for _, corporation := range corporations {
		names[corporation.CorporationID] = corporation.Name
	}
	return names, nil
}

func corporationDebts(accounts []domain.CorporationAccount, names map[int64]string) []CorporationDebt {
	debts := make([]CorporationDebt, 0, len(accounts))
	for _, account := range accounts {
		debts = append(debts, CorporationDebt{
			CorporationID: account.CorporationID,
			Name:          names[account.CorporationID],
			Balance:       account.Balance,
		})
	}
	return debts
}
