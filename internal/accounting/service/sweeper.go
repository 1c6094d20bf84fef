package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/config"
	"github.com/karmafleet/allianceledger/internal/metrics"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	refTypeCorporationWithdrawal = "corporation_account_withdrawal"
	refTypePlayerDonation        = "player_donation"
)

// Sweeper records incoming payments from the bank corporation's wallet
// journal as ledger deposits.
type Sweeper struct {
	repo     domain.Repository
	wallet   walletdomain.Repository
	registry registrydomain.Service
	owners   registrydomain.Repository
	poster   domain.Poster
	settings *config.BankSettingsHolder
	clk      clock.Clock
	log      *zap.Logger
}

func NewSweeper(
	repo domain.Repository,
	wallet walletdomain.Repository,
	registry registrydomain.Service,
	owners registrydomain.Repository,
	poster domain.Poster,
	settings *config.BankSettingsHolder,
	clk clock.Clock,
	log *zap.Logger,
) *Sweeper {
	return &Sweeper{
		repo:     repo,
		wallet:   wallet,
		registry: registry,
		owners:   owners,
		poster:   poster,
		settings: settings,
		clk:      clk,
		log:      log.Named("accounting.sweeper"),
	}
}

// CheckForPayments processes bank journal rows newer than the stored
// high-water mark. Dust below 1 ISK and transfers from ignored
// corporations are skipped.
func (s *Sweeper) CheckForPayments(ctx context.Context) error {
	settings := s.settings.Get()
	if settings.BankCorporationID == 0 {
		s.log.Warn("bank corporation not configured, skipping payment sweep")
		return nil
	}

	cursor, err := s.repo.GetPaymentCursor(ctx)
	if err != nil {
		return fmt.Errorf("payment cursor: %w", err)
	}
	if cursor == nil {
		// First run: start from now so historic journal rows are not
		// re-billed as payments.
		return s.repo.AdvancePaymentCursor(ctx, s.clk.Now())
	}

	refs := []string{refTypeCorporationWithdrawal, refTypePlayerDonation}
	payments, err := s.wallet.ListBankPayments(ctx, settings.BankCorporationID, refs, cursor.LastPaymentAt, decimal.NewFromInt(1))
	if err != nil {
		return fmt.Errorf("list bank payments: %w", err)
	}

	ignored := make(map[int64]bool, len(settings.IgnoredCorporationIDs))
	for _, id := range settings.IgnoredCorporationIDs {
		ignored[id] = true
	}

	filtered := payments[:0]
	for _, payment := range payments {
		if payment.FirstPartyID != nil && ignored[*payment.FirstPartyID] {
			continue
		}
		filtered = append(filtered, payment)
	}
	if len(filtered) == 0 {
		s.log.Debug("no new payments found")
		return nil
	}

	// Advance the mark up front; a partial failure is retried manually
	// rather than double-deposited.
	newest := filtered[len(filtered)-1].Date
	if err := s.repo.AdvancePaymentCursor(ctx, newest); err != nil {
		return fmt.Errorf("advance payment cursor: %w", err)
	}

	var errs []error
	for _, payment := range filtered {
		var err error
		switch payment.RefType {
		case refTypeCorporationWithdrawal:
			err = s.recordCorporationPayment(ctx, payment)
		case refTypePlayerDonation:
			err = s.recordPlayerPayment(ctx, payment)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("payment %d: %w", payment.EntryID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Sweeper) recordCorporationPayment(ctx context.Context, payment walletdomain.PaymentRow) error {
	if payment.FirstPartyID == nil || payment.ContextID == nil {
		s.log.Warn("skipping corporation payment with missing parties",
			zap.Int64("entry_id", payment.EntryID),
		)
		return nil
	}
	corporation, err := s.registry.GetOrCreateCorporation(ctx, *payment.FirstPartyID)
	if err != nil {
		return err
	}
	character, err := s.registry.GetOrCreateCharacter(ctx, *payment.ContextID)
	if err != nil {
		return err
	}

	description := fmt.Sprintf("Corporation Payment made by %s", character.Name)
	if payment.Reason != "" {
		description += fmt.Sprintf("\n Note: %s", payment.Reason)
	}
	date := payment.Date
	err = s.poster.Post(ctx, domain.CorporationTarget{CorporationID: corporation.CorporationID}, payment.Amount, description, domain.EntryTypeDeposit, &date)
	if err != nil {
		return err
	}
	metrics.Runs().IncPaymentRecorded("corporation")
	s.log.Info("corporation payment recorded",
		zap.Int64("corporation_id", corporation.CorporationID),
		zap.String("amount", payment.Amount.String()),
	)
	return nil
}

func (s *Sweeper) recordPlayerPayment(ctx context.Context, payment walletdomain.PaymentRow) error {
	if payment.FirstPartyID == nil {
		s.log.Warn("skipping player payment with no first party",
			zap.Int64("entry_id", payment.EntryID),
		)
		return nil
	}
	character, err := s.owners.FindCharacter(ctx, *payment.FirstPartyID)
	if err != nil {
		return err
	}
	if character == nil {
		s.log.Warn("skipping payment: unknown character",
			zap.Int64("entry_id", payment.EntryID),
			zap.Int64p("character_id", payment.FirstPartyID),
		)
		return nil
	}
	owner, err := s.owners.FindOwner(ctx, character.CharacterID)
	if err != nil {
		return err
	}
	if owner == nil || owner.Username == registrydomain.DeletedUsername {
		s.log.Warn("skipping payment: no user for character",
			zap.Int64("entry_id", payment.EntryID),
			zap.String("character", character.Name),
		)
		return nil
	}

	description := fmt.Sprintf("Player Payment made by %s", character.Name)
	if payment.Reason != "" {
		description += fmt.Sprintf("\n Note: %s", payment.Reason)
	}
	date := payment.Date
	err = s.poster.Post(ctx, domain.UserTarget{UserID: owner.ID}, payment.Amount, description, domain.EntryTypeDeposit, &date)
	if err != nil {
		return err
	}
	metrics.Runs().IncPaymentRecorded("player")
	s.log.Info("player payment recorded",
		zap.String("username", owner.Username),
		zap.String("amount", payment.Amount.String()),
	)
	return nil
}
