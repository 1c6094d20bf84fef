package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/metrics"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type poster struct {
	repo     domain.Repository
	registry registrydomain.Repository
	clk      clock.Clock
	node     *snowflake.Node
	log      *zap.Logger
}

func NewPoster(repo domain.Repository, registry registrydomain.Repository, clk clock.Clock, node *snowflake.Node, log *zap.Logger) domain.Poster {
	return &poster{
		repo:     repo,
		registry: registry,
		clk:      clk,
		node:     node,
		log:      log.Named("accounting.poster"),
	}
}

func (p *poster) Post(ctx context.Context, target domain.Target, amount decimal.Decimal, description string, entryType domain.EntryType, at *time.Time) error {
	if !entryType.Valid() {
		return fmt.Errorf("%q: %w", entryType, domain.ErrInvalidEntryType)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%s: %w", amount, domain.ErrNonPositiveAmount)
	}

	// Anything other than a deposit debits the account.
	signed := amount
	if entryType != domain.EntryTypeDeposit {
		signed = amount.Neg()
	}

	postedAt := p.clk.Now()
	if at != nil {
		postedAt = *at
	}

	switch t := target.(type) {
	case domain.UserTarget:
		return p.postToUser(ctx, t.UserID, nil, signed, description, entryType, postedAt)

	case domain.CharacterTarget:
		owner, err := p.registry.FindOwner(ctx, t.CharacterID)
		if err != nil {
			return fmt.Errorf("resolve owner of character %d: %w", t.CharacterID, err)
		}
		if owner == nil || owner.Username == registrydomain.DeletedUsername {
			err := p.repo.CreateUnclaimed(ctx, &domain.UnclaimedTax{
				ID:          p.node.Generate(),
				CharacterID: t.CharacterID,
				Amount:      signed,
				Description: description,
				EntryType:   entryType,
				CreatedAt:   postedAt,
			})
			if err != nil {
				return err
			}
			metrics.Runs().IncUnclaimedCreated()
			p.log.Info("posting parked as unclaimed",
				zap.Int64("character_id", t.CharacterID),
				zap.String("entry_type", string(entryType)),
			)
			return nil
		}
		characterID := t.CharacterID
		return p.postToUser(ctx, owner.ID, &characterID, signed, description, entryType, postedAt)

	case domain.CorporationTarget:
		account, err := p.repo.GetOrCreateCorporationAccount(ctx, t.CorporationID)
		if err != nil {
			return err
		}
		entry := &domain.CorporationLedgerEntry{
			ID:          p.node.Generate(),
			AccountID:   account.ID,
			Amount:      signed,
			Description: description,
			EntryType:   entryType,
			CreatedAt:   postedAt,
		}
		if err := p.repo.AddCorporationEntry(ctx, entry); err != nil {
			return err
		}
		f, _ := amount.Float64()
		metrics.Runs().AddISKCharged(string(entryType), f)
		return nil

	default:
		return domain.ErrUnknownTarget
	}
}

func (p *poster) postToUser(ctx context.Context, userID snowflake.ID, characterID *int64, signed decimal.Decimal, description string, entryType domain.EntryType, at time.Time) error {
	account, err := p.repo.GetOrCreateUserAccount(ctx, userID)
	if err != nil {
		return err
	}
	entry := &domain.UserLedgerEntry{
		ID:          p.node.Generate(),
		AccountID:   account.ID,
		Amount:      signed,
		Description: description,
		EntryType:   entryType,
		CharacterID: characterID,
		CreatedAt:   at,
	}
	if err := p.repo.AddUserEntry(ctx, entry); err != nil {
		return err
	}
	f, _ := signed.Abs().Float64()
	metrics.Runs().AddISKCharged(string(entryType), f)
	return nil
}
