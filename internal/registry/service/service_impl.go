package service

import (
	"context"
	"fmt"

	"github.com/karmafleet/allianceledger/internal/eveapi"
	"github.com/karmafleet/allianceledger/internal/registry/domain"
	"go.uber.org/zap"
)

type service struct {
	repo domain.Repository
	esi  eveapi.Client
	log  *zap.Logger
}

func New(repo domain.Repository, esi eveapi.Client, log *zap.Logger) domain.Service {
	return &service{
		repo: repo,
		esi:  esi,
		log:  log.Named("registry"),
	}
}

func (s *service) GetOrCreateCorporation(ctx context.Context, corporationID int64) (*domain.Corporation, error) {
	corporation, err := s.repo.FindCorporation(ctx, corporationID)
	if err != nil {
		return nil, err
	}
	if corporation != nil {
		return corporation, nil
	}

	info, err := s.esi.CorporationInfo(ctx, corporationID)
	if err != nil {
		return nil, fmt.Errorf("fetch corporation %d: %w", corporationID, err)
	}
	if info.AllianceID != nil {
		if err := s.ensureAlliance(ctx, *info.AllianceID); err != nil {
			return nil, err
		}
	}

	corporation = &domain.Corporation{
		CorporationID: corporationID,
		Name:          info.Name,
		Ticker:        info.Ticker,
		AllianceID:    info.AllianceID,
		CEOID:         info.CEOID,
		MemberCount:   info.MemberCount,
		TaxRate:       info.TaxRate,
	}
	if err := s.repo.SaveCorporation(ctx, corporation); err != nil {
		return nil, err
	}
	s.log.Info("corporation registered",
		zap.Int64("corporation_id", corporationID),
		zap.String("name", info.Name),
	)
	return corporation, nil
}

func (s *service) GetOrCreateCharacter(ctx context.Context, characterID int64) (*domain.Character, error) {
	character, err := s.repo.FindCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if character != nil {
		return character, nil
	}

	info, err := s.esi.CharacterInfo(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("fetch character %d: %w", characterID, err)
	}
	if _, err := s.GetOrCreateCorporation(ctx, info.CorporationID); err != nil {
		return nil, err
	}

	character = &domain.Character{
		CharacterID:   characterID,
		Name:          info.Name,
		CorporationID: info.CorporationID,
		AllianceID:    info.AllianceID,
	}
	if err := s.repo.SaveCharacter(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *service) GetOrCreateCharacterByName(ctx context.Context, name string) (*domain.Character, error) {
	character, err := s.repo.FindCharacterByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if character != nil {
		return character, nil
	}

	resolved, err := s.esi.ResolveNames(ctx, []string{name})
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", name, err)
	}
	if len(resolved.Characters) == 0 {
		return nil, fmt.Errorf("resolve %q: %w", name, domain.ErrNameUnresolved)
	}
	return s.GetOrCreateCharacter(ctx, resolved.Characters[0].ID)
}

func (s *service) ensureAlliance(ctx context.Context, allianceID int64) error {
	alliance, err := s.repo.FindAlliance(ctx, allianceID)
	if err != nil {
		return err
	}
	if alliance != nil {
		return nil
	}

	info, err := s.esi.AllianceInfo(ctx, allianceID)
	if err != nil {
		return fmt.Errorf("fetch alliance %d: %w", allianceID, err)
	}
	return s.repo.SaveAlliance(ctx, &domain.Alliance{
		AllianceID: allianceID,
		Name:       info.Name,
		Ticker:     info.Ticker,
	})
}
