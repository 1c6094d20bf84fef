package domain

import "context"

// Service resolves game entities, creating local records from public
// universe data when they are first seen.
type Service interface {
	GetOrCreateCorporation(ctx context.Context, corporationID int64) (*Corporation, error)
	GetOrCreateCharacter(ctx context.Context, characterID int64) (*Character, error)
	GetOrCreateCharacterByName(ctx context.Context, name string) (*Character, error)
}
