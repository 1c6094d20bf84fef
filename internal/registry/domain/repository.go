package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindUser(ctx context.Context, id snowflake.ID) (*User, error)
	// FindOwner resolves the owning user of a character through the
	// ownership link. Returns nil when the character has no owner.
	FindOwner(ctx context.Context, characterID int64) (*User, error)
	MainCharacter(ctx context.Context, user *User) (*Character, error)

	FindCorporation(ctx context.Context, corporationID int64) (*Corporation, error)
	FindCorporationsByIDs(ctx context.Context, ids []int64) ([]*Corporation, error)
	SaveCorporation(ctx context.Context, corporation *Corporation) error
	ListCorporationIDs(ctx context.Context) ([]int64, error)

	FindCharacter(ctx context.Context, characterID int64) (*Character, error)
	FindCharacterByName(ctx context.Context, name string) (*Character, error)
	SaveCharacter(ctx context.Context, character *Character) error

	FindAlliance(ctx context.Context, allianceID int64) (*Alliance, error)
	SaveAlliance(ctx context.Context, alliance *Alliance) error

	// MainCountsByState counts main characters per corporation for users
	// in the given membership state.
	MainCountsByState(ctx context.Context, state string) ([]MainCount, error)
}
