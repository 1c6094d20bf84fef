package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DeletedUsername marks a user record kept for history after account
// removal. Postings aimed at such a user park as unclaimed tax instead.
const DeletedUsername = "deleted"

// User is an auth account that may own several characters, one of which
// is designated the main.
type User struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Username        string       `gorm:"uniqueIndex;not null" json:"username"`
	State           string       `gorm:"index" json:"state"`
	MainCharacterID *int64       `gorm:"index" json:"main_character_id,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type Alliance struct {
	AllianceID int64     `gorm:"primaryKey" json:"alliance_id"`
	Name       string    `gorm:"not null" json:"name"`
	Ticker     string    `json:"ticker"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type Corporation struct {
	CorporationID int64   `gorm:"primaryKey" json:"corporation_id"`
	Name          string  `gorm:"index;not null" json:"name"`
	Ticker        string  `json:"ticker"`
	AllianceID    *int64  `gorm:"index" json:"alliance_id,omitempty"`
	CEOID         int64   `json:"ceo_id"`
	MemberCount   int     `json:"member_count"`
	// TaxRate is the in-game corporation rate as a fraction (0.1 = 10%).
	TaxRate             float64    `json:"tax_rate"`
	LastStructureUpdate *time.Time `json:"last_structure_update,omitempty"`
	CreatedAt           time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type Character struct {
	CharacterID   int64     `gorm:"primaryKey" json:"character_id"`
	Name          string    `gorm:"index;not null" json:"name"`
	CorporationID int64     `gorm:"index" json:"corporation_id"`
	AllianceID    *int64    `json:"alliance_id,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// CharacterOwnership links a character to the user who proved ownership.
// A character has at most one owner.
type CharacterOwnership struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CharacterID int64        `gorm:"uniqueIndex;not null" json:"character_id"`
	UserID      snowflake.ID `gorm:"index;not null" json:"user_id"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// MainCount is the number of main characters parked in a corporation.
type MainCount struct {
	CorporationID int64 `json:"corporation_id"`
	Mains         int   `json:"mains"`
}
