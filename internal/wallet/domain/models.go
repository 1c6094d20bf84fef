package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CharacterJournalEntry mirrors one row of a character's wallet journal as
// delivered by the game API. EntryID is the game's journal ref ID; Amount
// and Tax are nullable there and stay nullable here.
type CharacterJournalEntry struct {
	ID            snowflake.ID     `gorm:"primaryKey" json:"id"`
	EntryID       int64            `gorm:"uniqueIndex;not null" json:"entry_id"`
	CharacterID   int64            `gorm:"index;not null" json:"character_id"`
	Amount        *decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount,omitempty"`
	Tax           *decimal.Decimal `gorm:"type:decimal(20,2)" json:"tax,omitempty"`
	TaxReceiverID *int64           `json:"tax_receiver_id,omitempty"`
	RefType       string           `gorm:"index;not null" json:"ref_type"`
	ContextID     *int64           `gorm:"index" json:"context_id,omitempty"`
	ContextIDType string           `json:"context_id_type,omitempty"`
	FirstPartyID  *int64           `gorm:"index" json:"first_party_id,omitempty"`
	SecondPartyID *int64           `json:"second_party_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Date          time.Time        `gorm:"index;not null" json:"date"`
}

// CorporationJournalEntry is a wallet division row owned by a corporation.
type CorporationJournalEntry struct {
	ID            snowflake.ID     `gorm:"primaryKey" json:"id"`
	EntryID       int64            `gorm:"uniqueIndex;not null" json:"entry_id"`
	CorporationID int64            `gorm:"index;not null" json:"corporation_id"`
	Division      int              `json:"division"`
	Amount        *decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount,omitempty"`
	Tax           *decimal.Decimal `gorm:"type:decimal(20,2)" json:"tax,omitempty"`
	RefType       string           `gorm:"index;not null" json:"ref_type"`
	ContextID     *int64           `json:"context_id,omitempty"`
	ContextIDType string           `json:"context_id_type,omitempty"`
	FirstPartyID  *int64           `gorm:"index" json:"first_party_id,omitempty"`
	SecondPartyID *int64           `json:"second_party_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Date          time.Time        `gorm:"index;not null" json:"date"`
}

type Region struct {
	RegionID int64  `gorm:"primaryKey" json:"region_id"`
	Name     string `gorm:"index;not null" json:"name"`
}

type SolarSystem struct {
	SystemID        int64  `gorm:"primaryKey" json:"system_id"`
	ConstellationID int64  `json:"constellation_id"`
	RegionID        int64  `gorm:"index;not null" json:"region_id"`
	Name            string `json:"name"`
}

type Structure struct {
	StructureID   int64     `gorm:"primaryKey" json:"structure_id"`
	CorporationID int64     `gorm:"index;not null" json:"corporation_id"`
	SystemID      int64     `gorm:"index;not null" json:"system_id"`
	TypeID        int64     `gorm:"index" json:"type_id"`
	Name          string    `json:"name"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// StructureService is one fitted service module on a structure, e.g.
// "Reprocessing" or "Market".
type StructureService struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	StructureID int64        `gorm:"index;not null" json:"structure_id"`
	Name        string       `gorm:"index;not null" json:"name"`
	State       string       `json:"state,omitempty"`
}

// Notification is a raw in-game notification; Text is the YAML payload.
type Notification struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	NotificationID int64        `gorm:"uniqueIndex;not null" json:"notification_id"`
	CharacterID    int64        `gorm:"index" json:"character_id"`
	Type           string       `gorm:"index;not null" json:"type"`
	Timestamp      time.Time    `gorm:"index;not null" json:"timestamp"`
	Text           string       `json:"text"`
}
