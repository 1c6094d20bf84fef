package domain

import "github.com/bwmarrin/snowflake"

// Target is who a ledger posting is aimed at. Character targets resolve
// through ownership to a user account, or park as unclaimed tax.
type Target interface {
	isTarget()
}

type UserTarget struct {
	UserID snowflake.ID
}

type CharacterTarget struct {
	CharacterID int64
}

type CorporationTarget struct {
	CorporationID int64
}

func (UserTarget) isTarget()        {}
func (CharacterTarget) isTarget()   {}
func (CorporationTarget) isTarget() {}
