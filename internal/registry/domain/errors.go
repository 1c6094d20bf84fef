package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user_not_found")
	ErrCharacterNotFound   = errors.New("character_not_found")
	ErrCorporationNotFound = errors.New("corporation_not_found")
	ErrNameUnresolved      = errors.New("name_unresolved")
)
