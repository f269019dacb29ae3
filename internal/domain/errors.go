package domain

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrInvalidRoomID = errors.New("room id must not be empty")
)
