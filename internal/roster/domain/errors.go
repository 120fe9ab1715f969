package domain

import "errors"

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNotAvailable = errors.New("player is not available for auction")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameTaken      = errors.New("team name already exists")
)
