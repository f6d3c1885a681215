package domain

import "errors"

var (
	ErrJobNotFound = errors.New("publish job not found")
	ErrNoMenus     = errors.New("publish request has no menus")
	ErrNoChannel   = errors.New("no LINE channel configured for user")
)
