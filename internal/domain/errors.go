package domain

import "errors"

var (
	ErrInvalidCoordinate     = errors.New("invalid coordinate")
	ErrInvalidCenterRecord   = errors.New("invalid center record")
	ErrLocationUnavailable   = errors.New("location unavailable")
	ErrUnknownCenter         = errors.New("center is not in the current list")
	ErrPositionAlreadySet    = errors.New("user position already set")
	ErrControllerClosed      = errors.New("controller closed")
	ErrSessionNotFound       = errors.New("map session not found")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrNotFound              = errors.New("not found")
)
