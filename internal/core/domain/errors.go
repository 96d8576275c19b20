package domain

import "errors"

var (
	ErrContainerNotFound  = errors.New("display container not found")
	ErrUnknownProjection  = errors.New("unknown projection")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidZoom        = errors.New("invalid zoom level")
	ErrProjectionMismatch = errors.New("point projection does not match map projection")
	ErrViewNotFound       = errors.New("map view not found")
)
