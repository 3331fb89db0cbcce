package db

import "errors"

var (
	ErrLabelNotFound = errors.New("label not found")
	ErrInvalidLabel  = errors.New("invalid label")
)
