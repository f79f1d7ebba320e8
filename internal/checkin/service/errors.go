package service

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAlreadyRegistered   = errors.New("identifier already registered")
	ErrNotFound            = errors.New("employee not found")
	ErrSyntheticIdentifier = errors.New("synthetic identifier requires explicit acknowledgement")
)
