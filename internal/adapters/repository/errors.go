package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRunNotFound = errors.New("reconciliation run not found")
	ErrRunExists   = errors.New("reconciliation run already exists")
	ErrRunComplete = errors.New("reconciliation run already complete")
	ErrReadOnly    = errors.New("rate store is read-only")
)
