package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrDotenv wraps a failure to read the dotenv file named by TARIFFA_DOTENV.
	ErrDotenv = errors.New("dotenv file unreadable")
)
