package config

import "errors"

// Sentinel load errors.
var (
	ErrConfigNotFound = errors.New("config: file not found")
	ErrInvalidYAML    = errors.New("config: invalid yaml")
	ErrValidation     = errors.New("config: validation failed")
)
