// Copyright 2025 Certen Protocol
//
// Package database provides sentinel errors for repository operations.

package database

import "errors"

// Sentinel errors for database operations
var (
	// ErrNotFound is returned when a requested entity is not found in the database
	ErrNotFound = errors.New("entity not found")

	// ErrConsentNotFound is returned when a consent record is not found
	ErrConsentNotFound = errors.New("consent record not found")

	// ErrPIANotFound is returned when a privacy impact assessment is not found
	ErrPIANotFound = errors.New("pia record not found")

	// ErrDPANotFound is returned when a data processing agreement is not found
	ErrDPANotFound = errors.New("dpa record not found")

	// ErrBreachNotFound is returned when a breach record is not found
	ErrBreachNotFound = errors.New("breach record not found")
)
