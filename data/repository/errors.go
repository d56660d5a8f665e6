// Package repository provides MongoDB-backed persistence for all collections.
package repository

import "errors"

// Sentinel errors shared by all repositories. Services translate these
// into API failures.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrDuplicate = errors.New("resource already exists")
	ErrInvalidID = errors.New("invalid id")
)
