// Package common defines shared constants and sentinel errors used across
// carmarket components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Input errors.
	ErrValidation = errors.New("required fields are missing")

	// Account errors.
	ErrConflict          = errors.New("handle or email already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCredential = errors.New("invalid password")

	// Token errors.
	ErrConfiguration    = errors.New("signing secret is not configured")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")

	// Store errors. ErrDuplicateKey is raised by repositories when a unique
	// constraint rejects an insert; ErrStore wraps every other store failure.
	ErrDuplicateKey = errors.New("duplicate key")
	ErrStore        = errors.New("store error")

	// Listing errors.
	ErrForbidden     = errors.New("forbidden")
	ErrTooManyImages = errors.New("too many images")
)
