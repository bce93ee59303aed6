package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Store errors
	ErrStoreUnavailable = fmt.Errorf("store unavailable")
	ErrNotFound         = fmt.Errorf("record not found")
	ErrUnsupportedField = fmt.Errorf("unsupported field")
	ErrValidation       = fmt.Errorf("validation failed")
	ErrNoSchema         = fmt.Errorf("no schema versions applied")

	// Backup errors. The messages are part of the operator-facing contract.
	ErrInvalidBackupStructure = errors.New("Invalid backup file structure")
	ErrBackupCorrupted        = errors.New("Backup data is corrupted")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
