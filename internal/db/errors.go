package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyExists indicates a record with the same ID already exists.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrTransactionConflict indicates concurrent writes to the same records.
	// Callers may retry.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrInvalidRecord indicates a record failed schema checks.
	ErrInvalidRecord = errors.New("invalid record")
)

// wrapQueryError maps known SurrealDB query failures onto sentinel errors.
// Other errors are returned unchanged.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if !errors.As(err, &queryErr) {
		return err
	}

	msg := queryErr.Message
	switch {
	case strings.Contains(msg, "already exists"):
		return fmt.Errorf("%w: %s", ErrAlreadyExists, msg)
	case strings.Contains(msg, "Transaction conflict"):
		return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
	case strings.Contains(msg, "Found") && strings.Contains(msg, "but expected"):
		return fmt.Errorf("%w: %s", ErrInvalidRecord, msg)
	}
	return err
}
