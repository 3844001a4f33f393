package dberr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"formcfg/internal/errs"
)

// Postgres SQLSTATE codes that succeed when the transaction is run again.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgConnectionClass      = "08"
)

var sqliteBusyMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"sqlite_locked",
}

// Classify marks store errors that are worth retrying as transient.
// Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsRetryable(err) {
		return errs.MarkTransient(err)
	}
	return err
}

// IsRetryable reports whether err is lock contention, a serialization
// failure or a dropped connection.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errs.IsTransient(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected:
			return true
		case strings.HasPrefix(pgErr.Code, pgConnectionClass):
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range sqliteBusyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
