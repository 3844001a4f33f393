package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"formcfg/internal/errs"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sqlite busy", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "wrapped sqlite busy", err: fmt.Errorf("insert event: %w", errors.New("database is locked")), want: true},
		{name: "pg serialization", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "pg deadlock", err: fmt.Errorf("update: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "pg connection", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "constraint", err: errors.New("NOT NULL constraint failed: questions.form_id"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyMarksTransient(t *testing.T) {
	err := Classify(errors.New("database is locked"))
	if !errs.IsTransient(err) {
		t.Fatalf("Classify() should mark busy error transient")
	}

	plain := errors.New("syntax error")
	if got := Classify(plain); got != plain {
		t.Fatalf("Classify() changed non-retryable error: %v", got)
	}
}
