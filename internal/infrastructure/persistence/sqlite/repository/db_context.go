package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"formcfg/internal/errs"
	"formcfg/internal/infrastructure/persistence/dberr"
	"formcfg/internal/ports"
)

// dbFromContext returns the transaction carried by ctx, or base when the
// caller is outside a unit of work.
func dbFromContext(ctx context.Context, base *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return base.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func storeErr(err error, msg string) error {
	return errs.Wrap(dberr.Classify(err), msg)
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
