// Package txn runs multi-document operations atomically on MongoDB.
//
// Explorer cascades (soft delete, restore, purge) touch many folder and file
// documents; Run executes them inside one transaction so a failure midway
// rolls everything back.
//
// Usage:
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if _, err := folders.SetDeleted(ctx, ids, true); err != nil {
//	        return err
//	    }
//	    _, err := files.SetDeletedByParents(ctx, ids, true)
//	    return err
//	})
//
// On a standalone server, where transactions are unavailable, fn runs
// without one. Every cascade in this repo is idempotent, so a rerun after a
// crash converges to the same end state.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the function type for transaction operations.
// The context it receives is a mongo.SessionContext when a transaction is
// active and must be passed to every store call so they join it.
type Func func(ctx context.Context) error

// Run executes fn within a MongoDB transaction if possible, falling back to
// a plain call when the deployment does not support transactions.
//
// Errors returned by fn abort the transaction and are returned unchanged, so
// callers can keep using errors.Is/As on domain errors.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	client := db.Client()

	session, err := client.StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction",
				zap.Error(err))
		}
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})

	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Debug("transactions not supported, running without transaction",
					zap.Error(err))
			}
			return fn(ctx)
		}
		return err
	}

	return nil
}

// IsNotSupported checks if an error indicates that transactions are not supported.
//
// Known error codes:
//   - 20: "Transaction numbers are only allowed on a replica set member or mongos"
//   - 51: IllegalOperation
//   - 263: "Cannot run 'aggregate' in a multi-document transaction"
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Fall back to message matching for wrapped or driver-side errors.
	errStr := strings.ToLower(err.Error())
	transactionKeywords := []string{
		"transaction",
		"replica set",
		"session",
		"not supported",
		"illegal operation",
	}

	matchCount := 0
	for _, kw := range transactionKeywords {
		if strings.Contains(errStr, kw) {
			matchCount++
		}
	}

	// Require at least 2 keyword matches to avoid false positives
	return matchCount >= 2
}
