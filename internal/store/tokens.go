package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
)

const (
	tableRevokedTokens = "revoked_tokens"
	colJTI             = "jti"
	colExpiresAt       = "expires_at"
)

// RevokeToken adds a token's JTI to the revocation list. Revocations that
// expired before now are purged on the way.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt, now time.Time) error {
	query, args, err := goqu.Dialect(dialectSQLite).
		Insert(tableRevokedTokens).
		Rows(goqu.Record{colJTI: jti, colExpiresAt: expiresAt.UTC()}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building revocation insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = PurgeExpiredTokens(ctx, db, now)

	return nil
}

// PurgeExpiredTokens drops revocations whose token has expired anyway.
func PurgeExpiredTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	query, args, err := goqu.Dialect(dialectSQLite).
		Delete(tableRevokedTokens).
		Where(goqu.C(colExpiresAt).Lt(now.UTC())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building revocation purge: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	query, args, err := goqu.Dialect(dialectSQLite).
		From(tableRevokedTokens).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{colJTI: jti}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("building revocation query: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}
