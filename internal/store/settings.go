package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/doug-martin/goqu/v9"
)

const (
	tableSettings = "settings"
	colKey        = "key"
	colValue      = "value"

	settingJWTSecret = "jwt_secret"
)

// GetJWTSecret returns the token signing secret stored in the journal
// database, generating one on first use. With a file-backed journal the
// secret survives restarts so issued tokens stay valid; with the in-memory
// journal every start gets a fresh one.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	// Insert-or-keep then read back, so concurrent starts agree on one value.
	insert, args, err := goqu.Dialect(dialectSQLite).
		Insert(tableSettings).
		Rows(goqu.Record{colKey: settingJWTSecret, colValue: candidate}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("building jwt_secret insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, insert, args...); err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	query, args, err := goqu.Dialect(dialectSQLite).
		From(tableSettings).
		Select(colValue).
		Where(goqu.Ex{colKey: settingJWTSecret}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("building jwt_secret query: %w", err)
	}

	var secret string
	if err := db.QueryRowContext(ctx, query, args...).Scan(&secret); err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}
	return secret, nil
}
