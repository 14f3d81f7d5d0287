package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/slms/internal/model"
)

const (
	dialectSQLite = "sqlite3"

	tableEvents   = "events"
	colID         = "id"
	colKind       = "kind"
	colActor      = "actor"
	colItemID     = "item_id"
	colSaleID     = "sale_id"
	colDetail     = "detail"
	colOccurredAt = "occurred_at"
)

// Journal is the append-only activity log. It only ever mirrors state
// transitions that already happened in memory; nothing is read back into
// the catalog.
type Journal struct {
	db *sqlx.DB
}

// EventFilter narrows ListEvents. Zero fields match everything.
type EventFilter struct {
	Kind   model.EventKind
	Actor  string
	ItemID string
	Limit  uint
}

// NewJournal wraps an open database whose schema is already in place.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: sqlx.NewDb(db, "sqlite")}
}

// Record appends one event.
func (j *Journal) Record(ctx context.Context, e model.Event) error {
	query, args, err := goqu.Dialect(dialectSQLite).
		Insert(tableEvents).
		Rows(goqu.Record{
			colKind:       string(e.Kind),
			colActor:      e.Actor,
			colItemID:     e.ItemID,
			colSaleID:     e.SaleID,
			colDetail:     e.Detail,
			colOccurredAt: e.OccurredAt.UTC(),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building event insert: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("recording %s event: %w", e.Kind, err)
	}
	return nil
}

// ListEvents returns matching events oldest first.
func (j *Journal) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	sel := goqu.Dialect(dialectSQLite).
		From(tableEvents).
		Select(colID, colKind, colActor, colItemID, colSaleID, colDetail, colOccurredAt).
		Order(goqu.I(colID).Asc())

	where := goqu.Ex{}
	if f.Kind != "" {
		where[colKind] = string(f.Kind)
	}
	if f.Actor != "" {
		where[colActor] = f.Actor
	}
	if f.ItemID != "" {
		where[colItemID] = f.ItemID
	}
	if len(where) > 0 {
		sel = sel.Where(where)
	}
	if f.Limit > 0 {
		sel = sel.Limit(f.Limit)
	}

	query, args, err := sel.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building event query: %w", err)
	}

	events := []model.Event{}
	if err := j.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}
