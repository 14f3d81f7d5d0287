package model

import "time"

// EventKind names a journaled state transition.
type EventKind string

// Event kinds.
const (
	EventItemAdded EventKind = "item_added"
	EventBorrowed  EventKind = "borrowed"
	EventReturned  EventKind = "returned"
	EventSold      EventKind = "sold"
)

// ValidEventKind reports whether k is a known event kind.
func ValidEventKind(k string) bool {
	switch EventKind(k) {
	case EventItemAdded, EventBorrowed, EventReturned, EventSold:
		return true
	}
	return false
}

// Event is one entry of the activity journal.
type Event struct {
	ID         int64     `db:"id" json:"id"`
	Kind       EventKind `db:"kind" json:"kind"`
	Actor      string    `db:"actor" json:"actor"`
	ItemID     string    `db:"item_id" json:"item_id"`
	SaleID     string    `db:"sale_id" json:"sale_id,omitempty"`
	Detail     string    `db:"detail" json:"detail,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}
