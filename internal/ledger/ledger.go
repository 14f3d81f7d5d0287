// Package ledger owns the catalog, the active loans and the sale history.
// Every exported method is atomic with respect to the others.
package ledger

import (
	"slices"
	"sync"

	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/errs"
	"github.com/erazemk/slms/internal/model"
)

type borrowKey struct {
	studentID string
	itemID    string
}

// Ledger is the transaction ledger of the library.
type Ledger struct {
	mu    sync.Mutex
	clock clock.Clock

	items   map[string]*model.CatalogItem
	order   []string
	borrows map[borrowKey]struct{}
	sales   []model.Sale
	saleSeq int
}

// New creates an empty ledger that timestamps sales with c.
func New(c clock.Clock) *Ledger {
	if c == nil {
		c = clock.Real()
	}
	return &Ledger{
		clock:   c,
		items:   make(map[string]*model.CatalogItem),
		borrows: make(map[borrowKey]struct{}),
	}
}

// AddItem inserts a copy of item into the catalog. The ID must be unused.
func (l *Ledger) AddItem(item *model.CatalogItem) error {
	if item == nil || item.ID == "" {
		return errs.New(errs.KindValidation, "item id required")
	}
	if item.TotalCopies < 0 || item.AvailableCopies < 0 || item.AvailableCopies > item.TotalCopies {
		return errs.Newf(errs.KindValidation, "invalid copy counts %d/%d", item.AvailableCopies, item.TotalCopies)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[item.ID]; ok {
		return errs.Newf(errs.KindConflict, "item id %s already exists", item.ID)
	}
	stored := *item
	l.items[item.ID] = &stored
	l.order = append(l.order, item.ID)
	return nil
}

// Item returns a snapshot of one catalog item.
func (l *Ledger) Item(id string) (model.CatalogItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return model.CatalogItem{}, false
	}
	return *item, true
}

// Borrow lends one copy of itemID to studentID and records the loan.
func (l *Ledger) Borrow(studentID, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[itemID]
	if !ok {
		return errs.Newf(errs.KindNotFound, "item %s not found", itemID)
	}
	key := borrowKey{studentID: studentID, itemID: itemID}
	if _, ok := l.borrows[key]; ok {
		return errs.Newf(errs.KindConflict, "item %s is already borrowed by %s", itemID, studentID)
	}
	if !item.IsAvailable() || !item.BorrowOneCopy() {
		return errs.Newf(errs.KindCapacityExceeded, "item %s is not available", itemID)
	}
	l.borrows[key] = struct{}{}
	return nil
}

// ReturnItem takes back the copy of itemID lent to studentID.
func (l *Ledger) ReturnItem(studentID, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := borrowKey{studentID: studentID, itemID: itemID}
	if _, ok := l.borrows[key]; !ok {
		return errs.Newf(errs.KindConflict, "item %s is not currently borrowed", itemID)
	}
	item, ok := l.items[itemID]
	if !ok {
		return errs.Newf(errs.KindInternalConsistency, "loan of %s references a missing item", itemID)
	}
	if !item.ReturnOneCopy() {
		return errs.Newf(errs.KindInternalConsistency, "item %s already has all %d copies on the shelf", itemID, item.TotalCopies)
	}
	delete(l.borrows, key)
	return nil
}

// Sell removes one copy of a for-sale item from circulation and records the
// sale. The caller validates payment details before calling Sell.
func (l *Ledger) Sell(studentID, itemID string, method model.PaymentMethod, faculty, scheduledTime string) (*model.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[itemID]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "item %s not found", itemID)
	}
	if !item.ForSale {
		return nil, errs.Newf(errs.KindNotFound, "item %s is not for sale", itemID)
	}
	if !item.SellOneCopy() {
		return nil, errs.Newf(errs.KindCapacityExceeded, "item %s is sold out", itemID)
	}

	l.saleSeq++
	sale := model.Sale{
		ID:            model.SaleID(l.saleSeq),
		StudentID:     studentID,
		ItemID:        itemID,
		ItemTitle:     item.Title,
		Price:         item.Price,
		PaymentMethod: method,
		Faculty:       faculty,
		ScheduledTime: scheduledTime,
		Timestamp:     l.clock.Now(),
	}
	l.sales = append(l.sales, sale)
	return &sale, nil
}

// Items returns all catalog items in insertion order.
func (l *Ledger) Items() []model.CatalogItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]model.CatalogItem, 0, len(l.order))
	for _, id := range l.order {
		items = append(items, *l.items[id])
	}
	return items
}

// ItemsForSale returns for-sale items that still have a copy to sell.
func (l *Ledger) ItemsForSale() []model.CatalogItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := []model.CatalogItem{}
	for _, id := range l.order {
		if item := l.items[id]; item.ForSale && item.IsAvailable() {
			items = append(items, *item)
		}
	}
	return items
}

// Sales returns the sale history in creation order.
func (l *Ledger) Sales() []model.Sale {
	l.mu.Lock()
	defer l.mu.Unlock()
	sales := make([]model.Sale, len(l.sales))
	copy(sales, l.sales)
	return sales
}

// HasBorrow reports whether studentID currently holds itemID.
func (l *Ledger) HasBorrow(studentID, itemID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.borrows[borrowKey{studentID: studentID, itemID: itemID}]
	return ok
}

// BorrowsOf returns the sorted IDs of items studentID currently holds.
func (l *Ledger) BorrowsOf(studentID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []string
	for key := range l.borrows {
		if key.studentID == studentID {
			ids = append(ids, key.itemID)
		}
	}
	slices.Sort(ids)
	return ids
}
