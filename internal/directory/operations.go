package directory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/erazemk/slms/internal/errs"
	"github.com/erazemk/slms/internal/model"
	"github.com/erazemk/slms/internal/schedule"
)

// Borrow lends itemID to studentID. The ledger and the student's account
// change together or not at all; all operations of one student are serialized.
func (d *Directory) Borrow(ctx context.Context, studentID, itemID string) error {
	if itemID == "" {
		return errs.New(errs.KindValidation, "item id required")
	}

	unlock := d.studentLocks.Lock(studentID)
	defer unlock()

	student, err := d.GetOrCreateStudent(studentID)
	if err != nil {
		return err
	}
	if student.HasBorrowed(itemID) {
		return errs.Newf(errs.KindConflict, "item %s is already borrowed", itemID)
	}
	if !student.CanBorrowMore() {
		return errs.Newf(errs.KindCapacityExceeded,
			"you have reached the maximum borrowing limit of %d items, please return an item first", model.MaxBorrowLimit)
	}

	if err := d.commitBorrow(student, itemID); err != nil {
		return err
	}

	slog.Info("item borrowed", "student", studentID, "item", itemID)
	d.record(ctx, model.Event{Kind: model.EventBorrowed, Actor: studentID, ItemID: itemID})
	return nil
}

// commitBorrow updates the ledger and then the account, undoing the ledger
// side when the account refuses. The caller holds the student's lock.
func (d *Directory) commitBorrow(student *model.Account, itemID string) error {
	if err := d.ledger.Borrow(student.ID, itemID); err != nil {
		return err
	}
	if err := student.Borrow(itemID); err != nil {
		if rbErr := d.ledger.ReturnItem(student.ID, itemID); rbErr != nil {
			slog.Error("failed to roll back ledger borrow", "student", student.ID, "item", itemID, "error", rbErr)
			return errs.Newf(errs.KindInternalConsistency, "loan records for item %s are inconsistent", itemID)
		}
		return err
	}
	return nil
}

// Return takes back itemID from studentID.
func (d *Directory) Return(ctx context.Context, studentID, itemID string) error {
	if itemID == "" {
		return errs.New(errs.KindValidation, "item id required")
	}

	unlock := d.studentLocks.Lock(studentID)
	defer unlock()

	student, err := d.GetOrCreateStudent(studentID)
	if err != nil {
		return err
	}

	if err := d.ledger.ReturnItem(studentID, itemID); err != nil {
		if errs.Is(err, errs.KindInternalConsistency) {
			slog.Error("ledger return failed", "student", studentID, "item", itemID, "error", err)
		}
		return err
	}
	if err := student.ReturnItem(itemID); err != nil {
		slog.Error("account and ledger disagree on loan", "student", studentID, "item", itemID, "error", err)
		if rbErr := d.ledger.Borrow(studentID, itemID); rbErr != nil {
			slog.Error("failed to restore ledger loan", "student", studentID, "item", itemID, "error", rbErr)
		}
		return errs.Newf(errs.KindInternalConsistency, "loan records for item %s are inconsistent", itemID)
	}

	slog.Info("item returned", "student", studentID, "item", itemID)
	d.record(ctx, model.Event{Kind: model.EventReturned, Actor: studentID, ItemID: itemID})
	return nil
}

// Loans returns the catalog records of the items studentID holds, in borrow order.
func (d *Directory) Loans(studentID string) ([]model.CatalogItem, error) {
	unlock := d.studentLocks.Lock(studentID)
	defer unlock()

	student, err := d.GetOrCreateStudent(studentID)
	if err != nil {
		return nil, err
	}

	borrowed := student.Borrowed()
	items := make([]model.CatalogItem, 0, len(borrowed))
	for _, id := range borrowed {
		if item, ok := d.ledger.Item(id); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// PurchaseRequest carries a student's purchase as received from the caller.
type PurchaseRequest struct {
	StudentID     string
	ItemID        string
	PaymentMethod string
	Faculty       string
	ScheduledTime string
}

// Purchase validates the payment details and sells one copy.
func (d *Directory) Purchase(ctx context.Context, req PurchaseRequest) (*model.Sale, error) {
	if req.ItemID == "" {
		return nil, errs.New(errs.KindValidation, "item id required")
	}
	method, err := model.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	faculty := strings.TrimSpace(req.Faculty)
	if faculty == "" {
		return nil, errs.New(errs.KindValidation, "please select your faculty")
	}
	slot := strings.TrimSpace(req.ScheduledTime)
	if method == model.PaymentCash && slot == "" {
		return nil, errs.New(errs.KindValidation, "scheduled time required for cash payment")
	}
	if slot != "" && !schedule.IsSlot(slot) {
		return nil, errs.Newf(errs.KindValidation, "unknown pickup slot %q", slot)
	}
	if _, err := d.GetOrCreateStudent(req.StudentID); err != nil {
		return nil, err
	}

	sale, err := d.ledger.Sell(req.StudentID, req.ItemID, method, faculty, slot)
	if err != nil {
		return nil, err
	}

	slog.Info("item sold", "student", sale.StudentID, "item", sale.ItemID, "sale", sale.ID, "payment", sale.PaymentMethod)
	d.record(ctx, model.Event{
		Kind:       model.EventSold,
		Actor:      sale.StudentID,
		ItemID:     sale.ItemID,
		SaleID:     sale.ID,
		Detail:     fmt.Sprintf("%s %.2f", sale.PaymentMethod, sale.Price),
		OccurredAt: sale.Timestamp,
	})
	return sale, nil
}

// NewItem is an admin's request to add a catalog item.
type NewItem struct {
	ID      string
	Title   string
	Author  string
	ISBN    string
	Copies  int
	ForSale bool
	Price   float64
}

func (n NewItem) validate() error {
	if strings.TrimSpace(n.ID) == "" || strings.TrimSpace(n.Title) == "" ||
		strings.TrimSpace(n.Author) == "" || strings.TrimSpace(n.ISBN) == "" {
		return errs.New(errs.KindValidation, "missing required fields")
	}
	if n.Copies < 0 {
		return errs.Newf(errs.KindValidation, "copies must not be negative, got %d", n.Copies)
	}
	if n.Price < 0 {
		return errs.Newf(errs.KindValidation, "price must not be negative, got %.2f", n.Price)
	}
	return nil
}

func (n NewItem) item() *model.CatalogItem {
	return model.NewCatalogItem(strings.TrimSpace(n.ID), n.Title, n.Author, n.ISBN, n.Copies, n.ForSale, n.Price)
}

// AddItem adds an item to the catalog on behalf of an admin.
func (d *Directory) AddItem(ctx context.Context, adminID string, n NewItem) (*model.CatalogItem, error) {
	if _, ok := d.Admin(adminID); !ok {
		return nil, errs.New(errs.KindNotAuthorized, "only admins can add items")
	}
	if err := n.validate(); err != nil {
		return nil, err
	}

	item := n.item()
	if err := d.ledger.AddItem(item); err != nil {
		return nil, err
	}

	slog.Info("item added", "admin", adminID, "item", item.ID, "copies", item.TotalCopies, "for_sale", item.ForSale)
	d.record(ctx, model.Event{Kind: model.EventItemAdded, Actor: adminID, ItemID: item.ID, Detail: item.Title})
	return item, nil
}

// CheckConsistency verifies that every student's borrowed set matches the
// ledger's loans, that no student is over the limit and that every item's copy
// counts are in bounds.
func (d *Directory) CheckConsistency() error {
	for _, item := range d.ledger.Items() {
		if item.AvailableCopies < 0 || item.AvailableCopies > item.TotalCopies {
			return errs.Newf(errs.KindInternalConsistency, "item %s has %d of %d copies available",
				item.ID, item.AvailableCopies, item.TotalCopies)
		}
	}

	d.mu.Lock()
	ids := make([]string, 0, len(d.students))
	for id := range d.students {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	for _, id := range ids {
		unlock := d.studentLocks.Lock(id)
		student, _ := d.Student(id)
		borrowed := student.Borrowed()
		loans := d.ledger.BorrowsOf(id)
		unlock()

		if len(borrowed) > model.MaxBorrowLimit {
			return errs.Newf(errs.KindInternalConsistency, "student %s holds %d items", id, len(borrowed))
		}
		slices.Sort(borrowed)
		if !slices.Equal(borrowed, loans) {
			return errs.Newf(errs.KindInternalConsistency, "student %s account %v differs from ledger %v", id, borrowed, loans)
		}
	}
	return nil
}
