package model

import (
	"slices"

	"github.com/erazemk/slms/internal/errs"
)

// Role tags an account with its capabilities.
type Role string

// Roles.
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// MaxBorrowLimit is the number of items a student may hold at once.
const MaxBorrowLimit = 2

// ParseRole returns the role named by s. Unknown roles fail closed.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Account is a student or an admin. Only students hold items.
type Account struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	CredentialHash []byte `json:"-"`

	borrowed []string
}

// NewStudent creates a student account with no borrowed items.
func NewStudent(id string, credentialHash []byte) *Account {
	return &Account{ID: id, Role: RoleStudent, CredentialHash: credentialHash}
}

// NewAdmin creates an admin account.
func NewAdmin(id string, credentialHash []byte) *Account {
	return &Account{ID: id, Role: RoleAdmin, CredentialHash: credentialHash}
}

// CanBorrowMore reports whether a student is below MaxBorrowLimit.
func (a *Account) CanBorrowMore() bool {
	return a.Role == RoleStudent && len(a.borrowed) < MaxBorrowLimit
}

// Borrow adds itemID to the student's borrowed set.
func (a *Account) Borrow(itemID string) error {
	if a.Role != RoleStudent {
		return errs.New(errs.KindNotAuthorized, "only students can borrow items")
	}
	if slices.Contains(a.borrowed, itemID) {
		return errs.Newf(errs.KindConflict, "item %s is already borrowed", itemID)
	}
	if !a.CanBorrowMore() {
		return errs.Newf(errs.KindCapacityExceeded,
			"you have reached the maximum borrowing limit of %d items, please return an item first", MaxBorrowLimit)
	}
	a.borrowed = append(a.borrowed, itemID)
	return nil
}

// ReturnItem removes itemID from the student's borrowed set.
func (a *Account) ReturnItem(itemID string) error {
	if a.Role != RoleStudent {
		return errs.New(errs.KindNotAuthorized, "only students can return items")
	}
	idx := slices.Index(a.borrowed, itemID)
	if idx < 0 {
		return errs.Newf(errs.KindConflict, "item %s is not currently borrowed", itemID)
	}
	a.borrowed = slices.Delete(a.borrowed, idx, idx+1)
	return nil
}

// HasBorrowed reports whether itemID is in the borrowed set.
func (a *Account) HasBorrowed(itemID string) bool {
	return slices.Contains(a.borrowed, itemID)
}

// Borrowed returns a copy of the borrowed item IDs in borrow order.
func (a *Account) Borrowed() []string {
	return slices.Clone(a.borrowed)
}
