// Package directory is the process-wide registry of accounts. It owns the
// single ledger and coordinates every operation that must change both a
// student's account and the ledger.
package directory

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/errs"
	"github.com/erazemk/slms/internal/identity"
	"github.com/erazemk/slms/internal/ledger"
	"github.com/erazemk/slms/internal/model"
)

// Recorder receives every successful state transition.
type Recorder interface {
	Record(ctx context.Context, e model.Event) error
}

// Options configures a Directory.
type Options struct {
	Scheme   identity.Scheme
	Clock    clock.Clock
	HashCost int
	Recorder Recorder
}

// Directory holds the accounts and the ledger for the lifetime of the process.
type Directory struct {
	scheme   identity.Scheme
	clock    clock.Clock
	hashCost int
	recorder Recorder
	ledger   *ledger.Ledger

	mu       sync.Mutex
	students map[string]*model.Account
	admins   map[string]*model.Account

	studentLocks keyedMutex
}

// New creates an empty directory. Zero options fall back to the default
// identifier scheme, the wall clock and bcrypt.DefaultCost.
func New(opts Options) (*Directory, error) {
	if opts.Scheme == (identity.Scheme{}) {
		opts.Scheme = identity.DefaultScheme()
	}
	if err := opts.Scheme.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}

	return &Directory{
		scheme:   opts.Scheme,
		clock:    opts.Clock,
		hashCost: opts.HashCost,
		recorder: opts.Recorder,
		ledger:   ledger.New(opts.Clock),
		students: make(map[string]*model.Account),
		admins:   make(map[string]*model.Account),
	}, nil
}

// Ledger returns the shared ledger.
func (d *Directory) Ledger() *ledger.Ledger { return d.ledger }

// Scheme returns the student identifier scheme in use.
func (d *Directory) Scheme() identity.Scheme { return d.scheme }

// AddAdmin registers an admin account. Admins are never auto-provisioned.
func (d *Directory) AddAdmin(id string, credentialHash []byte) error {
	if id == "" || len(credentialHash) == 0 {
		return errs.New(errs.KindValidation, "admin id and credential required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.admins[id]; ok {
		return errs.Newf(errs.KindConflict, "admin %s already exists", id)
	}
	d.admins[id] = model.NewAdmin(id, credentialHash)
	return nil
}

// Admin looks up an admin account.
func (d *Directory) Admin(id string) (*model.Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.admins[id]
	return a, ok
}

// Student looks up a student account without creating it.
func (d *Directory) Student(id string) (*model.Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.students[id]
	return s, ok
}

// GetOrCreateStudent returns the student account for id, creating it on first
// reference. A new account's credential is the identifier itself.
func (d *Directory) GetOrCreateStudent(id string) (*model.Account, error) {
	if !d.scheme.IsValidStudentID(id) {
		return nil, errs.Newf(errs.KindValidation, "invalid student id %q", id)
	}

	if s, ok := d.Student(id); ok {
		return s, nil
	}

	// Hash outside the lock, bcrypt is slow.
	hash, err := identity.HashCredential(id, d.hashCost)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.students[id]; ok {
		return s, nil
	}
	s := model.NewStudent(id, hash)
	d.students[id] = s
	slog.Info("student account created", "student", id)
	return s, nil
}

// LoginStudent checks the identifier format and the supplied credential.
func (d *Directory) LoginStudent(id, credential string) (*model.Account, error) {
	s, err := d.GetOrCreateStudent(id)
	if err != nil {
		return nil, err
	}
	if !identity.Authenticate(s, credential) {
		return nil, errs.New(errs.KindNotAuthenticated, "invalid student id or password")
	}
	return s, nil
}

// LoginAdmin checks an admin's credential.
func (d *Directory) LoginAdmin(id, credential string) (*model.Account, error) {
	a, ok := d.Admin(id)
	if !ok || !identity.Authenticate(a, credential) {
		return nil, errs.New(errs.KindNotAuthenticated, "invalid admin credentials")
	}
	return a, nil
}

// record journals a successful transition. Journal failures never undo it.
func (d *Directory) record(ctx context.Context, e model.Event) {
	if d.recorder == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = d.clock.Now()
	}
	if err := d.recorder.Record(ctx, e); err != nil {
		slog.Warn("failed to journal event", "kind", e.Kind, "actor", e.Actor, "item", e.ItemID, "error", err)
	}
}
