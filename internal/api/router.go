// Package api exposes the library over HTTP.
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/model"
	"github.com/erazemk/slms/internal/store"
)

// Options configures the router.
type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration
	Clock       clock.Clock
}

// NewRouter creates the API router with all endpoints registered. db holds
// the token revocation list and the activity journal.
func NewRouter(dir *directory.Directory, db *sql.DB, opts Options) http.Handler {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{Dir: dir, DB: db, JWTSecret: opts.JWTSecret, Expiry: opts.TokenExpiry, Clock: opts.Clock}
	catalogHandler := &CatalogHandler{Dir: dir}
	loansHandler := &LoansHandler{Dir: dir}
	purchasesHandler := &PurchasesHandler{Dir: dir}
	journalHandler := &JournalHandler{Journal: store.NewJournal(db)}

	authMW := AuthMiddleware(opts.JWTSecret, db, opts.Clock.Now)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStudent := RequireRole(model.RoleStudent)

	// Public: login and schedule.
	mux.HandleFunc("POST /api/auth/login", authHandler.StudentLogin)
	mux.HandleFunc("POST /api/auth/admin/login", authHandler.AdminLogin)
	mux.HandleFunc("GET /api/schedule/slots", purchasesHandler.Slots)

	// Authenticated, any role.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/catalog", authMW(http.HandlerFunc(catalogHandler.List)))
	mux.Handle("GET /api/catalog/for-sale", authMW(http.HandlerFunc(catalogHandler.ForSale)))

	// Students.
	mux.Handle("GET /api/loans", authMW(requireStudent(http.HandlerFunc(loansHandler.List))))
	mux.Handle("POST /api/loans", authMW(requireStudent(http.HandlerFunc(loansHandler.Borrow))))
	mux.Handle("POST /api/loans/return", authMW(requireStudent(http.HandlerFunc(loansHandler.Return))))
	mux.Handle("POST /api/purchases", authMW(requireStudent(http.HandlerFunc(purchasesHandler.Create))))

	// Admins.
	mux.Handle("POST /api/catalog", authMW(requireAdmin(http.HandlerFunc(catalogHandler.Create))))
	mux.Handle("GET /api/sales", authMW(requireAdmin(http.HandlerFunc(purchasesHandler.Sales))))
	mux.Handle("GET /api/journal", authMW(requireAdmin(http.HandlerFunc(journalHandler.List))))

	return mux
}
