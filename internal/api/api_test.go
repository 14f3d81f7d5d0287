package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/config"
	"github.com/erazemk/slms/internal/db"
	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/model"
	"github.com/erazemk/slms/internal/store"
)

const (
	testJWTSecret = "test-secret"
	alice         = "123456789asu"
	bob           = "987654321asu"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	clk := clock.Fake(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))

	dir, err := directory.New(directory.Options{
		Clock:    clk,
		HashCost: bcrypt.MinCost,
		Recorder: store.NewJournal(database),
	})
	if err != nil {
		t.Fatalf("directory.New: %v", err)
	}

	cfg := config.Default()
	cfg.BcryptCost = bcrypt.MinCost
	seed, err := cfg.DirectorySeed()
	if err != nil {
		t.Fatalf("DirectorySeed: %v", err)
	}
	if err := dir.Bootstrap(context.Background(), seed); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	router := NewRouter(dir, database, Options{JWTSecret: testJWTSecret, TokenExpiry: time.Hour, Clock: clk})
	server := httptest.NewServer(LoggingMiddleware(router))
	t.Cleanup(server.Close)
	return server
}

func login(t *testing.T, server *httptest.Server, path string, body map[string]string) string {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func studentToken(t *testing.T, server *httptest.Server, id string) string {
	return login(t, server, "/api/auth/login", map[string]string{"student_id": id, "password": id})
}

func adminToken(t *testing.T, server *httptest.Server) string {
	return login(t, server, "/api/auth/admin/login", map[string]string{"admin_id": "admin", "password": "admin"})
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// call performs a request and decodes the response into out when non-nil.
func call(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestStudentLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		name      string
		body      map[string]string
		status    int
		errorKind string
	}{
		{"wrong password", map[string]string{"student_id": alice, "password": "wrong"}, http.StatusUnauthorized, "not_authenticated"},
		{"bad format", map[string]string{"student_id": "asu123456789", "password": "x"}, http.StatusBadRequest, "validation"},
		{"missing password", map[string]string{"student_id": alice}, http.StatusBadRequest, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			status := call(t, "POST", server.URL+"/api/auth/login", "", tt.body, &body)
			if status != tt.status {
				t.Errorf("expected %d, got %d", tt.status, status)
			}
			if body.OK || string(body.Error) != tt.errorKind {
				t.Errorf("expected error %q, got %+v", tt.errorKind, body)
			}
		})
	}

	// First login with the identifier as password provisions the account.
	studentToken(t, server, alice)
}

func TestAdminLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)

	status := call(t, "POST", server.URL+"/api/auth/admin/login", "",
		map[string]string{"admin_id": "admin", "password": "wrong"}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", status)
	}

	// Students cannot log in through the admin endpoint.
	status = call(t, "POST", server.URL+"/api/auth/admin/login", "",
		map[string]string{"admin_id": alice, "password": alice}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for student on admin login, got %d", status)
	}

	adminToken(t, server)
}

func TestCatalogRequiresAuth(t *testing.T) {
	server := setupTestServer(t)

	if status := call(t, "GET", server.URL+"/api/catalog", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
	if status := call(t, "GET", server.URL+"/api/catalog", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", status)
	}

	var items []model.CatalogItem
	if status := call(t, "GET", server.URL+"/api/catalog", studentToken(t, server, alice), nil, &items); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(items) != 4 || items[0].ID != "B001" {
		t.Errorf("unexpected catalog: %+v", items)
	}

	var forSale []model.CatalogItem
	call(t, "GET", server.URL+"/api/catalog/for-sale", adminToken(t, server), nil, &forSale)
	if len(forSale) != 1 || forSale[0].ID != "S001" {
		t.Errorf("unexpected for-sale list: %+v", forSale)
	}
}

func TestBorrowReturnFlow(t *testing.T) {
	server := setupTestServer(t)
	aliceToken := studentToken(t, server, alice)
	bobToken := studentToken(t, server, bob)

	var item model.CatalogItem
	if status := call(t, "POST", server.URL+"/api/loans", aliceToken, loanRequest{ItemID: "B003"}, &item); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if item.AvailableCopies != 0 {
		t.Errorf("expected 0 available, got %d", item.AvailableCopies)
	}

	var body errorBody
	if status := call(t, "POST", server.URL+"/api/loans", aliceToken, loanRequest{ItemID: "B003"}, &body); status != http.StatusConflict {
		t.Errorf("expected 409 for double borrow, got %d", status)
	}
	if status := call(t, "POST", server.URL+"/api/loans", bobToken, loanRequest{ItemID: "B003"}, &body); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unavailable item, got %d", status)
	}
	if body.Error != "capacity_exceeded" {
		t.Errorf("expected capacity_exceeded, got %q", body.Error)
	}
	if status := call(t, "POST", server.URL+"/api/loans", bobToken, loanRequest{ItemID: "NOPE"}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", status)
	}

	var loans loansResponse
	call(t, "GET", server.URL+"/api/loans", aliceToken, nil, &loans)
	if loans.Borrowed != 1 || loans.Limit != model.MaxBorrowLimit || loans.Items[0].ID != "B003" {
		t.Errorf("unexpected loans: %+v", loans)
	}

	if status := call(t, "POST", server.URL+"/api/loans/return", aliceToken, loanRequest{ItemID: "B003"}, &item); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if item.AvailableCopies != 1 {
		t.Errorf("expected 1 available after return, got %d", item.AvailableCopies)
	}
	if status := call(t, "POST", server.URL+"/api/loans/return", aliceToken, loanRequest{ItemID: "B003"}, nil); status != http.StatusConflict {
		t.Errorf("expected 409 for returning unborrowed item, got %d", status)
	}

	call(t, "GET", server.URL+"/api/loans", aliceToken, nil, &loans)
	if loans.Borrowed != 0 || loans.Items == nil {
		t.Errorf("expected empty loan list, got %+v", loans)
	}
}

func TestBorrowLimitEndpoint(t *testing.T) {
	server := setupTestServer(t)
	token := studentToken(t, server, alice)

	for _, id := range []string{"B001", "B002"} {
		if status := call(t, "POST", server.URL+"/api/loans", token, loanRequest{ItemID: id}, nil); status != http.StatusCreated {
			t.Fatalf("borrow %s: expected 201, got %d", id, status)
		}
	}

	var body errorBody
	if status := call(t, "POST", server.URL+"/api/loans", token, loanRequest{ItemID: "B003"}, &body); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 at the limit, got %d", status)
	}
	if body.Error != "capacity_exceeded" {
		t.Errorf("expected capacity_exceeded, got %q", body.Error)
	}
}

func TestRolesAreDisjoint(t *testing.T) {
	server := setupTestServer(t)
	admin := adminToken(t, server)
	student := studentToken(t, server, alice)

	if status := call(t, "POST", server.URL+"/api/loans", admin, loanRequest{ItemID: "B001"}, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for admin borrowing, got %d", status)
	}
	if status := call(t, "GET", server.URL+"/api/sales", student, nil, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for student listing sales, got %d", status)
	}
	if status := call(t, "GET", server.URL+"/api/journal", student, nil, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for student reading journal, got %d", status)
	}
}

func TestAddItemEndpoint(t *testing.T) {
	server := setupTestServer(t)
	admin := adminToken(t, server)

	newItem := createItemRequest{ItemID: "B010", Title: "Compilers", Author: "Aho", ISBN: "978-0", Copies: 2}

	var item model.CatalogItem
	if status := call(t, "POST", server.URL+"/api/catalog", admin, newItem, &item); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if item.ID != "B010" || item.AvailableCopies != 2 {
		t.Errorf("unexpected item: %+v", item)
	}

	if status := call(t, "POST", server.URL+"/api/catalog", admin, newItem, nil); status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate id, got %d", status)
	}

	var body errorBody
	if status := call(t, "POST", server.URL+"/api/catalog", admin, map[string]any{"item_id": "B011", "copies": -1}, &body); status != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid item, got %d", status)
	}

	if status := call(t, "POST", server.URL+"/api/catalog", studentToken(t, server, alice), newItem, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for student adding item, got %d", status)
	}
}

func TestPurchaseFlow(t *testing.T) {
	server := setupTestServer(t)
	token := studentToken(t, server, alice)

	tests := []struct {
		name   string
		req    purchaseRequest
		status int
	}{
		{"cash without slot", purchaseRequest{ItemID: "S001", PaymentMethod: "cash", Faculty: "Engineering"}, http.StatusBadRequest},
		{"unknown method", purchaseRequest{ItemID: "S001", PaymentMethod: "visa", Faculty: "Engineering"}, http.StatusBadRequest},
		{"missing faculty", purchaseRequest{ItemID: "S001", PaymentMethod: "card"}, http.StatusBadRequest},
		{"bad slot", purchaseRequest{ItemID: "S001", PaymentMethod: "cash", Faculty: "Engineering", ScheduledTime: "Sunday - 9:00"}, http.StatusBadRequest},
		{"not for sale", purchaseRequest{ItemID: "B001", PaymentMethod: "card", Faculty: "Engineering"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := call(t, "POST", server.URL+"/api/purchases", token, tt.req, nil); status != tt.status {
				t.Errorf("expected %d, got %d", tt.status, status)
			}
		})
	}

	var sale model.Sale
	req := purchaseRequest{ItemID: "S001", PaymentMethod: "cash", Faculty: "Engineering", ScheduledTime: "Monday - 9:00"}
	if status := call(t, "POST", server.URL+"/api/purchases", token, req, &sale); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if sale.ID != "SALE0001" || sale.StudentID != alice || sale.Price != 15.00 {
		t.Errorf("unexpected sale: %+v", sale)
	}

	var sales []model.Sale
	call(t, "GET", server.URL+"/api/sales", adminToken(t, server), nil, &sales)
	if len(sales) != 1 || sales[0].ID != "SALE0001" {
		t.Errorf("unexpected sales: %+v", sales)
	}

	var catalog []model.CatalogItem
	call(t, "GET", server.URL+"/api/catalog", token, nil, &catalog)
	for _, it := range catalog {
		if it.ID == "S001" && (it.TotalCopies != 2 || it.AvailableCopies != 2) {
			t.Errorf("expected S001 at 2/2 after sale, got %d/%d", it.TotalCopies, it.AvailableCopies)
		}
	}
}

func TestSlotsArePublic(t *testing.T) {
	server := setupTestServer(t)

	var body map[string][]string
	if status := call(t, "GET", server.URL+"/api/schedule/slots", "", nil, &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(body["slots"]) != 40 || body["slots"][0] != "Monday - 9:00" {
		t.Errorf("unexpected slots: %v", body["slots"])
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := studentToken(t, server, alice)

	if status := call(t, "POST", server.URL+"/api/auth/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if status := call(t, "GET", server.URL+"/api/catalog", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}

	// A fresh login still works.
	fresh := studentToken(t, server, alice)
	if status := call(t, "GET", server.URL+"/api/catalog", fresh, nil, nil); status != http.StatusOK {
		t.Errorf("expected 200 with new token, got %d", status)
	}
}

func TestJournalEndpoint(t *testing.T) {
	server := setupTestServer(t)
	student := studentToken(t, server, alice)
	admin := adminToken(t, server)

	call(t, "POST", server.URL+"/api/loans", student, loanRequest{ItemID: "B001"}, nil)
	call(t, "POST", server.URL+"/api/loans/return", student, loanRequest{ItemID: "B001"}, nil)

	var events []model.Event
	if status := call(t, "GET", server.URL+"/api/journal?actor="+alice, admin, nil, &events); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(events) != 2 || events[0].Kind != model.EventBorrowed || events[1].Kind != model.EventReturned {
		t.Errorf("unexpected events: %+v", events)
	}

	call(t, "GET", server.URL+"/api/journal?kind=borrowed&item_id=B001", admin, nil, &events)
	if len(events) != 1 {
		t.Errorf("expected 1 borrowed event, got %d", len(events))
	}

	if status := call(t, "GET", server.URL+"/api/journal?kind=teleported", admin, nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", status)
	}
	if status := call(t, "GET", server.URL+"/api/journal?limit=abc", admin, nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/schedule/slots")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	req, _ := http.NewRequest("GET", server.URL+"/api/schedule/slots", nil)
	req.Header.Set(RequestIDHeader, "3f1c6c1e-7d1a-4d55-9b0e-2a4f5b8e9c01")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "3f1c6c1e-7d1a-4d55-9b0e-2a4f5b8e9c01" {
		t.Errorf("expected incoming request id to be kept, got %q", got)
	}
}
