package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/errs"
	"github.com/erazemk/slms/internal/model"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(clock.Fake(time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)))
}

func TestAddItemRejectsDuplicate(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("B010", "Original", "A", "isbn", 2, false, 0)))

	err := l.AddItem(model.NewCatalogItem("B010", "Impostor", "B", "isbn2", 9, true, 5))
	assert.True(t, errs.Is(err, errs.KindConflict), "got %v", err)

	item, ok := l.Item("B010")
	require.True(t, ok)
	assert.Equal(t, "Original", item.Title)
	assert.Equal(t, 2, item.TotalCopies)
	assert.Len(t, l.Items(), 1)
}

func TestAddItemValidation(t *testing.T) {
	l := newLedger(t)
	assert.True(t, errs.Is(l.AddItem(nil), errs.KindValidation))
	assert.True(t, errs.Is(l.AddItem(model.NewCatalogItem("", "T", "A", "I", 1, false, 0)), errs.KindValidation))
	assert.True(t, errs.Is(l.AddItem(&model.CatalogItem{ID: "X", TotalCopies: 1, AvailableCopies: 2}), errs.KindValidation))
}

func TestAddItemStoresCopy(t *testing.T) {
	l := newLedger(t)
	item := model.NewCatalogItem("B1", "T", "A", "I", 1, false, 0)
	require.NoError(t, l.AddItem(item))

	item.AvailableCopies = 99
	got, _ := l.Item("B1")
	assert.Equal(t, 1, got.AvailableCopies)
}

func TestBorrowAndReturnRoundTrip(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("B1", "T", "A", "I", 2, false, 0)))

	require.NoError(t, l.Borrow("s1", "B1"))
	item, _ := l.Item("B1")
	assert.Equal(t, 1, item.AvailableCopies)
	assert.True(t, l.HasBorrow("s1", "B1"))

	require.NoError(t, l.ReturnItem("s1", "B1"))
	item, _ = l.Item("B1")
	assert.Equal(t, 2, item.AvailableCopies)
	assert.False(t, l.HasBorrow("s1", "B1"))
	assert.Empty(t, l.BorrowsOf("s1"))
}

func TestBorrowFailures(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("B1", "T", "A", "I", 1, false, 0)))

	assert.True(t, errs.Is(l.Borrow("s1", "missing"), errs.KindNotFound))

	require.NoError(t, l.Borrow("s1", "B1"))
	assert.True(t, errs.Is(l.Borrow("s1", "B1"), errs.KindConflict))
	assert.True(t, errs.Is(l.Borrow("s2", "B1"), errs.KindCapacityExceeded))

	item, _ := l.Item("B1")
	assert.Equal(t, 0, item.AvailableCopies)
	assert.Equal(t, []string{"B1"}, l.BorrowsOf("s1"))
	assert.Empty(t, l.BorrowsOf("s2"))
}

func TestReturnWithoutLoan(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("B1", "T", "A", "I", 1, false, 0)))
	require.NoError(t, l.Borrow("s1", "B1"))

	assert.True(t, errs.Is(l.ReturnItem("s2", "B1"), errs.KindConflict))
	assert.True(t, errs.Is(l.ReturnItem("s1", "nope"), errs.KindConflict))

	item, _ := l.Item("B1")
	assert.Equal(t, 0, item.AvailableCopies)
}

func TestSellLastCopy(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("S010", "Guide", "A", "I", 1, true, 10.0)))

	sale, err := l.Sell("123456789asu", "S010", model.PaymentCash, "Engineering", "Monday - 9:00")
	require.NoError(t, err)
	assert.Equal(t, "SALE0001", sale.ID)
	assert.Equal(t, "Guide", sale.ItemTitle)
	assert.Equal(t, 10.0, sale.Price)
	assert.Equal(t, time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC), sale.Timestamp)

	item, _ := l.Item("S010")
	assert.False(t, item.IsAvailable())
	assert.Equal(t, 0, item.TotalCopies)
	assert.Empty(t, l.ItemsForSale())

	_, err = l.Sell("123456789asu", "S010", model.PaymentCard, "Engineering", "")
	assert.True(t, errs.Is(err, errs.KindCapacityExceeded), "got %v", err)
	assert.Len(t, l.Sales(), 1)
}

func TestSellRejectsItemsNotForSale(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("B1", "T", "A", "I", 1, false, 0)))

	_, err := l.Sell("s1", "B1", model.PaymentCard, "Law", "")
	assert.True(t, errs.Is(err, errs.KindNotFound))
	_, err = l.Sell("s1", "missing", model.PaymentCard, "Law", "")
	assert.True(t, errs.Is(err, errs.KindNotFound))

	assert.Empty(t, l.Sales())
	item, _ := l.Item("B1")
	assert.Equal(t, 1, item.TotalCopies)
}

func TestSaleIDsAreSequential(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("S1", "T", "A", "I", 3, true, 1)))

	for _, want := range []string{"SALE0001", "SALE0002", "SALE0003"} {
		sale, err := l.Sell("s1", "S1", model.PaymentCard, "Arts", "")
		require.NoError(t, err)
		assert.Equal(t, want, sale.ID)
	}
	sales := l.Sales()
	require.Len(t, sales, 3)
	assert.Equal(t, "SALE0001", sales[0].ID)
}

func TestConcurrentSellsOfLastCopy(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.AddItem(model.NewCatalogItem("S1", "T", "A", "I", 1, true, 1)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Sell("s1", "S1", model.PaymentCard, "Arts", ""); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sold)
	item, _ := l.Item("S1")
	assert.Equal(t, 0, item.AvailableCopies)
	assert.Equal(t, 0, item.TotalCopies)
}
