package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/wallet-ledger/internal/models"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
)

var base = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, r repo.Transactions, n int, mut func(i int, tx *models.Transaction)) []models.Transaction {
	t.Helper()
	var out []models.Transaction
	for i := 0; i < n; i++ {
		tx := models.Transaction{
			Reference: fmt.Sprintf("TXN-%03d", i),
			UserID:    "u1",
			Type:      models.TxnDeposit,
			Class:     models.ClassUser,
			Method:    models.MethodCash,
			Status:    models.TxnPending,
			Amount:    decimal.NewFromInt(int64(100 + i)),
			// pairs of rows share a timestamp to exercise the id tie-break
			CreatedAt: base.Add(time.Duration(i/2) * time.Minute),
		}
		if mut != nil {
			mut(i, &tx)
		}
		created, err := r.Create(context.Background(), tx)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestList_FiltersAndSearch(t *testing.T) {
	r := NewRepositories(New()).Transactions
	seed(t, r, 6, func(i int, tx *models.Transaction) {
		if i%2 == 1 {
			tx.Type = models.TxnWithdrawal
			tx.ReceiverPhone = "0911000111"
		}
		if i == 4 {
			tx.Description = "Sunday offering"
		}
	})
	ctx := context.Background()

	page, err := r.List(ctx, models.TransactionFilter{Type: models.TxnWithdrawal})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)

	page, err = r.List(ctx, models.TransactionFilter{Search: "OFFERING"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "TXN-004", page.Data[0].Reference)

	page, err = r.List(ctx, models.TransactionFilter{Search: "0911000"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)

	from := base.Add(time.Minute)
	to := base.Add(2 * time.Minute)
	page, err = r.List(ctx, models.TransactionFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestList_DefaultOrderNewestFirst(t *testing.T) {
	r := NewRepositories(New()).Transactions
	seed(t, r, 5, nil)
	page, err := r.List(context.Background(), models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 5)
	for i := 1; i < len(page.Data); i++ {
		assert.False(t, page.Data[i].CreatedAt.After(page.Data[i-1].CreatedAt))
	}
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.Empty(t, page.Pagination.NextCursor)
}

func TestList_CursorStableUnderInserts(t *testing.T) {
	r := NewRepositories(New()).Transactions
	ctx := context.Background()
	seed(t, r, 10, nil)

	seen := map[string]bool{}
	f := models.TransactionFilter{Limit: 3}
	for pages := 0; pages < 10; pages++ {
		page, err := r.List(ctx, f)
		require.NoError(t, err)
		for _, tx := range page.Data {
			assert.False(t, seen[tx.ID], "row %s returned twice", tx.Reference)
			seen[tx.ID] = true
		}
		// a newer row lands between page fetches
		_, err = r.Create(ctx, models.Transaction{
			Reference: fmt.Sprintf("NEW-%d", pages), UserID: "u1", Type: models.TxnDeposit,
			Class: models.ClassUser, Method: models.MethodCash, Status: models.TxnPending,
			Amount: decimal.NewFromInt(1), CreatedAt: base.Add(time.Hour + time.Duration(pages)*time.Minute),
		})
		require.NoError(t, err)

		if page.Pagination.NextCursor == "" {
			break
		}
		cur, err := repo.DecodeCursor(page.Pagination.NextCursor)
		require.NoError(t, err)
		f.Cursor = cur
	}
	assert.Len(t, seen, 10)
}

func TestList_SortByAmountAscending(t *testing.T) {
	r := NewRepositories(New()).Transactions
	seed(t, r, 4, nil)
	page, err := r.List(context.Background(), models.TransactionFilter{SortBy: models.SortAmount, Asc: true, Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "102", page.Data[0].Amount.String())
	assert.Equal(t, "103", page.Data[1].Amount.String())
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestList_HugePageIsEmpty(t *testing.T) {
	r := NewRepositories(New()).Transactions
	seed(t, r, 3, nil)
	page, err := r.List(context.Background(), models.TransactionFilter{Page: 461168601842738792, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, models.MaxPage, page.Pagination.Page)
	assert.Equal(t, int64(3), page.Pagination.Total)
}

func TestTransition_CompareAndSwap(t *testing.T) {
	r := NewRepositories(New()).Transactions
	ctx := context.Background()
	tx := seed(t, r, 1, nil)[0]

	ch := models.StatusChange{From: models.TxnPending, To: models.TxnApproved, Actor: "ap", At: base}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Transition(ctx, tx.ID, ch)
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, models.ErrConflict)
		conflicts++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, conflicts)

	_, err := r.Transition(ctx, "missing", ch)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreate_DuplicateReference(t *testing.T) {
	r := NewRepositories(New()).Transactions
	seed(t, r, 1, nil)
	_, err := r.Create(context.Background(), models.Transaction{Reference: "TXN-000"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSumsByUser(t *testing.T) {
	r := NewRepositories(New()).Transactions
	seed(t, r, 4, func(i int, tx *models.Transaction) {
		if i == 3 {
			tx.UserID = "u2"
		}
	})
	sums, err := r.SumsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, int64(3), sums[0].Count)
	assert.Equal(t, "303", sums[0].Total.String())
}
