// Package memory is a process-local implementation of the repositories.
// It backs APP_STORE=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/wallet-ledger/internal/models"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
)

type Store struct {
	mu     sync.RWMutex
	txs    map[string]models.Transaction
	refs   map[string]string
	users  map[string]models.User
	emails map[string]string
	audit  []models.AuditLog

	userLocks sync.Map // userID -> *sync.Mutex
	now       func() time.Time
}

func New() *Store {
	return &Store{
		txs:    map[string]models.Transaction{},
		refs:   map[string]string{},
		users:  map[string]models.User{},
		emails: map[string]string{},
		now:    time.Now,
	}
}

// SetClock replaces the store's time source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func NewRepositories(s *Store) repo.Repositories {
	return repo.Repositories{
		Users:        &usersRepo{s},
		Transactions: &transactionsRepo{s},
		AuditLogs:    &auditLogsRepo{s},
	}
}

// ---------------- transactions ----------------

type transactionsRepo struct{ s *Store }

func (r *transactionsRepo) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if _, dup := r.s.refs[tx.Reference]; dup {
		return models.Transaction{}, models.ErrConflict
	}
	now := r.s.now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = tx.CreatedAt
	r.s.txs[tx.ID] = tx
	r.s.refs[tx.Reference] = tx.ID
	return tx, nil
}

func (r *transactionsRepo) GetByID(_ context.Context, id string) (models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tx, ok := r.s.txs[id]
	if !ok {
		return models.Transaction{}, models.ErrNotFound
	}
	return tx, nil
}

func (r *transactionsRepo) GetByReference(ctx context.Context, ref string) (models.Transaction, error) {
	r.s.mu.RLock()
	id, ok := r.s.refs[ref]
	r.s.mu.RUnlock()
	if !ok {
		return models.Transaction{}, models.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *transactionsRepo) Transition(_ context.Context, id string, ch models.StatusChange) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.txs[id]
	if !ok {
		return models.Transaction{}, models.ErrNotFound
	}
	if tx.Status != ch.From {
		return models.Transaction{}, models.ErrConflict
	}
	tx = ch.Apply(tx)
	r.s.txs[id] = tx
	return tx, nil
}

func (r *transactionsRepo) List(_ context.Context, f models.TransactionFilter) (models.TransactionPage, error) {
	f.Normalize()
	r.s.mu.RLock()
	var rows []models.Transaction
	for _, tx := range r.s.txs {
		if matches(f, tx) {
			rows = append(rows, tx)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return compare(f.SortBy, rows[i], rows[j], f.Asc) < 0 })
	total := int64(len(rows))

	if f.Cursor != nil {
		start := len(rows)
		for i, tx := range rows {
			if compareCursor(f.SortBy, tx, *f.Cursor, f.Asc) > 0 {
				start = i
				break
			}
		}
		rows = rows[start:]
	} else {
		off := f.Offset()
		if off > len(rows) {
			off = len(rows)
		}
		rows = rows[off:]
	}
	if len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	if rows == nil {
		rows = []models.Transaction{}
	}
	page := models.TransactionPage{Data: rows, Pagination: models.NewPagination(f, total)}
	return repo.WithNextCursor(f, page), nil
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	f := models.TransactionFilter{UserID: userID, Limit: limit, Page: offset/limit + 1}
	page, err := r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (r *transactionsRepo) SumsByUser(_ context.Context, userID string) ([]models.StatusSum, error) {
	type key struct {
		t models.TransactionType
		s models.TransactionStatus
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sums := map[key]*models.StatusSum{}
	for _, tx := range r.s.txs {
		if tx.UserID != userID {
			continue
		}
		k := key{tx.Type, tx.Status}
		if sums[k] == nil {
			sums[k] = &models.StatusSum{Type: tx.Type, Status: tx.Status, Total: decimal.Zero}
		}
		sums[k].Total = sums[k].Total.Add(tx.Amount)
		sums[k].Count++
	}
	out := make([]models.StatusSum, 0, len(sums))
	for _, v := range sums {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (r *transactionsRepo) Scan(_ context.Context, from, to time.Time) ([]models.Transaction, error) {
	r.s.mu.RLock()
	var out []models.Transaction
	for _, tx := range r.s.txs {
		if !tx.CreatedAt.Before(from) && tx.CreatedAt.Before(to) {
			out = append(out, tx)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return compare(models.SortCreatedAt, out[i], out[j], true) < 0 })
	return out, nil
}

func (r *transactionsRepo) WithinUserLock(_ context.Context, userID string, fn func(repo.Transactions) error) error {
	v, _ := r.s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return fn(r)
}

func matches(f models.TransactionFilter, tx models.Transaction) bool {
	switch {
	case f.UserID != "" && tx.UserID != f.UserID,
		f.Type != "" && tx.Type != f.Type,
		f.Status != "" && tx.Status != f.Status,
		f.Method != "" && tx.Method != f.Method,
		f.Class != "" && tx.Class != f.Class,
		f.From != nil && tx.CreatedAt.Before(*f.From),
		f.To != nil && !tx.CreatedAt.Before(*f.To):
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		for _, field := range []string{tx.Reference, tx.Description, tx.TransactionID,
			tx.SenderPhone, tx.SenderName, tx.ReceiverPhone, tx.ReceiverName} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

func cmpKey(field models.SortField, a, b models.Transaction) int {
	switch field {
	case models.SortAmount:
		return a.Amount.Cmp(b.Amount)
	case models.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// compare orders by the sort key, then id, in the requested direction.
func compare(field models.SortField, a, b models.Transaction, asc bool) int {
	c := cmpKey(field, a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if !asc {
		c = -c
	}
	return c
}

func compareCursor(field models.SortField, tx models.Transaction, cur models.Cursor, asc bool) int {
	ref := models.Transaction{ID: cur.ID}
	switch field {
	case models.SortAmount:
		ref.Amount, _ = decimal.NewFromString(cur.Value)
	case models.SortUpdatedAt:
		ref.UpdatedAt, _ = time.Parse(time.RFC3339Nano, cur.Value)
	default:
		ref.CreatedAt, _ = time.Parse(time.RFC3339Nano, cur.Value)
	}
	return compare(field, tx, ref, asc)
}

// ---------------- users ----------------

type usersRepo struct{ s *Store }

func (r *usersRepo) Create(_ context.Context, u models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, dup := r.s.emails[email]; dup {
		return models.User{}, models.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = u
	r.s.emails[email] = u.ID
	return u, nil
}

func (r *usersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.emails[strings.ToLower(email)]
	r.s.mu.RUnlock()
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *usersRepo) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.users[id]
	return ok, nil
}

// ---------------- audit logs ----------------

type auditLogsRepo struct{ s *Store }

func (r *auditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = r.s.now().UTC()
	}
	r.s.audit = append(r.s.audit, l)
	return nil
}

func (r *auditLogsRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.AuditLog
	for _, l := range r.s.audit {
		if l.EntityType == entityType && l.EntityID != nil && *l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}
