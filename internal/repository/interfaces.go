package repository

import (
	"context"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	GetByReference(ctx context.Context, ref string) (models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) (models.TransactionPage, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)

	// Transition applies ch only if the stored status still equals ch.From.
	// It returns models.ErrConflict when another writer got there first.
	Transition(ctx context.Context, id string, ch models.StatusChange) (models.Transaction, error)

	SumsByUser(ctx context.Context, userID string) ([]models.StatusSum, error)
	// Scan returns every transaction created in [from, to), oldest first.
	Scan(ctx context.Context, from, to time.Time) ([]models.Transaction, error)

	// WithinUserLock runs fn in one database transaction holding an exclusive
	// per-user lock, so a balance check and the insert it guards cannot interleave
	// with another debit for the same user.
	WithinUserLock(ctx context.Context, userID string, fn func(Transactions) error) error
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

// Repositories bundles the stores a service process needs.
type Repositories struct {
	Users        Users
	Transactions Transactions
	AuditLogs    AuditLogs
}
