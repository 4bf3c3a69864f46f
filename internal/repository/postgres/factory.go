package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Users:        &usersRepo{pool},
		Transactions: &transactionsRepo{pool: pool, q: pool},
		AuditLogs:    &auditLogsRepo{pool},
	}
}
