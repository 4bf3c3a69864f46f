package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/wallet-ledger/internal/models"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type transactionsRepo struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

const txnColumns = `id, reference, user_id, type, class, amount, amount_in_string, method,
  transaction_id, sender_phone, sender_name, receiver_phone, receiver_name, description,
  status, reason, approved_by, approved_at, completed_by, completed_at, confirmed_by, confirmed_at,
  created_at, updated_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID, &tx.Reference, &tx.UserID, &tx.Type, &tx.Class, &tx.Amount, &tx.AmountInString, &tx.Method,
		&tx.TransactionID, &tx.SenderPhone, &tx.SenderName, &tx.ReceiverPhone, &tx.ReceiverName, &tx.Description,
		&tx.Status, &tx.Reason, &tx.ApprovedBy, &tx.ApprovedAt, &tx.CompletedBy, &tx.CompletedAt, &tx.ConfirmedBy, &tx.ConfirmedAt,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return tx, models.ErrNotFound
	}
	return tx, err
}

func collectTxns(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	out := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	const q = `
INSERT INTO transactions (
  id, reference, user_id, type, class, amount, amount_in_string, method,
  transaction_id, sender_phone, sender_name, receiver_phone, receiver_name, description, status
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING ` + txnColumns
	out, err := scanTxn(r.q.QueryRow(ctx, q,
		tx.ID, tx.Reference, tx.UserID, tx.Type, tx.Class, tx.Amount, tx.AmountInString, tx.Method,
		tx.TransactionID, tx.SenderPhone, tx.SenderName, tx.ReceiverPhone, tx.ReceiverName, tx.Description, tx.Status,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.Transaction{}, fmt.Errorf("%w: duplicate reference", models.ErrConflict)
	}
	return out, err
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Transaction{}, models.ErrNotFound
	}
	return scanTxn(r.q.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) GetByReference(ctx context.Context, ref string) (models.Transaction, error) {
	return scanTxn(r.q.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE reference=$1`, ref))
}

// Transition is a compare-and-swap on status: the row is only touched if it
// is still in ch.From, and the audit stamp is written in the same statement.
func (r *transactionsRepo) Transition(ctx context.Context, id string, ch models.StatusChange) (models.Transaction, error) {
	args := []any{id, ch.From, ch.To, ch.At}
	var set string
	switch ch.To {
	case models.TxnApproved:
		set = `approved_by=$5, approved_at=$4`
		args = append(args, ch.Actor)
	case models.TxnCompleted:
		set = `completed_by=$5, completed_at=$4,
		       transaction_id = CASE WHEN $6 <> '' THEN $6 ELSE transaction_id END`
		args = append(args, ch.Actor, ch.TransactionID)
	case models.TxnConfirmed:
		set = `confirmed_by=$5, confirmed_at=$4`
		args = append(args, ch.Actor)
	case models.TxnFailed:
		set = `reason=$5`
		args = append(args, ch.Reason)
	default:
		return models.Transaction{}, fmt.Errorf("%w: unknown target %q", models.ErrInvalidTransition, ch.To)
	}

	q := `UPDATE transactions SET status=$3, updated_at=$4, ` + set + `
	       WHERE id=$1 AND status=$2
	   RETURNING ` + txnColumns
	tx, err := scanTxn(r.q.QueryRow(ctx, q, args...))
	if !errors.Is(err, models.ErrNotFound) {
		return tx, err
	}
	// nothing updated: either the row is gone or someone moved it first
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id=$1)`, id).Scan(&exists); err != nil {
		return models.Transaction{}, err
	}
	if !exists {
		return models.Transaction{}, models.ErrNotFound
	}
	return models.Transaction{}, models.ErrConflict
}

var sortColumns = map[models.SortField]string{
	models.SortCreatedAt: "created_at",
	models.SortUpdatedAt: "updated_at",
	models.SortAmount:    "amount",
}

type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func filterWhere(f models.TransactionFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Method != "" {
		w.add("method = ?", f.Method)
	}
	if f.Class != "" {
		w.add("class = ?", f.Class)
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at < ?", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pat := "%" + likeEscaper.Replace(s) + "%"
		w.add(`(reference ILIKE ? OR description ILIKE ? OR transaction_id ILIKE ?
		   OR sender_phone ILIKE ? OR receiver_phone ILIKE ? OR sender_name ILIKE ? OR receiver_name ILIKE ?)`,
			pat, pat, pat, pat, pat, pat, pat)
	}
	return w
}

func (r *transactionsRepo) List(ctx context.Context, f models.TransactionFilter) (models.TransactionPage, error) {
	f.Normalize()
	if f.UserID != "" {
		if _, err := uuid.Parse(f.UserID); err != nil {
			return models.TransactionPage{Data: []models.Transaction{}, Pagination: models.NewPagination(f, 0)}, nil
		}
	}
	w := filterWhere(f)

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+w.sql(), w.args...).Scan(&total); err != nil {
		return models.TransactionPage{}, err
	}

	col := sortColumns[f.SortBy]
	dir, cmp := "DESC", "<"
	if f.Asc {
		dir, cmp = "ASC", ">"
	}
	if f.Cursor != nil {
		v, err := cursorArg(f.SortBy, f.Cursor.Value)
		if err != nil {
			return models.TransactionPage{}, err
		}
		w.add(fmt.Sprintf("(%s, id) %s (?, ?::uuid)", col, cmp), v, f.Cursor.ID)
	}
	w.args = append(w.args, f.Limit, f.Offset())
	n := len(w.args)
	q := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		txnColumns, w.sql(), col, dir, dir, n-1, n)

	rows, err := r.q.Query(ctx, q, w.args...)
	if err != nil {
		return models.TransactionPage{}, err
	}
	data, err := collectTxns(rows)
	if err != nil {
		return models.TransactionPage{}, err
	}
	page := models.TransactionPage{Data: data, Pagination: models.NewPagination(f, total)}
	return repo.WithNextCursor(f, page), nil
}

func cursorArg(field models.SortField, v string) (any, error) {
	if field == models.SortAmount {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed cursor", models.ErrValidation)
		}
		return d, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	return t, nil
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []models.Transaction{}, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+txnColumns+`
		   FROM transactions
		  WHERE user_id=$1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectTxns(rows)
}

func (r *transactionsRepo) SumsByUser(ctx context.Context, userID string) ([]models.StatusSum, error) {
	rows, err := r.q.Query(ctx,
		`SELECT type, status, COALESCE(SUM(amount), 0), COUNT(*)
		   FROM transactions
		  WHERE user_id=$1
		  GROUP BY type, status
		  ORDER BY type, status`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.StatusSum
	for rows.Next() {
		var s models.StatusSum
		if err := rows.Scan(&s.Type, &s.Status, &s.Total, &s.Count); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) Scan(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+txnColumns+`
		   FROM transactions
		  WHERE created_at >= $1 AND created_at < $2
		  ORDER BY created_at, id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	return collectTxns(rows)
}

// WithinUserLock holds pg_advisory_xact_lock keyed on the user for the
// lifetime of one database transaction.
func (r *transactionsRepo) WithinUserLock(ctx context.Context, userID string, fn func(repo.Transactions) error) error {
	if r.inTx {
		return fn(r)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := fn(&transactionsRepo{pool: r.pool, q: tx, inTx: true}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
