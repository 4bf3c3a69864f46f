package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/wallet-ledger/internal/cache"
	"github.com/baharkarakas/wallet-ledger/internal/config"
	"github.com/baharkarakas/wallet-ledger/internal/events"
	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
	"github.com/baharkarakas/wallet-ledger/internal/metrics"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/money"
	"github.com/baharkarakas/wallet-ledger/internal/notify"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
	"github.com/baharkarakas/wallet-ledger/internal/validate"
	"github.com/baharkarakas/wallet-ledger/internal/worker"
)

const (
	amountPlaces  = 2
	idemPending   = "pending"
	sideEffectTTL = 10 * time.Second
)

// Notifier pushes a message to the live sessions of one user.
type Notifier interface {
	Notify(userID string, msg notify.Message)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, notify.Message) {}

type TransactionService struct {
	trx    repo.Transactions
	users  repo.Users
	log    repo.AuditLogs
	wallet *WalletService
	wp     *worker.Pool
	idem   cache.Store
	pub    events.Publisher
	hub    Notifier
	cfg    config.Config
	now    func() time.Time
}

// Deps groups the collaborators of TransactionService. Pub and Hub may be nil.
type Deps struct {
	Repos  repo.Repositories
	Wallet *WalletService
	Pool   *worker.Pool
	Cache  cache.Store
	Pub    events.Publisher
	Hub    Notifier
}

func NewTransactionService(d Deps, cfg config.Config) *TransactionService {
	s := &TransactionService{
		trx:    d.Repos.Transactions,
		users:  d.Repos.Users,
		log:    d.Repos.AuditLogs,
		wallet: d.Wallet,
		wp:     d.Pool,
		idem:   d.Cache,
		pub:    d.Pub,
		hub:    d.Hub,
		cfg:    cfg,
		now:    time.Now,
	}
	if s.pub == nil {
		s.pub = events.Nop{}
	}
	if s.hub == nil {
		s.hub = nopNotifier{}
	}
	if s.cfg.Location == nil {
		s.cfg.Location = time.UTC
	}
	return s
}

// CreateInput is the request to record a new transaction. Counterparty
// fields are interpreted per method; for cbe the phone fields carry the
// customer's account number.
type CreateInput struct {
	UserID         string                  `json:"userId"`
	Type           models.TransactionType  `json:"type"`
	Class          models.TransactionClass `json:"class"`
	Amount         decimal.Decimal         `json:"amount"`
	AmountInString string                  `json:"amountInString"`
	Method         models.Method           `json:"method"`
	TransactionID  string                  `json:"transactionId"`
	SenderPhone    string                  `json:"senderPhone"`
	SenderName     string                  `json:"senderName"`
	ReceiverPhone  string                  `json:"receiverPhone"`
	ReceiverName   string                  `json:"receiverName"`
	Description    string                  `json:"description"`
	IdempotencyKey string                  `json:"-"`
}

// ---------------- create ----------------

// Create records a pending transaction. replayed is true when an earlier
// request with the same idempotency key already created it.
func (s *TransactionService) Create(ctx context.Context, actor lifecycle.Actor, in CreateInput) (tx models.Transaction, replayed bool, err error) {
	if actor.UserID == "" {
		return models.Transaction{}, false, models.ErrUnauthorized
	}
	tx, err = s.build(actor, in)
	if err != nil {
		metrics.TransactionsRejected.Inc()
		return models.Transaction{}, false, err
	}

	var idemKey string
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		idemKey = "idem:" + actor.UserID + ":" + key
		prev, found, err := s.claimKey(ctx, idemKey)
		if err != nil {
			return models.Transaction{}, false, err
		}
		if found {
			return prev, true, nil
		}
		defer func() {
			if err != nil {
				_ = s.idem.Delete(context.WithoutCancel(ctx), idemKey)
			}
		}()
	}

	ok, err := s.users.Exists(ctx, tx.UserID)
	if err != nil {
		return models.Transaction{}, false, err
	}
	if !ok {
		return models.Transaction{}, false, fmt.Errorf("%w: user %s", models.ErrNotFound, tx.UserID)
	}

	if tx.Type.IsDebit() {
		err = s.trx.WithinUserLock(ctx, tx.UserID, func(r repo.Transactions) error {
			st, err := s.wallet.compute(ctx, r, tx.UserID)
			if err != nil {
				return err
			}
			if tx.Amount.GreaterThan(st.Available) {
				metrics.TransactionsRejected.Inc()
				return fmt.Errorf("%w: %w", models.ErrValidation, validate.Errs{{
					Field: "amount",
					Msg:   "exceeds available balance of " + st.Available.StringFixed(amountPlaces),
				}})
			}
			tx, err = r.Create(ctx, tx)
			return err
		})
	} else {
		tx, err = s.trx.Create(ctx, tx)
	}
	if err != nil {
		return models.Transaction{}, false, err
	}

	if idemKey != "" {
		if err := s.idem.Set(ctx, idemKey, tx.ID, s.cfg.IdempotencyTTL); err != nil {
			slog.WarnContext(ctx, "idempotency key not recorded", "key", idemKey, "err", err)
		}
	}
	s.wallet.Invalidate(ctx, tx.UserID)
	metrics.TransactionsCreated.WithLabelValues(string(tx.Type), string(tx.Method)).Inc()
	slog.InfoContext(ctx, "transaction created",
		"id", tx.ID, "reference", tx.Reference, "type", tx.Type, "method", tx.Method, "user_id", tx.UserID)

	s.afterCommit(ctx, tx, "created", actor.UserID, map[string]any{
		"type": tx.Type, "method": tx.Method, "amount": tx.Amount.String(),
	}, events.Created(tx, actor.UserID))
	return tx, false, nil
}

// claimKey reserves an idempotency key. found is true when the key already
// maps to a committed transaction, which is then returned.
func (s *TransactionService) claimKey(ctx context.Context, key string) (models.Transaction, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		won, err := s.idem.SetNX(ctx, key, idemPending, s.cfg.IdempotencyTTL)
		if err != nil {
			return models.Transaction{}, false, err
		}
		if won {
			return models.Transaction{}, false, nil
		}
		v, ok, err := s.idem.Get(ctx, key)
		if err != nil {
			return models.Transaction{}, false, err
		}
		if !ok {
			continue // expired or released between the two calls
		}
		if v == idemPending {
			return models.Transaction{}, false, fmt.Errorf("%w: a request with this Idempotency-Key is in progress", models.ErrConflict)
		}
		tx, err := s.trx.GetByID(ctx, v)
		if err != nil {
			return models.Transaction{}, false, err
		}
		return tx, true, nil
	}
	return models.Transaction{}, false, fmt.Errorf("%w: idempotency key contended", models.ErrConflict)
}

// build validates in and assembles the transaction to insert. Every field
// problem is reported at once.
func (s *TransactionService) build(actor lifecycle.Actor, in CreateInput) (models.Transaction, error) {
	var errs validate.Errs

	tx := models.Transaction{
		Reference:   "TXN-" + ulid.Make().String(),
		UserID:      strings.TrimSpace(in.UserID),
		Type:        in.Type,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Status:      models.TxnPending,
	}

	// customers and agents only ever act for themselves
	if actor.IsStaff() {
		if tx.UserID == "" {
			tx.UserID = actor.UserID
		}
		tx.Class = in.Class
		if tx.Class == "" {
			tx.Class = models.ClassForRole(actor.Role)
		}
		errs.Add(validate.OneOf("class", string(tx.Class), tx.Class.Valid()))
	} else {
		if tx.UserID != "" && tx.UserID != actor.UserID {
			return models.Transaction{}, fmt.Errorf("%w: cannot create transactions for another user", models.ErrForbidden)
		}
		tx.UserID = actor.UserID
		tx.Class = models.ClassForRole(actor.Role)
	}

	errs.Add(validate.OneOf("type", string(in.Type), in.Type.Valid()))
	errs.Add(validate.Positive("amount", in.Amount))
	errs.Add(validate.MaxScale("amount", in.Amount, amountPlaces))
	errs.Add(validate.MaxDecimal("amount", in.Amount, models.MaxAmount))
	if in.Type == models.TxnWithdrawal {
		errs.Add(validate.MinDecimal("amount", in.Amount, s.cfg.MinWithdrawal))
	}

	details := s.details(in, &errs)
	if len(errs) > 0 {
		return models.Transaction{}, fmt.Errorf("%w: %w", models.ErrValidation, errs)
	}
	models.Attach(&tx, details, s.platform(details.Method()))

	tx.AmountInString = strings.TrimSpace(in.AmountInString)
	if tx.AmountInString == "" {
		tx.AmountInString = money.InWords(tx.Amount)
	}
	return tx, nil
}

// details turns the flat request into the variant for its payment rail.
func (s *TransactionService) details(in CreateInput, errs *validate.Errs) models.PaymentDetails {
	id := strings.TrimSpace(in.TransactionID)
	method := in.Method

	if in.Type == models.TxnGamePurchase || in.Type == models.TxnWinning {
		if method == "" {
			method = models.MethodCash
		}
		if method != models.MethodCash {
			errs.Add(&validate.ErrField{Field: "method", Msg: "wallet-internal transactions use cash"})
		}
	}
	if !method.Valid() {
		errs.Add(validate.OneOf("method", string(method), false))
		return models.CashDetails{}
	}
	if method == models.MethodCash {
		errs.Add(validate.Empty("transactionId", id, "not used for cash"))
		return models.CashDetails{}
	}

	// customer side of the movement
	phone, name, field := strings.TrimSpace(in.SenderPhone), strings.TrimSpace(in.SenderName), "senderPhone"
	if in.Type == models.TxnDeposit {
		errs.Add(validate.Required("transactionId", id))
	} else {
		phone, name, field = strings.TrimSpace(in.ReceiverPhone), strings.TrimSpace(in.ReceiverName), "receiverPhone"
		errs.Add(validate.Empty("transactionId", id, "assigned by the processor on completion"))
	}

	if method == models.MethodCBE {
		errs.Add(validate.BankAccount(field, phone))
		return models.CBEDetails{TransactionID: id, Account: phone, Name: name}
	}
	errs.Add(validate.Phone(field, phone))
	return models.TelebirrDetails{TransactionID: id, Phone: phone, Name: name}
}

func (s *TransactionService) platform(m models.Method) models.Party {
	switch m {
	case models.MethodTelebirr:
		return models.Party{Phone: s.cfg.PlatformTelebirrPhone, Name: s.cfg.PlatformAccountName}
	case models.MethodCBE:
		return models.Party{Phone: s.cfg.PlatformCBEAccount, Name: s.cfg.PlatformAccountName}
	}
	return models.Party{}
}

// ---------------- lifecycle ----------------

func (s *TransactionService) Approve(ctx context.Context, actor lifecycle.Actor, id string) (models.Transaction, error) {
	return s.transition(ctx, actor, id, lifecycle.Approve, lifecycle.Input{})
}

func (s *TransactionService) Reject(ctx context.Context, actor lifecycle.Actor, id, reason string) (models.Transaction, error) {
	return s.transition(ctx, actor, id, lifecycle.Reject, lifecycle.Input{Reason: reason})
}

// Complete records that money has moved. processorID is the telebirr/cbe
// receipt for outgoing transfers.
func (s *TransactionService) Complete(ctx context.Context, actor lifecycle.Actor, id, processorID string) (models.Transaction, error) {
	return s.transition(ctx, actor, id, lifecycle.Complete, lifecycle.Input{TransactionID: processorID})
}

// Confirm is the owner acknowledging receipt of a withdrawal.
func (s *TransactionService) Confirm(ctx context.Context, actor lifecycle.Actor, id string) (models.Transaction, error) {
	return s.transition(ctx, actor, id, lifecycle.Confirm, lifecycle.Input{})
}

func (s *TransactionService) transition(ctx context.Context, actor lifecycle.Actor, id string, a lifecycle.Action, in lifecycle.Input) (models.Transaction, error) {
	tx, err := s.apply(ctx, actor, id, a, in)
	metrics.Transitions.WithLabelValues(string(a), resultLabel(err)).Inc()
	return tx, err
}

func (s *TransactionService) apply(ctx context.Context, actor lifecycle.Actor, id string, a lifecycle.Action, in lifecycle.Input) (models.Transaction, error) {
	cur, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	ch, err := lifecycle.Plan(cur, a, actor, in, s.now())
	if err != nil {
		return models.Transaction{}, err
	}
	tx, err := s.trx.Transition(ctx, id, ch)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.Transaction{}, fmt.Errorf("%w: transaction %s changed concurrently, reload and retry", models.ErrConflict, id)
		}
		return models.Transaction{}, err
	}

	s.wallet.Invalidate(ctx, tx.UserID)
	slog.InfoContext(ctx, "transaction status changed",
		"id", tx.ID, "from", ch.From, "to", ch.To, "actor", actor.UserID)

	details := map[string]any{"from": ch.From, "to": ch.To}
	if ch.Reason != "" {
		details["reason"] = ch.Reason
	}
	if ch.TransactionID != "" {
		details["transactionId"] = ch.TransactionID
	}
	s.afterCommit(ctx, tx, string(a), actor.UserID, details, events.Transitioned(tx, ch))
	return tx, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	}
	return "error"
}

// afterCommit queues the side effects of a committed write. None of them
// can undo the write; failures are logged.
func (s *TransactionService) afterCommit(ctx context.Context, tx models.Transaction, action, actorID string, details map[string]any, ev events.Event) {
	base := context.WithoutCancel(ctx)
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(base, sideEffectTTL)
		defer cancel()
		entityID := tx.ID
		if err := s.log.Create(ctx, models.AuditLog{
			EntityType: "transaction",
			EntityID:   &entityID,
			Action:     action,
			ActorID:    actorID,
			Details:    details,
		}); err != nil {
			slog.ErrorContext(ctx, "audit log write failed", "transaction_id", tx.ID, "action", action, "err", err)
		}
		if err := s.pub.Publish(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "event publish failed", "transaction_id", tx.ID, "kind", ev.Kind, "err", err)
		}
		s.hub.Notify(tx.UserID, notify.Message{Event: ev.Kind, Transaction: tx})
	})
}

// ---------------- queries ----------------

func (s *TransactionService) Get(ctx context.Context, actor lifecycle.Actor, id string) (models.Transaction, error) {
	tx, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	return visible(actor, tx)
}

func (s *TransactionService) GetByReference(ctx context.Context, actor lifecycle.Actor, ref string) (models.Transaction, error) {
	tx, err := s.trx.GetByReference(ctx, strings.TrimSpace(ref))
	if err != nil {
		return models.Transaction{}, err
	}
	return visible(actor, tx)
}

func visible(actor lifecycle.Actor, tx models.Transaction) (models.Transaction, error) {
	if !lifecycle.CanView(actor, tx) {
		return models.Transaction{}, fmt.Errorf("%w: not your transaction", models.ErrForbidden)
	}
	return tx, nil
}

// History returns the audit entries of one transaction, oldest first.
func (s *TransactionService) History(ctx context.Context, actor lifecycle.Actor, id string) ([]models.AuditLog, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.log.ListByEntity(ctx, "transaction", id)
}

// ListQuery is the raw listing request. Dates are calendar days (YYYY-MM-DD)
// in the service time zone, both ends inclusive.
type ListQuery struct {
	UserID    string
	Type      string
	Status    string
	Method    string
	Class     string
	Search    string
	StartDate string
	EndDate   string
	SortBy    string
	Order     string
	Page      int
	Limit     int
	Cursor    string
}

const dayLayout = "2006-01-02"

func (s *TransactionService) filter(q ListQuery) (models.TransactionFilter, error) {
	var errs validate.Errs
	f := models.TransactionFilter{
		UserID: strings.TrimSpace(q.UserID),
		Type:   models.TransactionType(q.Type),
		Status: models.TransactionStatus(q.Status),
		Method: models.Method(q.Method),
		Class:  models.TransactionClass(q.Class),
		Search: strings.TrimSpace(q.Search),
		SortBy: models.SortField(q.SortBy),
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if q.Type != "" {
		errs.Add(validate.OneOf("type", q.Type, f.Type.Valid()))
	}
	if q.Status != "" {
		errs.Add(validate.OneOf("status", q.Status, f.Status.Valid()))
	}
	if q.Method != "" {
		errs.Add(validate.OneOf("method", q.Method, f.Method.Valid()))
	}
	if q.Class != "" {
		errs.Add(validate.OneOf("class", q.Class, f.Class.Valid()))
	}
	if q.SortBy != "" {
		errs.Add(validate.OneOf("sortBy", q.SortBy, f.SortBy.Valid()))
	}
	errs.Add(validate.MaxInt("page", int64(q.Page), models.MaxPage))
	switch strings.ToLower(q.Order) {
	case "", "desc":
	case "asc":
		f.Asc = true
	default:
		errs.Add(validate.OneOf("order", q.Order, false))
	}

	if q.StartDate != "" {
		d, err := time.ParseInLocation(dayLayout, q.StartDate, s.cfg.Location)
		if err != nil {
			errs.Add(&validate.ErrField{Field: "startDate", Msg: "expected YYYY-MM-DD"})
		} else {
			f.From = &d
		}
	}
	if q.EndDate != "" {
		d, err := time.ParseInLocation(dayLayout, q.EndDate, s.cfg.Location)
		if err != nil {
			errs.Add(&validate.ErrField{Field: "endDate", Msg: "expected YYYY-MM-DD"})
		} else {
			next := d.AddDate(0, 0, 1)
			f.To = &next
		}
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		errs.Add(&validate.ErrField{Field: "endDate", Msg: "must not be before startDate"})
	}
	if len(errs) > 0 {
		return models.TransactionFilter{}, fmt.Errorf("%w: %w", models.ErrValidation, errs)
	}
	if q.Cursor != "" {
		c, err := repo.DecodeCursor(q.Cursor)
		if err != nil {
			return models.TransactionFilter{}, err
		}
		f.Cursor = c
	}
	f.Normalize()
	return f, nil
}

// List pages through transactions. Non-staff callers only ever see their own.
func (s *TransactionService) List(ctx context.Context, actor lifecycle.Actor, q ListQuery) (models.TransactionPage, error) {
	if actor.UserID == "" {
		return models.TransactionPage{}, models.ErrUnauthorized
	}
	if !actor.IsStaff() {
		q.UserID = actor.UserID
	}
	f, err := s.filter(q)
	if err != nil {
		return models.TransactionPage{}, err
	}
	return s.trx.List(ctx, f)
}

// ListByUser is List scoped to one owner.
func (s *TransactionService) ListByUser(ctx context.Context, actor lifecycle.Actor, userID string, page, limit int) (models.TransactionPage, error) {
	if userID != actor.UserID && !actor.IsStaff() {
		return models.TransactionPage{}, fmt.Errorf("%w: cannot list another user's transactions", models.ErrForbidden)
	}
	return s.List(ctx, actor, ListQuery{UserID: userID, Page: page, Limit: limit})
}
