// Package events publishes transaction lifecycle events for downstream
// consumers. Publishing is best effort and never blocks a ledger write.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

const (
	KindCreated    = "transaction.created"
	KindTransition = "transaction.status_changed"
)

type Event struct {
	Kind          string                   `json:"kind"`
	TransactionID string                   `json:"transactionId"`
	Reference     string                   `json:"reference"`
	UserID        string                   `json:"userId"`
	Type          models.TransactionType   `json:"type"`
	Method        models.Method            `json:"method"`
	Amount        decimal.Decimal          `json:"amount"`
	From          models.TransactionStatus `json:"from,omitempty"`
	Status        models.TransactionStatus `json:"status"`
	Actor         string                   `json:"actor,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	At            time.Time                `json:"at"`
}

// Created builds the event for a freshly recorded transaction.
func Created(tx models.Transaction, actor string) Event {
	return Event{
		Kind:          KindCreated,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		UserID:        tx.UserID,
		Type:          tx.Type,
		Method:        tx.Method,
		Amount:        tx.Amount,
		Status:        tx.Status,
		Actor:         actor,
		At:            tx.CreatedAt,
	}
}

// Transitioned builds the event for a committed status change.
func Transitioned(tx models.Transaction, ch models.StatusChange) Event {
	return Event{
		Kind:          KindTransition,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		UserID:        tx.UserID,
		Type:          tx.Type,
		Method:        tx.Method,
		Amount:        tx.Amount,
		From:          ch.From,
		Status:        ch.To,
		Actor:         ch.Actor,
		Reason:        ch.Reason,
		At:            ch.At,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
