// Package lifecycle holds the transaction status machine. The transition
// table is pure; who may take an action is decided separately in policy.go.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/validate"
)

type Action string

const (
	Approve  Action = "approve"
	Reject   Action = "reject"
	Complete Action = "complete"
	Confirm  Action = "confirm"
)

type edge struct {
	from   models.TransactionStatus
	action Action
}

var table = map[edge]models.TransactionStatus{
	{models.TxnPending, Approve}:    models.TxnApproved,
	{models.TxnPending, Reject}:     models.TxnFailed,
	{models.TxnApproved, Complete}:  models.TxnCompleted,
	{models.TxnCompleted, Confirm}: models.TxnConfirmed,
}

// Next returns the status reached by taking a from `from` on a transaction of type t.
func Next(t models.TransactionType, from models.TransactionStatus, a Action) (models.TransactionStatus, error) {
	to, ok := table[edge{from, a}]
	if !ok || (a == Confirm && t != models.TxnWithdrawal) {
		return "", fmt.Errorf("%w: cannot %s a %s %s", models.ErrInvalidTransition, a, from, t)
	}
	return to, nil
}

// Terminal reports whether no further action can move a transaction of type t out of s.
func Terminal(t models.TransactionType, s models.TransactionStatus) bool {
	switch s {
	case models.TxnFailed, models.TxnConfirmed:
		return true
	case models.TxnCompleted:
		return t != models.TxnWithdrawal
	}
	return false
}

// Input carries the action-specific payload.
type Input struct {
	Reason        string // reject
	TransactionID string // complete: id issued by the payment processor
}

// Plan checks that actor may take a on tx and returns the change to persist.
// Authorization is checked before the transition.
func Plan(tx models.Transaction, a Action, actor Actor, in Input, now time.Time) (models.StatusChange, error) {
	if err := Authorize(actor, a, tx); err != nil {
		return models.StatusChange{}, err
	}
	if Terminal(tx.Type, tx.Status) {
		return models.StatusChange{}, fmt.Errorf("%w: %s %s is final", models.ErrInvalidTransition, tx.Status, tx.Type)
	}
	to, err := Next(tx.Type, tx.Status, a)
	if err != nil {
		return models.StatusChange{}, err
	}
	ch := models.StatusChange{
		From:  tx.Status,
		To:    to,
		Actor: actor.UserID,
		At:    now.UTC(),
	}

	var errs validate.Errs
	switch a {
	case Reject:
		ch.Reason = strings.TrimSpace(in.Reason)
		errs.Add(validate.Required("reason", ch.Reason))
	case Complete:
		id := strings.TrimSpace(in.TransactionID)
		switch {
		case tx.Method == models.MethodCash:
			errs.Add(validate.Empty("transactionId", id, "not used for cash"))
		case tx.TransactionID == "":
			// withdrawals and other outgoing movements get their processor id here
			errs.Add(validate.Required("transactionId", id))
			ch.TransactionID = id
		case id != "" && id != tx.TransactionID:
			errs.Add(&validate.ErrField{Field: "transactionId", Msg: "does not match the recorded id"})
		}
	}
	if len(errs) > 0 {
		return models.StatusChange{}, fmt.Errorf("%w: %w", models.ErrValidation, errs)
	}
	return ch, nil
}
