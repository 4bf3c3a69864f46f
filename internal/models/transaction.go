package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts travel as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxAmount is the largest value numeric(18,2) holds.
var MaxAmount = decimal.RequireFromString("9999999999999999.99")

type TransactionType string

const (
	TxnDeposit      TransactionType = "deposit"
	TxnWithdrawal   TransactionType = "withdrawal"
	TxnGamePurchase TransactionType = "game_purchase"
	TxnWinning      TransactionType = "winning"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxnDeposit, TxnWithdrawal, TxnGamePurchase, TxnWinning:
		return true
	}
	return false
}

// IsDebit reports whether the type takes money out of the wallet.
func (t TransactionType) IsDebit() bool { return t == TxnWithdrawal || t == TxnGamePurchase }

// TransactionClass is the category of actor that initiated a transaction.
// It is recorded for reporting and never used for authorization.
type TransactionClass string

const (
	ClassUser  TransactionClass = "user"
	ClassAgent TransactionClass = "agent"
	ClassAdmin TransactionClass = "admin"
)

func (c TransactionClass) Valid() bool {
	return c == ClassUser || c == ClassAgent || c == ClassAdmin
}

type Method string

const (
	MethodTelebirr Method = "telebirr"
	MethodCBE      Method = "cbe"
	MethodCash     Method = "cash"
)

func (m Method) Valid() bool { return m == MethodTelebirr || m == MethodCBE || m == MethodCash }

// External reports whether the rail moves money through a third party
// that issues its own transaction id.
func (m Method) External() bool { return m == MethodTelebirr || m == MethodCBE }

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnApproved  TransactionStatus = "approved"
	TxnCompleted TransactionStatus = "completed"
	TxnConfirmed TransactionStatus = "confirmed"
	TxnFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TxnPending, TxnApproved, TxnCompleted, TxnConfirmed, TxnFailed:
		return true
	}
	return false
}

// Transaction is a single recorded money movement. Rows are never deleted.
type Transaction struct {
	ID             string            `json:"id"`
	Reference      string            `json:"reference"`
	UserID         string            `json:"userId"`
	Type           TransactionType   `json:"type"`
	Class          TransactionClass  `json:"class"`
	Amount         decimal.Decimal   `json:"amount"`
	AmountInString string            `json:"amountInString"`
	Method         Method            `json:"method"`
	TransactionID  string            `json:"transactionId,omitempty"`
	SenderPhone    string            `json:"senderPhone,omitempty"`
	SenderName     string            `json:"senderName,omitempty"`
	ReceiverPhone  string            `json:"receiverPhone,omitempty"`
	ReceiverName   string            `json:"receiverName,omitempty"`
	Description    string            `json:"description"`
	Status         TransactionStatus `json:"status"`
	Reason         *string           `json:"reason,omitempty"`

	ApprovedBy  *string    `json:"approvedBy"`
	ApprovedAt  *time.Time `json:"approvedAt"`
	CompletedBy *string    `json:"completedBy"`
	CompletedAt *time.Time `json:"completedAt"`
	ConfirmedBy *string    `json:"confirmedBy"`
	ConfirmedAt *time.Time `json:"confirmedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusChange is a forward move of one transaction, stamped with exactly
// the audit fields that belong to the target status.
type StatusChange struct {
	From          TransactionStatus
	To            TransactionStatus
	Actor         string
	At            time.Time
	Reason        string
	TransactionID string // processor id assigned on completion, optional
}

// Apply returns a copy of tx with the change applied. Callers are expected
// to have checked the transition already.
func (c StatusChange) Apply(tx Transaction) Transaction {
	at := c.At
	actor := c.Actor
	switch c.To {
	case TxnApproved:
		tx.ApprovedBy, tx.ApprovedAt = &actor, &at
	case TxnCompleted:
		tx.CompletedBy, tx.CompletedAt = &actor, &at
		if c.TransactionID != "" {
			tx.TransactionID = c.TransactionID
		}
	case TxnConfirmed:
		tx.ConfirmedBy, tx.ConfirmedAt = &actor, &at
	case TxnFailed:
		reason := c.Reason
		tx.Reason = &reason
	}
	tx.Status = c.To
	tx.UpdatedAt = at
	return tx
}
