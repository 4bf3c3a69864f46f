package events

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

func TestTransitioned_CarriesChange(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tx := models.Transaction{
		ID: "t1", Reference: "TXN-1", UserID: "u1",
		Type: models.TxnWithdrawal, Method: models.MethodCBE,
		Amount: decimal.NewFromInt(200), Status: models.TxnPending,
	}
	ch := models.StatusChange{From: models.TxnPending, To: models.TxnFailed, Actor: "a1", At: at, Reason: "duplicate"}

	e := Transitioned(ch.Apply(tx), ch)
	assert.Equal(t, KindTransition, e.Kind)
	assert.Equal(t, models.TxnPending, e.From)
	assert.Equal(t, models.TxnFailed, e.Status)
	assert.Equal(t, "duplicate", e.Reason)
	assert.Equal(t, "a1", e.Actor)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(200)))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	tx := models.Transaction{ID: "t1", Status: models.TxnPending}
	require.NoError(t, r.Publish(context.Background(), Created(tx, "u1")))
	require.Len(t, r.Events(), 1)
	assert.Equal(t, KindCreated, r.Events()[0].Kind)
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
