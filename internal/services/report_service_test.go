package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

func TestReportService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.repos.Transactions, time.UTC)
	reports.now = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }

	// 1 June 2026 is a Monday; the 9th falls in the second week
	for _, at := range []time.Time{
		time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 9, 10, 0, 0, 0, time.UTC),
	} {
		at := at
		f.store.SetClock(func() time.Time { return at })
		f.fund(t, f.customer, 400)
	}
	f.store.SetClock(func() time.Time { return time.Date(2026, 6, 9, 11, 0, 0, 0, time.UTC) })
	_, _, err := f.txs.Create(ctx, f.agent, cashDeposit(50))
	require.NoError(t, err)

	_, err = reports.Weekly(ctx, f.customer, 2026, time.June)
	assert.ErrorIs(t, err, models.ErrForbidden)

	year, month, err := reports.Month(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, time.June, month)
	_, _, err = reports.Month(2026, 13)
	assert.ErrorIs(t, err, models.ErrValidation)

	weekly, err := reports.Weekly(ctx, f.approver, year, month)
	require.NoError(t, err)
	assert.Equal(t, "2026-06", weekly.Month)
	require.Len(t, weekly.Weeks, 5)
	assert.True(t, weekly.Weeks[0].Deposits.Equal(decimal.NewFromInt(400)))
	assert.True(t, weekly.Weeks[1].Net.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, int64(1), weekly.Weeks[1].Count, "pending deposits are not settled")

	monthly, err := reports.Monthly(ctx, f.admin, year, month)
	require.NoError(t, err)
	require.Len(t, monthly.Months, 6)
	last := monthly.Months[5]
	assert.Equal(t, "2026-06", last.Month)
	for _, c := range last.Classes {
		switch c.Class {
		case models.ClassUser:
			assert.Equal(t, int64(2), c.Count)
		case models.ClassAgent:
			assert.Equal(t, int64(1), c.Count)
			assert.True(t, c.Total.Equal(decimal.NewFromInt(50)))
		}
	}

	sum, err := reports.Summary(ctx, f.operator, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Total)

	_, err = reports.Summary(ctx, f.operator, sum.To, sum.From)
	assert.ErrorIs(t, err, models.ErrValidation)
}
