// Package reports groups transactions into the summaries the admin dashboard renders.
// All functions are pure over a slice of transactions; fetching is the caller's job.
package reports

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

type Count struct {
	Key   string          `json:"key"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type Breakdown struct {
	Total    int64   `json:"total"`
	ByType   []Count `json:"byType"`
	ByStatus []Count `json:"byStatus"`
	ByMethod []Count `json:"byMethod"`
	ByClass  []Count `json:"byClass"`
}

var (
	typeKeys   = []string{string(models.TxnDeposit), string(models.TxnWithdrawal), string(models.TxnGamePurchase), string(models.TxnWinning)}
	statusKeys = []string{string(models.TxnPending), string(models.TxnApproved), string(models.TxnCompleted), string(models.TxnConfirmed), string(models.TxnFailed)}
	methodKeys = []string{string(models.MethodTelebirr), string(models.MethodCBE), string(models.MethodCash)}
	classKeys  = []string{string(models.ClassUser), string(models.ClassAgent), string(models.ClassAdmin)}
)

// group counts txs under every key, reporting zero rows for keys with no data.
func group(keys []string, txs []models.Transaction, keyOf func(models.Transaction) string) []Count {
	out := make([]Count, len(keys))
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		out[i] = Count{Key: k, Total: decimal.Zero}
		idx[k] = i
	}
	for _, tx := range txs {
		i, ok := idx[keyOf(tx)]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	return out
}

// BuildBreakdown counts txs by type, status, method and class.
func BuildBreakdown(txs []models.Transaction) Breakdown {
	return Breakdown{
		Total:    int64(len(txs)),
		ByType:   group(typeKeys, txs, func(t models.Transaction) string { return string(t.Type) }),
		ByStatus: group(statusKeys, txs, func(t models.Transaction) string { return string(t.Status) }),
		ByMethod: group(methodKeys, txs, func(t models.Transaction) string { return string(t.Method) }),
		ByClass:  group(classKeys, txs, func(t models.Transaction) string { return string(t.Class) }),
	}
}

type WeekBucket struct {
	Week        int             `json:"week"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"` // last second of the bucket
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Net         decimal.Decimal `json:"net"`
	Count       int64           `json:"count"`

	until time.Time
}

// MonthRange returns [first instant of month, first instant of next month) in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
}

// Weeks splits a month into Monday-aligned weeks. The first and last weeks
// are clipped to the month and may be shorter than seven days.
func Weeks(year int, month time.Month, loc *time.Location) []WeekBucket {
	cur, end := MonthRange(year, month, loc)
	var out []WeekBucket
	for cur.Before(end) {
		fromMonday := (int(cur.Weekday()) + 6) % 7
		next := time.Date(cur.Year(), cur.Month(), cur.Day()+7-fromMonday, 0, 0, 0, 0, loc)
		if next.After(end) {
			next = end
		}
		out = append(out, WeekBucket{
			Week:        len(out) + 1,
			Start:       cur,
			End:         next.Add(-time.Second),
			Deposits:    decimal.Zero,
			Withdrawals: decimal.Zero,
			Net:         decimal.Zero,
			until:       next,
		})
		cur = next
	}
	return out
}

// settled reports whether tx counts as money that actually moved: completed
// deposits and confirmed withdrawals.
func settled(tx models.Transaction) bool {
	switch tx.Type {
	case models.TxnDeposit:
		return tx.Status == models.TxnCompleted
	case models.TxnWithdrawal:
		return tx.Status == models.TxnConfirmed
	}
	return false
}

// Weekly buckets settled deposits and withdrawals of the month by CreatedAt.
func Weekly(year int, month time.Month, loc *time.Location, txs []models.Transaction) []WeekBucket {
	weeks := Weeks(year, month, loc)
	for _, tx := range txs {
		if !settled(tx) {
			continue
		}
		at := tx.CreatedAt.In(loc)
		for i := range weeks {
			w := &weeks[i]
			if at.Before(w.Start) || !at.Before(w.until) {
				continue
			}
			w.Count++
			if tx.Type == models.TxnDeposit {
				w.Deposits = w.Deposits.Add(tx.Amount)
			} else {
				w.Withdrawals = w.Withdrawals.Add(tx.Amount)
			}
			break
		}
	}
	for i := range weeks {
		weeks[i].Net = weeks[i].Deposits.Sub(weeks[i].Withdrawals)
	}
	return weeks
}

type ClassFigure struct {
	Class models.TransactionClass `json:"class"`
	Count int64                   `json:"count"`
	Total decimal.Decimal         `json:"total"`
}

type MonthBucket struct {
	Month   string        `json:"month"` // YYYY-MM
	Start   time.Time     `json:"start"`
	Classes []ClassFigure `json:"classes"`

	until time.Time
}

// TrailingMonths is the number of months covered by Monthly, current month included.
const TrailingMonths = 6

// MonthlyWindow returns the range covered by Monthly for the given month.
func MonthlyWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start, _ := MonthRange(year, month-(TrailingMonths-1), loc)
	_, end := MonthRange(year, month, loc)
	return start, end
}

// Monthly counts and sums non-failed transactions per class for the six
// months ending with the given one, oldest first.
func Monthly(year int, month time.Month, loc *time.Location, txs []models.Transaction) []MonthBucket {
	out := make([]MonthBucket, 0, TrailingMonths)
	for i := TrailingMonths - 1; i >= 0; i-- {
		start, end := MonthRange(year, month-time.Month(i), loc)
		b := MonthBucket{
			Month: fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())),
			Start: start,
			until: end,
		}
		for _, c := range classKeys {
			b.Classes = append(b.Classes, ClassFigure{Class: models.TransactionClass(c), Total: decimal.Zero})
		}
		out = append(out, b)
	}
	for _, tx := range txs {
		if tx.Status == models.TxnFailed {
			continue
		}
		at := tx.CreatedAt.In(loc)
		for i := range out {
			b := &out[i]
			if at.Before(b.Start) || !at.Before(b.until) {
				continue
			}
			for j := range b.Classes {
				if b.Classes[j].Class == tx.Class {
					b.Classes[j].Count++
					b.Classes[j].Total = b.Classes[j].Total.Add(tx.Amount)
				}
			}
			break
		}
	}
	return out
}
