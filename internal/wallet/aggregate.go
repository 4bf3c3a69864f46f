// Package wallet derives a user's balance from their transactions.
package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

// Summarize folds per-(type,status) sums into wallet figures.
//
//	wallet    = deposits(completed) + winnings(completed) - withdrawals(confirmed) - purchases(completed)
//	available = wallet - withdrawals(pending, approved, completed) - purchases(pending, approved)
//
// Pending figures are informational and never enter wallet.
func Summarize(userID string, sums []models.StatusSum) models.WalletStats {
	zero := decimal.Zero
	st := models.WalletStats{
		UserID:               userID,
		Wallet:               zero,
		TotalDeposit:         zero,
		TotalWithdrawal:      zero,
		TotalWinning:         zero,
		TotalGamePurchase:    zero,
		PendingDeposits:      zero,
		PendingWithdrawals:   zero,
		AwaitingConfirmation: zero,
		Available:            zero,
		RecentTransactions:   []models.Transaction{},
	}
	pendingPurchases := zero

	for _, s := range sums {
		inFlight := s.Status == models.TxnPending || s.Status == models.TxnApproved
		switch s.Type {
		case models.TxnDeposit:
			switch {
			case s.Status == models.TxnCompleted:
				st.TotalDeposit = st.TotalDeposit.Add(s.Total)
			case inFlight:
				st.PendingDeposits = st.PendingDeposits.Add(s.Total)
			}
		case models.TxnWithdrawal:
			switch {
			case s.Status == models.TxnConfirmed:
				st.TotalWithdrawal = st.TotalWithdrawal.Add(s.Total)
			case s.Status == models.TxnCompleted:
				st.AwaitingConfirmation = st.AwaitingConfirmation.Add(s.Total)
			case inFlight:
				st.PendingWithdrawals = st.PendingWithdrawals.Add(s.Total)
			}
		case models.TxnWinning:
			if s.Status == models.TxnCompleted {
				st.TotalWinning = st.TotalWinning.Add(s.Total)
			}
		case models.TxnGamePurchase:
			switch {
			case s.Status == models.TxnCompleted:
				st.TotalGamePurchase = st.TotalGamePurchase.Add(s.Total)
			case inFlight:
				pendingPurchases = pendingPurchases.Add(s.Total)
			}
		}
	}

	st.Wallet = st.TotalDeposit.Add(st.TotalWinning).Sub(st.TotalWithdrawal).Sub(st.TotalGamePurchase)
	st.Available = st.Wallet.Sub(st.PendingWithdrawals).Sub(st.AwaitingConfirmation).Sub(pendingPurchases)
	return st
}

// SumTransactions groups raw transactions the way the store's SumsByUser does.
func SumTransactions(txs []models.Transaction) []models.StatusSum {
	type key struct {
		t models.TransactionType
		s models.TransactionStatus
	}
	idx := map[key]int{}
	var out []models.StatusSum
	for _, tx := range txs {
		k := key{tx.Type, tx.Status}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, models.StatusSum{Type: tx.Type, Status: tx.Status, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Count++
	}
	return out
}
