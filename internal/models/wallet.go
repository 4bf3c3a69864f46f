package models

import "github.com/shopspring/decimal"

// StatusSum is the total amount of a user's transactions of one type in one status.
type StatusSum struct {
	Type   TransactionType
	Status TransactionStatus
	Total  decimal.Decimal
	Count  int64
}

// WalletStats is derived from the transaction set on every read; nothing here is stored.
type WalletStats struct {
	UserID               string          `json:"userId"`
	Wallet               decimal.Decimal `json:"wallet"`
	TotalDeposit         decimal.Decimal `json:"totalDeposit"`
	TotalWithdrawal      decimal.Decimal `json:"totalWithdrawal"`
	TotalWinning         decimal.Decimal `json:"totalWinning"`
	TotalGamePurchase    decimal.Decimal `json:"totalGamePurchase"`
	PendingDeposits      decimal.Decimal `json:"pendingDeposits"`
	PendingWithdrawals   decimal.Decimal `json:"pendingWithdrawals"`
	AwaitingConfirmation decimal.Decimal `json:"awaitingConfirmation"`
	Available            decimal.Decimal `json:"available"`
	RecentTransactions   []Transaction   `json:"recentTransactions"`
}
