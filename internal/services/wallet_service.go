package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/cache"
	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
	"github.com/baharkarakas/wallet-ledger/internal/metrics"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
	"github.com/baharkarakas/wallet-ledger/internal/wallet"
)

const recentTransactions = 5

// WalletService derives balances on read. The cache only short-circuits
// repeated reads and is dropped on every write for the user.
type WalletService struct {
	trx   repo.Transactions
	users repo.Users
	cache cache.Store
	ttl   time.Duration
}

func NewWalletService(t repo.Transactions, u repo.Users, c cache.Store, ttl time.Duration) *WalletService {
	return &WalletService{trx: t, users: u, cache: c, ttl: ttl}
}

func statsKey(userID string) string { return "stats:" + userID }

// Stats returns the wallet of userID, or of the actor when userID is empty.
// Only staff may read another user's wallet.
func (s *WalletService) Stats(ctx context.Context, actor lifecycle.Actor, userID string) (models.WalletStats, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.IsStaff() {
		return models.WalletStats{}, fmt.Errorf("%w: cannot view another user's wallet", models.ErrForbidden)
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return models.WalletStats{}, err
	}
	if !ok {
		return models.WalletStats{}, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}

	if st, hit := s.cached(ctx, userID); hit {
		metrics.StatsCache.WithLabelValues("hit").Inc()
		return st, nil
	}
	metrics.StatsCache.WithLabelValues("miss").Inc()

	st, err := s.compute(ctx, s.trx, userID)
	if err != nil {
		return models.WalletStats{}, err
	}
	recent, err := s.trx.ListByUser(ctx, userID, recentTransactions, 0)
	if err != nil {
		return models.WalletStats{}, err
	}
	if recent != nil {
		st.RecentTransactions = recent
	}
	if b, err := json.Marshal(st); err == nil {
		if err := s.cache.Set(ctx, statsKey(userID), string(b), s.ttl); err != nil {
			slog.WarnContext(ctx, "wallet stats cache write failed", "user_id", userID, "err", err)
		}
	}
	return st, nil
}

func (s *WalletService) cached(ctx context.Context, userID string) (models.WalletStats, bool) {
	v, ok, err := s.cache.Get(ctx, statsKey(userID))
	if err != nil {
		slog.WarnContext(ctx, "wallet stats cache read failed", "user_id", userID, "err", err)
		return models.WalletStats{}, false
	}
	if !ok {
		return models.WalletStats{}, false
	}
	var st models.WalletStats
	if err := json.Unmarshal([]byte(v), &st); err != nil {
		return models.WalletStats{}, false
	}
	return st, true
}

// compute folds the user's grouped sums; r may be a lock-scoped store.
func (s *WalletService) compute(ctx context.Context, r repo.Transactions, userID string) (models.WalletStats, error) {
	sums, err := r.SumsByUser(ctx, userID)
	if err != nil {
		return models.WalletStats{}, err
	}
	return wallet.Summarize(userID, sums), nil
}

// Invalidate drops the cached stats of userID. A failed delete is logged;
// the entry then ages out with its TTL.
func (s *WalletService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, statsKey(userID)); err != nil {
		slog.WarnContext(ctx, "wallet stats cache invalidation failed", "user_id", userID, "err", err)
	}
}
