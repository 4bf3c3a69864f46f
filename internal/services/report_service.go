package services

import (
	"context"
	"fmt"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/reports"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
	"github.com/baharkarakas/wallet-ledger/internal/validate"
)

type ReportService struct {
	trx repo.Transactions
	loc *time.Location
	now func() time.Time
}

func NewReportService(t repo.Transactions, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{trx: t, loc: loc, now: time.Now}
}

type Summary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	reports.Breakdown
}

type WeeklyReport struct {
	Month string               `json:"month"`
	Weeks []reports.WeekBucket `json:"weeks"`
}

type MonthlyReport struct {
	Months []reports.MonthBucket `json:"months"`
}

func staffOnly(actor lifecycle.Actor) error {
	if actor.UserID == "" {
		return models.ErrUnauthorized
	}
	if !actor.IsStaff() {
		return fmt.Errorf("%w: reports are staff only", models.ErrForbidden)
	}
	return nil
}

// Month resolves an optional (year, month) pair, defaulting to the current
// month in the report time zone.
func (s *ReportService) Month(year, month int) (int, time.Month, error) {
	now := s.now().In(s.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	var errs validate.Errs
	if year < 2000 || year > 9999 {
		errs.Add(&validate.ErrField{Field: "year", Msg: "out of range"})
	}
	if month < 1 || month > 12 {
		errs.Add(&validate.ErrField{Field: "month", Msg: "must be 1-12"})
	}
	if len(errs) > 0 {
		return 0, 0, fmt.Errorf("%w: %w", models.ErrValidation, errs)
	}
	return year, time.Month(month), nil
}

// Summary breaks down transactions created in [from, to) by type, status,
// method and class. Zero bounds default to the current month.
func (s *ReportService) Summary(ctx context.Context, actor lifecycle.Actor, from, to time.Time) (Summary, error) {
	if err := staffOnly(actor); err != nil {
		return Summary{}, err
	}
	if from.IsZero() || to.IsZero() {
		now := s.now().In(s.loc)
		mFrom, mTo := reports.MonthRange(now.Year(), now.Month(), s.loc)
		if from.IsZero() {
			from = mFrom
		}
		if to.IsZero() {
			to = mTo
		}
	}
	if !from.Before(to) {
		return Summary{}, fmt.Errorf("%w: endDate must not be before startDate", models.ErrValidation)
	}
	txs, err := s.trx.Scan(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	return Summary{From: from, To: to, Breakdown: reports.BuildBreakdown(txs)}, nil
}

func (s *ReportService) Weekly(ctx context.Context, actor lifecycle.Actor, year int, month time.Month) (WeeklyReport, error) {
	if err := staffOnly(actor); err != nil {
		return WeeklyReport{}, err
	}
	from, to := reports.MonthRange(year, month, s.loc)
	txs, err := s.trx.Scan(ctx, from, to)
	if err != nil {
		return WeeklyReport{}, err
	}
	return WeeklyReport{
		Month: fmt.Sprintf("%04d-%02d", year, int(month)),
		Weeks: reports.Weekly(year, month, s.loc, txs),
	}, nil
}

func (s *ReportService) Monthly(ctx context.Context, actor lifecycle.Actor, year int, month time.Month) (MonthlyReport, error) {
	if err := staffOnly(actor); err != nil {
		return MonthlyReport{}, err
	}
	from, to := reports.MonthlyWindow(year, month, s.loc)
	txs, err := s.trx.Scan(ctx, from, to)
	if err != nil {
		return MonthlyReport{}, err
	}
	return MonthlyReport{Months: reports.Monthly(year, month, s.loc, txs)}, nil
}
