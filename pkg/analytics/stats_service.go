package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/expensetracker/expenses/internal/utils"
	"github.com/expensetracker/expenses/pkg/record"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsService interface {
	GetExpenseStats(ctx context.Context) (ExpenseStats, error)
	GetUserTotals(ctx context.Context) (UserTotals, error)
	GetBestWorst(ctx context.Context) (BestWorst, error)
	ExportRecords(ctx context.Context, filters record.SearchFilters) ([]record.Record, error)
}

type StatsServiceImpl struct {
	records record.Service
	clock   utils.Clock
}

func NewStatsServiceImpl(records record.Service, clock utils.Clock) *StatsServiceImpl {
	return &StatsServiceImpl{records: records, clock: clock}
}

func (s *StatsServiceImpl) GetExpenseStats(ctx context.Context) (ExpenseStats, error) {
	summary, err := s.records.Summary(ctx)
	if err != nil {
		return ExpenseStats{}, err
	}

	currentMonth := monthStart(s.clock.Now())
	from := currentMonth.AddDate(0, -(TrendMonths - 1), 0)
	totals, err := s.records.MonthlyTotals(ctx, from, currentMonth.AddDate(0, 1, 0))
	if err != nil {
		return ExpenseStats{}, err
	}
	log.Tracef("Monthly totals: %v", totals)

	byMonth := make(map[time.Time]decimal.Decimal, len(totals))
	for _, t := range totals {
		byMonth[monthStart(t.Month)] = t.Amount
	}
	trend := make([]MonthlyAmount, 0, TrendMonths)
	for i := 0; i < TrendMonths; i++ {
		month := from.AddDate(0, i, 0)
		amount, ok := byMonth[month]
		if !ok {
			amount = decimal.Zero
		}
		trend = append(trend, MonthlyAmount{Month: month, Label: month.Format("Jan 2006"), Amount: amount})
	}

	average := decimal.Zero
	if summary.Count > 0 {
		average = summary.Total.Div(decimal.NewFromInt(int64(summary.Count))).Round(2)
	}
	categoryCounts := summary.CategoryCounts
	if categoryCounts == nil {
		categoryCounts = map[string]int{}
	}

	return ExpenseStats{
		TotalExpenses:  summary.Count,
		TotalAmount:    summary.Total,
		AverageAmount:  average,
		CategoryCounts: categoryCounts,
		MonthlyTrend:   trend,
	}, nil
}

func (s *StatsServiceImpl) GetUserTotals(ctx context.Context) (UserTotals, error) {
	summary, err := s.records.Summary(ctx)
	if err != nil {
		return UserTotals{}, err
	}
	return UserTotals{Total: summary.Total, DaysWithRecords: summary.PositiveCount}, nil
}

func (s *StatsServiceImpl) GetBestWorst(ctx context.Context) (BestWorst, error) {
	summary, err := s.records.Summary(ctx)
	if err != nil {
		return BestWorst{}, err
	}
	if summary.Count == 0 {
		return BestWorst{Best: decimal.Zero, Worst: decimal.Zero}, nil
	}
	return BestWorst{Best: summary.Max, Worst: summary.Min}, nil
}

// ExportRecords returns every record matching filters, walking the search pages.
func (s *StatsServiceImpl) ExportRecords(ctx context.Context, filters record.SearchFilters) ([]record.Record, error) {
	records := make([]record.Record, 0)
	for page := 1; ; page++ {
		result, err := s.records.Search(ctx, filters, page, record.MaxSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to search records for export: %w", err)
		}
		records = append(records, result.Records...)
		if len(result.Records) < record.MaxSearchLimit || len(records) >= result.TotalCount {
			return records, nil
		}
	}
}

// monthStart buckets by UTC calendar month.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
