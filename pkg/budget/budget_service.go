package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expensetracker/expenses/internal/utils"
	"github.com/expensetracker/expenses/pkg/record"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidBudget  = errors.New("category and valid amount are required")
	ErrBudgetNotFound = errors.New("budget not found")
)

// SpendingSource sums the current user's spending in a category for from <= date < to.
type SpendingSource interface {
	SumByCategoryBetween(ctx context.Context, category string, from time.Time, to time.Time) (decimal.Decimal, error)
}

type BudgetService interface {
	CreateBudget(ctx context.Context, budget Budget) (Budget, error)
	GetBudgets(ctx context.Context) ([]BudgetStatus, error)
	DeleteBudget(ctx context.Context, id int) error
	GetBudgetOverview(ctx context.Context) (Overview, error)
}

type BudgetServiceImpl struct {
	repo     BudgetRepo
	spending SpendingSource
	clock    utils.Clock
}

func NewBudgetServiceImpl(repo BudgetRepo, spending SpendingSource, clock utils.Clock) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo, spending: spending, clock: clock}
}

func (s *BudgetServiceImpl) CreateBudget(ctx context.Context, budget Budget) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}

	budget, err = s.validate(budget)
	if err != nil {
		return Budget{}, err
	}

	stored, err := s.repo.Upsert(ctx, userId, budget)
	if err != nil {
		return Budget{}, err
	}
	log.Debugf("User %d stored %s budget %d for %s", userId, stored.Period, stored.Id, stored.Category)
	return stored, nil
}

func (s *BudgetServiceImpl) validate(budget Budget) (Budget, error) {
	category, ok := record.NormalizeCategory(budget.Category)
	if !ok {
		return Budget{}, fmt.Errorf("%w: unknown category %q", ErrInvalidBudget, budget.Category)
	}
	budget.Category = category

	budget.Amount = budget.Amount.Round(2)
	if !budget.Amount.IsPositive() {
		return Budget{}, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidBudget)
	}

	budget.Period = Period(strings.ToLower(strings.TrimSpace(string(budget.Period))))
	switch budget.Period {
	case "":
		budget.Period = PeriodMonthly
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
	default:
		return Budget{}, fmt.Errorf("%w: unsupported period %q", ErrInvalidBudget, budget.Period)
	}

	if budget.StartDate.IsZero() {
		budget.StartDate = utils.StartOfDay(s.clock.Now())
	}
	if budget.EndDate != nil && budget.EndDate.Before(budget.StartDate) {
		return Budget{}, fmt.Errorf("%w: end date must not be before start date", ErrInvalidBudget)
	}
	return budget, nil
}

func (s *BudgetServiceImpl) GetBudgets(ctx context.Context) ([]BudgetStatus, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	budgets, err := s.repo.GetActive(ctx, userId)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		start, end := Window(b, now)
		spent, err := s.spending.SumByCategoryBetween(ctx, b.Category, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to sum spending for budget %d: %w", b.Id, err)
		}
		statuses = append(statuses, NewStatus(b, start, end, spent))
	}
	return statuses, nil
}

func (s *BudgetServiceImpl) DeleteBudget(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	deleted, err := s.repo.Deactivate(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Warnf("budget not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", id, userId)
		return ErrBudgetNotFound
	}
	return nil
}

func (s *BudgetServiceImpl) GetBudgetOverview(ctx context.Context) (Overview, error) {
	statuses, err := s.GetBudgets(ctx)
	if err != nil {
		return Overview{}, err
	}
	return NewOverview(statuses), nil
}
