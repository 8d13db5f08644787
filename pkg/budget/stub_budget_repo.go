package budget

import (
	"context"
	"sort"
	"sync"
	"time"
)

type StubBudgetRepo struct {
	mu     sync.Mutex
	nextId int
	data   map[int]Budget
	Err    error
}

func NewStubBudgetRepo() *StubBudgetRepo {
	return &StubBudgetRepo{data: map[int]Budget{}}
}

func (s *StubBudgetRepo) Upsert(ctx context.Context, userId int, budget Budget) (Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Budget{}, s.Err
	}
	now := time.Now()
	for id, existing := range s.data {
		if existing.UserId == userId && existing.Category == budget.Category && existing.Period == budget.Period {
			existing.Amount = budget.Amount
			existing.StartDate = budget.StartDate
			existing.EndDate = budget.EndDate
			existing.IsActive = true
			existing.UpdatedAt = now
			s.data[id] = existing
			return existing, nil
		}
	}
	s.nextId++
	budget.Id = s.nextId
	budget.UserId = userId
	budget.IsActive = true
	// keeps ordering by creation stable for budgets created within the same instant
	budget.CreatedAt = now.Add(time.Duration(s.nextId) * time.Microsecond)
	budget.UpdatedAt = budget.CreatedAt
	s.data[budget.Id] = budget
	return budget, nil
}

func (s *StubBudgetRepo) GetActive(ctx context.Context, userId int) ([]Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	budgets := make([]Budget, 0, len(s.data))
	for _, b := range s.data {
		if b.UserId == userId && b.IsActive {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool {
		return budgets[i].CreatedAt.After(budgets[j].CreatedAt)
	})
	return budgets, nil
}

func (s *StubBudgetRepo) Deactivate(ctx context.Context, userId int, budgetId int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	b, ok := s.data[budgetId]
	if !ok || b.UserId != userId || !b.IsActive {
		return false, nil
	}
	b.IsActive = false
	s.data[budgetId] = b
	return true, nil
}
