package record

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/expensetracker/expenses/internal/utils"
	"github.com/shopspring/decimal"
)

type RepositoryStub struct {
	mu      sync.Mutex
	nextId  int
	records map[int]Record
	// Now stamps CreatedAt of new records. Defaults to time.Now.
	Now func() time.Time
	Err error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{records: map[int]Record{}, Now: time.Now}
}

func (s *RepositoryStub) Create(ctx context.Context, userId int, record Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Record{}, s.Err
	}
	s.nextId++
	record.Id = s.nextId
	record.UserId = userId
	record.Amount = record.Amount.Round(2)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.Now()
	}
	s.records[record.Id] = record
	return record, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, userId int, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	r, ok := s.records[id]
	if !ok || r.UserId != userId {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *RepositoryStub) userRecords(userId int, match func(Record) bool) []Record {
	result := make([]Record, 0)
	for _, r := range s.records {
		if r.UserId == userId && (match == nil || match(r)) {
			result = append(result, r)
		}
	}
	return result
}

func (s *RepositoryStub) ListRecent(ctx context.Context, userId int, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	records := s.userRecords(userId, nil)
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date.Equal(records[j].Date) {
			return records[i].Id > records[j].Id
		}
		return records[i].Date.After(records[j].Date)
	})
	return truncate(records, limit), nil
}

func (s *RepositoryStub) ListCreatedSince(ctx context.Context, userId int, since time.Time, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	records := s.userRecords(userId, func(r Record) bool { return !r.CreatedAt.Before(since) })
	sortByCreatedDesc(records)
	return truncate(records, limit), nil
}

func (s *RepositoryStub) matching(userId int, filters SearchFilters) []Record {
	query := strings.ToLower(strings.TrimSpace(filters.Query))
	return s.userRecords(userId, func(r Record) bool {
		if query != "" && !strings.Contains(strings.ToLower(r.Text), query) {
			return false
		}
		if filters.Category != "" && !strings.EqualFold(filters.Category, "all") && r.Category != filters.Category {
			return false
		}
		if filters.MinAmount != nil && r.Amount.LessThan(filters.MinAmount.Round(2)) {
			return false
		}
		if filters.MaxAmount != nil && r.Amount.GreaterThan(filters.MaxAmount.Round(2)) {
			return false
		}
		if filters.StartDate != nil && r.Date.Before(*filters.StartDate) {
			return false
		}
		if filters.EndDate != nil && r.Date.After(utils.EndOfDay(*filters.EndDate)) {
			return false
		}
		return true
	})
}

func (s *RepositoryStub) Search(ctx context.Context, userId int, filters SearchFilters, offset int, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	records := s.matching(userId, filters)
	asc := strings.EqualFold(filters.SortOrder, "asc")
	switch filters.SortBy {
	case SortByDate, SortByAmount, SortByCategory:
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i], records[j]
			var cmp int
			switch filters.SortBy {
			case SortByDate:
				cmp = a.Date.Compare(b.Date)
			case SortByAmount:
				cmp = a.Amount.Cmp(b.Amount)
			case SortByCategory:
				cmp = strings.Compare(a.Category, b.Category)
			}
			if cmp == 0 {
				cmp = a.Id - b.Id
			}
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	default:
		sortByCreatedDesc(records)
	}
	if offset >= len(records) {
		return []Record{}, nil
	}
	return truncate(records[offset:], limit), nil
}

func (s *RepositoryStub) SearchStats(ctx context.Context, userId int, filters SearchFilters) (int, map[string]CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, nil, s.Err
	}
	records := s.matching(userId, filters)
	breakdown := make(map[string]CategoryTotal)
	for _, r := range records {
		ct := breakdown[r.Category]
		ct.Count++
		ct.Total = ct.Total.Add(r.Amount)
		breakdown[r.Category] = ct
	}
	return len(records), breakdown, nil
}

func (s *RepositoryStub) Categories(ctx context.Context, userId int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	seen := map[string]bool{}
	categories := make([]string, 0)
	for _, r := range s.userRecords(userId, nil) {
		if !seen[r.Category] {
			seen[r.Category] = true
			categories = append(categories, r.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *RepositoryStub) SumBetween(ctx context.Context, userId int, category string, from time.Time, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var cents int64
	for _, r := range s.userRecords(userId, nil) {
		if r.Category == category && !r.Date.Before(from) && r.Date.Before(to) {
			cents += decimalToCents(r.Amount)
		}
	}
	return cents, nil
}

func (s *RepositoryStub) Summary(ctx context.Context, userId int) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Summary{}, s.Err
	}
	summary := Summary{CategoryCounts: map[string]int{}}
	for i, r := range s.userRecords(userId, nil) {
		summary.Count++
		if r.Amount.IsPositive() {
			summary.PositiveCount++
		}
		summary.Total = summary.Total.Add(r.Amount)
		if i == 0 || r.Amount.GreaterThan(summary.Max) {
			summary.Max = r.Amount
		}
		if i == 0 || r.Amount.LessThan(summary.Min) {
			summary.Min = r.Amount
		}
		summary.CategoryCounts[r.Category]++
	}
	return summary, nil
}

func (s *RepositoryStub) MonthlyTotals(ctx context.Context, userId int, from time.Time, to time.Time) ([]MonthTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	byMonth := map[time.Time]decimal.Decimal{}
	for _, r := range s.userRecords(userId, nil) {
		if r.Date.Before(from) || !r.Date.Before(to) {
			continue
		}
		d := r.Date.UTC()
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[month] = byMonth[month].Add(r.Amount)
	}
	totals := make([]MonthTotal, 0, len(byMonth))
	for month, amount := range byMonth {
		totals = append(totals, MonthTotal{Month: month, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month.Before(totals[j].Month) })
	return totals, nil
}

func sortByCreatedDesc(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Id > records[j].Id
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

func truncate(records []Record, limit int) []Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
