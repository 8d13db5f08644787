package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/expensetracker/expenses/internal/event_bus"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidRecord = errors.New("invalid record")

type Service interface {
	AddRecord(ctx context.Context, record Record) (Record, error)
	DeleteRecord(ctx context.Context, id int) error
	GetRecords(ctx context.Context, limit int) ([]Record, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]Record, error)
	Search(ctx context.Context, filters SearchFilters, page int, limit int) (SearchResult, error)
	Categories(ctx context.Context) ([]string, error)
	SumByCategoryBetween(ctx context.Context, category string, from time.Time, to time.Time) (decimal.Decimal, error)
	Summary(ctx context.Context) (Summary, error)
	MonthlyTotals(ctx context.Context, from time.Time, to time.Time) ([]MonthTotal, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) AddRecord(ctx context.Context, record Record) (Record, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to get current user: %w", err)
	}

	record, err = validate(record)
	if err != nil {
		return Record{}, err
	}

	created, err := s.repo.Create(ctx, userId, record)
	if err != nil {
		return Record{}, err
	}
	log.Debugf("User %d added record %d (%s %s)", userId, created.Id, created.Category, created.Amount)

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.RecordCreatedEvent, event_bus.RecordCreated{
		Id:       created.Id,
		UserId:   userId,
		Category: created.Category,
		Amount:   created.Amount,
		Date:     created.Date,
	}))
	if err != nil {
		// the record is stored; subscribers only keep derived state
		log.Errorf("failed to publish record created event: %v", err)
	}
	return created, nil
}

func validate(record Record) (Record, error) {
	record.Text = strings.TrimSpace(record.Text)
	if record.Text == "" {
		return Record{}, fmt.Errorf("%w: description is required", ErrInvalidRecord)
	}
	if utf8.RuneCountInString(record.Text) > MaxTextLength {
		return Record{}, fmt.Errorf("%w: description must be at most %d characters", ErrInvalidRecord, MaxTextLength)
	}

	record.Amount = record.Amount.Round(2)
	if !record.Amount.IsPositive() {
		return Record{}, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidRecord)
	}
	if record.Amount.GreaterThan(MaxAmount) {
		return Record{}, fmt.Errorf("%w: amount must not exceed %s", ErrInvalidRecord, MaxAmount)
	}

	category, ok := NormalizeCategory(record.Category)
	if !ok {
		return Record{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, record.Category)
	}
	record.Category = category

	if record.Date.IsZero() {
		return Record{}, fmt.Errorf("%w: date is required", ErrInvalidRecord)
	}
	return record, nil
}

func (s *ServiceImpl) DeleteRecord(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Warnf("record not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", id, userId)
		return ErrRecordNotFound
	}

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.RecordDeletedEvent, event_bus.RecordDeleted{
		Id:     id,
		UserId: userId,
	}))
	if err != nil {
		log.Errorf("failed to publish record deleted event: %v", err)
	}
	return nil
}

func (s *ServiceImpl) GetRecords(ctx context.Context, limit int) ([]Record, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if limit < 1 {
		limit = DefaultRecentLimit
	}
	return s.repo.ListRecent(ctx, userId, limit)
}

// ListSince returns records created since the given moment, newest first.
func (s *ServiceImpl) ListSince(ctx context.Context, since time.Time, limit int) ([]Record, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListCreatedSince(ctx, userId, since, limit)
}

func (s *ServiceImpl) Search(ctx context.Context, filters SearchFilters, page int, limit int) (SearchResult, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to get current user: %w", err)
	}
	page, limit = normalizePaging(page, limit)

	records, err := s.repo.Search(ctx, userId, filters, (page-1)*limit, limit)
	if err != nil {
		return SearchResult{}, err
	}
	count, breakdown, err := s.repo.SearchStats(ctx, userId, filters)
	if err != nil {
		return SearchResult{}, err
	}

	total := decimal.Zero
	for _, ct := range breakdown {
		total = total.Add(ct.Total)
	}
	average := decimal.Zero
	if count > 0 {
		average = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	return SearchResult{
		Records:           records,
		Page:              page,
		Limit:             limit,
		TotalCount:        count,
		TotalAmount:       total,
		AverageAmount:     average,
		CategoryBreakdown: breakdown,
	}, nil
}

func (s *ServiceImpl) Categories(ctx context.Context) ([]string, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Categories(ctx, userId)
}

// SumByCategoryBetween sums the current user's spend in a category for from <= date < to.
func (s *ServiceImpl) SumByCategoryBetween(ctx context.Context, category string, from time.Time, to time.Time) (decimal.Decimal, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get current user: %w", err)
	}
	cents, err := s.repo.SumBetween(ctx, userId, category, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return centsToDecimal(cents), nil
}

func (s *ServiceImpl) Summary(ctx context.Context) (Summary, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Summary(ctx, userId)
}

func (s *ServiceImpl) MonthlyTotals(ctx context.Context, from time.Time, to time.Time) ([]MonthTotal, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MonthlyTotals(ctx, userId, from, to)
}
