package insight

import (
	"context"
	"errors"
	"fmt"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/event_bus"
	"github.com/expensetracker/expenses/internal/utils"
	"github.com/expensetracker/expenses/pkg/llm"
	"github.com/expensetracker/expenses/pkg/record"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	SuggestCategory(ctx context.Context, description string) (string, error)
	GetInsights(ctx context.Context) ([]Insight, error)
	AnswerQuestion(ctx context.Context, question string) (string, error)
}

type ServiceImpl struct {
	records record.Service
	llm     llm.Client
	clock   utils.Clock
	cache   *expirable.LRU[int, []Insight]
}

func NewService(records record.Service, client llm.Client, clock utils.Clock, cfg config.Insights, eventBus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{
		records: records,
		llm:     client,
		clock:   clock,
		cache:   expirable.NewLRU[int, []Insight](cfg.CacheSize, nil, cfg.CacheTTL),
	}

	event_bus.SubscribeTyped(eventBus, event_bus.RecordCreatedEvent, func(e event_bus.EventT[event_bus.RecordCreated]) error {
		s.invalidate(e.Data.UserId)
		return nil
	})
	event_bus.SubscribeTyped(eventBus, event_bus.RecordDeletedEvent, func(e event_bus.EventT[event_bus.RecordDeleted]) error {
		s.invalidate(e.Data.UserId)
		return nil
	})
	return s
}

func (s *ServiceImpl) invalidate(userId int) {
	if s.cache.Remove(userId) {
		log.Tracef("Dropped cached insights of user %d", userId)
	}
}

// loadContext returns the current user's records created in the last 30 days, newest first.
func (s *ServiceImpl) loadContext(ctx context.Context) (expenseContext, error) {
	since := s.clock.Now().AddDate(0, 0, -contextDays)
	records, err := s.records.ListSince(ctx, since, contextLimit)
	if err != nil {
		return expenseContext{}, err
	}
	return newExpenseContext(records), nil
}

func currentUserId(ctx context.Context) (int, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	return userId, nil
}

func isDisabled(err error) bool {
	return errors.Is(err, llm.ErrDisabled)
}
