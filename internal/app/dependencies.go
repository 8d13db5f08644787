package app

import (
	"fmt"

	"github.com/expensetracker/expenses/internal/auth"
	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/event_bus"
	"github.com/expensetracker/expenses/internal/ratelimit"
	"github.com/expensetracker/expenses/internal/utils"
	"github.com/expensetracker/expenses/pkg/analytics"
	"github.com/expensetracker/expenses/pkg/budget"
	"github.com/expensetracker/expenses/pkg/insight"
	"github.com/expensetracker/expenses/pkg/llm"
	"github.com/expensetracker/expenses/pkg/record"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	TokenValidator *auth.TokenValidator
	AuthMiddleware *auth.Middleware
	OAuthHandler   *auth.OAuthHandler

	UserService user.Service
	UserHandler *user.Handler

	RecordService record.Service
	RecordHandler *record.Handler

	BudgetRepo    budget.BudgetRepo
	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	StatsService     *analytics.StatsServiceImpl
	CsvStatsRenderer *analytics.CsvStatsRendererImpl
	StatsHandler     *analytics.StatsHandler

	LLMClient      llm.Client
	InsightService insight.Service
	InsightHandler *insight.Handler

	AIRateLimiter *ratelimit.RateLimiter
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	// Header mode has no tokens to verify and no sign-in flow.
	if cfg.Auth.Mode != config.AuthModeHeader {
		validator, err := auth.NewTokenValidator(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token validator: %w", err)
		}
		deps.TokenValidator = validator
		deps.OAuthHandler = auth.NewOAuthHandler(auth.NewStateRepository(db), deps.TokenValidator, deps.UserService, cfg)
	} else {
		log.Warn("Authentication trusts the X-User-Id header, do not expose this instance")
	}
	deps.AuthMiddleware = auth.NewMiddleware(cfg.Auth.Mode, deps.TokenValidator, deps.UserService)

	deps.RecordService = record.NewService(record.NewRepository(db), deps.EventBus)
	deps.RecordHandler = record.NewHandler(deps.RecordService)

	deps.BudgetRepo = budget.NewBudgetRepo(db)
	deps.BudgetService = budget.NewBudgetServiceImpl(deps.BudgetRepo, deps.RecordService, deps.Clock)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	deps.StatsService = analytics.NewStatsServiceImpl(deps.RecordService, deps.Clock)
	deps.CsvStatsRenderer = analytics.NewCsvStatsRenderer()
	deps.StatsHandler = analytics.NewStatsHandler(deps.StatsService, deps.CsvStatsRenderer)

	deps.LLMClient = llm.NewHTTPClient(cfg.LLM)
	deps.InsightService = insight.NewService(deps.RecordService, deps.LLMClient, deps.Clock, cfg.Insights, deps.EventBus)
	deps.InsightHandler = insight.NewHandler(deps.InsightService)

	deps.AIRateLimiter = ratelimit.NewRateLimiter(cfg.RateLimit)

	return deps, nil
}
