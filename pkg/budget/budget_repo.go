package budget

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type BudgetRepo interface {
	// Upsert stores a budget, or updates the amount and re-activates the existing budget with the
	// same category and period.
	Upsert(ctx context.Context, userId int, budget Budget) (Budget, error)
	GetActive(ctx context.Context, userId int) ([]Budget, error)
	// Deactivate soft-deletes a budget, returns false when it does not exist or belongs to another user.
	Deactivate(ctx context.Context, userId int, budgetId int) (bool, error)
}

type BudgetRepoImpl struct {
	db *pgxpool.Pool
}

func NewBudgetRepo(db *pgxpool.Pool) *BudgetRepoImpl {
	return &BudgetRepoImpl{db: db}
}

const budgetColumns = `id, user_id, category, amount_cents, period, start_date, end_date, is_active, created_at, updated_at`

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	var amountCents int64
	var period string
	err := row.Scan(
		&b.Id,
		&b.UserId,
		&b.Category,
		&amountCents,
		&period,
		&b.StartDate,
		&b.EndDate,
		&b.IsActive,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	b.Amount = centsToDecimal(amountCents)
	b.Period = Period(period)
	return b, err
}

func (r *BudgetRepoImpl) Upsert(ctx context.Context, userId int, budget Budget) (Budget, error) {
	query := `INSERT INTO budget (user_id, category, amount_cents, period, start_date, end_date)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (user_id, category, period) DO UPDATE SET
					amount_cents = EXCLUDED.amount_cents,
					start_date = EXCLUDED.start_date,
					end_date = EXCLUDED.end_date,
					is_active = TRUE,
					updated_at = now()
				RETURNING ` + budgetColumns

	stored, err := scanBudget(r.db.QueryRow(ctx, query,
		userId,
		budget.Category,
		decimalToCents(budget.Amount),
		string(budget.Period),
		budget.StartDate,
		budget.EndDate,
	))
	if err != nil {
		err = fmt.Errorf("could not store budget: %w", err)
		log.Error(err)
		return Budget{}, err
	}
	return stored, nil
}

func (r *BudgetRepoImpl) GetActive(ctx context.Context, userId int) ([]Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budget
				WHERE user_id = $1 AND is_active = TRUE
				ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err = fmt.Errorf("could not query budgets: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	budgets := make([]Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			log.Errorf("could not scan budget: %v", err)
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *BudgetRepoImpl) Deactivate(ctx context.Context, userId int, budgetId int) (bool, error) {
	query := `UPDATE budget SET is_active = FALSE, updated_at = now()
				WHERE id = $1 AND user_id = $2 AND is_active = TRUE`

	tag, err := r.db.Exec(ctx, query, budgetId, userId)
	if err != nil {
		err = fmt.Errorf("could not deactivate budget: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
