package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrRecordNotFound = errors.New("record not found")

type Repository interface {
	Create(ctx context.Context, userId int, record Record) (Record, error)
	Delete(ctx context.Context, userId int, id int) (bool, error)
	ListRecent(ctx context.Context, userId int, limit int) ([]Record, error)
	ListCreatedSince(ctx context.Context, userId int, since time.Time, limit int) ([]Record, error)
	Search(ctx context.Context, userId int, filters SearchFilters, offset int, limit int) ([]Record, error)
	SearchStats(ctx context.Context, userId int, filters SearchFilters) (int, map[string]CategoryTotal, error)
	Categories(ctx context.Context, userId int) ([]string, error)
	SumBetween(ctx context.Context, userId int, category string, from time.Time, to time.Time) (int64, error)
	Summary(ctx context.Context, userId int) (Summary, error)
	MonthlyTotals(ctx context.Context, userId int, from time.Time, to time.Time) ([]MonthTotal, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const recordColumns = `id, user_id, text, amount_cents, category, date, created_at`

func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	records := make([]Record, 0, 10)
	for rows.Next() {
		var r Record
		var cents int64
		if err := rows.Scan(&r.Id, &r.UserId, &r.Text, &cents, &r.Category, &r.Date, &r.CreatedAt); err != nil {
			log.Errorf("failed to scan record: %v", err)
			return nil, err
		}
		r.Amount = centsToDecimal(cents)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over record rows: %v", err)
		return nil, err
	}
	return records, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, record Record) (Record, error) {
	query := `INSERT INTO record (user_id, text, amount_cents, category, date)
				VALUES ($1, $2, $3, $4, $5) RETURNING ` + recordColumns
	rows, err := r.db.Query(ctx, query,
		userId,
		record.Text,
		decimalToCents(record.Amount),
		record.Category,
		record.Date,
	)
	if err != nil {
		err := fmt.Errorf("could not insert record: %w", err)
		log.Error(err)
		return Record{}, err
	}
	created, err := scanRecords(rows)
	if err != nil {
		return Record{}, err
	}
	if len(created) != 1 {
		return Record{}, fmt.Errorf("insert returned %d rows", len(created))
	}
	return created[0], nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM record WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not delete record: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) ListRecent(ctx context.Context, userId int, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM record WHERE user_id = $1 ORDER BY date DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userId, limit)
	if err != nil {
		log.Errorf("could not query records: %v", err)
		return nil, err
	}
	return scanRecords(rows)
}

func (r *RepositoryImpl) ListCreatedSince(ctx context.Context, userId int, since time.Time, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM record WHERE user_id = $1 AND created_at >= $2
				ORDER BY created_at DESC, id DESC LIMIT $3`
	rows, err := r.db.Query(ctx, query, userId, since, limit)
	if err != nil {
		log.Errorf("could not query records: %v", err)
		return nil, err
	}
	return scanRecords(rows)
}

func (r *RepositoryImpl) Search(ctx context.Context, userId int, filters SearchFilters, offset int, limit int) ([]Record, error) {
	where, args := whereClause(userId, filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM record WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		recordColumns, where, orderClause(filters), len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not search records: %v", err)
		return nil, err
	}
	return scanRecords(rows)
}

// SearchStats returns the number of matching records and a per category breakdown over all of them.
func (r *RepositoryImpl) SearchStats(ctx context.Context, userId int, filters SearchFilters) (int, map[string]CategoryTotal, error) {
	where, args := whereClause(userId, filters)
	query := `SELECT category, COUNT(*), COALESCE(SUM(amount_cents), 0)::bigint FROM record WHERE ` + where +
		` GROUP BY category`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not aggregate records: %v", err)
		return 0, nil, err
	}
	defer rows.Close()

	total := 0
	breakdown := make(map[string]CategoryTotal)
	for rows.Next() {
		var category string
		var count int
		var cents int64
		if err := rows.Scan(&category, &count, &cents); err != nil {
			return 0, nil, err
		}
		total += count
		breakdown[category] = CategoryTotal{Count: count, Total: centsToDecimal(cents)}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return total, breakdown, nil
}

func (r *RepositoryImpl) Categories(ctx context.Context, userId int) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM record WHERE user_id = $1 ORDER BY category`, userId)
	if err != nil {
		log.Errorf("could not query categories: %v", err)
		return nil, err
	}
	defer rows.Close()
	categories := make([]string, 0, len(Categories))
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// SumBetween sums record amounts in cents for from <= date < to.
func (r *RepositoryImpl) SumBetween(ctx context.Context, userId int, category string, from time.Time, to time.Time) (int64, error) {
	var cents int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM record
			WHERE user_id = $1 AND category = $2 AND date >= $3 AND date < $4`,
		userId, category, from, to,
	).Scan(&cents)
	if err != nil {
		log.Errorf("could not sum records: %v", err)
		return 0, err
	}
	return cents, nil
}

func (r *RepositoryImpl) Summary(ctx context.Context, userId int) (Summary, error) {
	var count, positive int
	var total, maxCents, minCents int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
				COUNT(*) FILTER (WHERE amount_cents > 0),
				COALESCE(SUM(amount_cents), 0)::bigint,
				COALESCE(MAX(amount_cents), 0),
				COALESCE(MIN(amount_cents), 0)
			FROM record WHERE user_id = $1`,
		userId,
	).Scan(&count, &positive, &total, &maxCents, &minCents)
	if err != nil {
		log.Errorf("could not summarize records: %v", err)
		return Summary{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM record WHERE user_id = $1 GROUP BY category`, userId)
	if err != nil {
		log.Errorf("could not count categories: %v", err)
		return Summary{}, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return Summary{}, err
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Count:          count,
		PositiveCount:  positive,
		Total:          centsToDecimal(total),
		Max:            centsToDecimal(maxCents),
		Min:            centsToDecimal(minCents),
		CategoryCounts: counts,
	}, nil
}

// MonthlyTotals sums amounts per UTC calendar month for from <= date < to. Months without
// records are omitted.
func (r *RepositoryImpl) MonthlyTotals(ctx context.Context, userId int, from time.Time, to time.Time) ([]MonthTotal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT date_trunc('month', date AT TIME ZONE 'UTC') AS month, COALESCE(SUM(amount_cents), 0)::bigint
			FROM record WHERE user_id = $1 AND date >= $2 AND date < $3
			GROUP BY month ORDER BY month`,
		userId, from, to,
	)
	if err != nil {
		log.Errorf("could not query monthly totals: %v", err)
		return nil, err
	}
	defer rows.Close()
	totals := make([]MonthTotal, 0, 12)
	for rows.Next() {
		var month time.Time
		var cents int64
		if err := rows.Scan(&month, &cents); err != nil {
			return nil, err
		}
		totals = append(totals, MonthTotal{
			Month:  time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC),
			Amount: centsToDecimal(cents),
		})
	}
	return totals, rows.Err()
}
