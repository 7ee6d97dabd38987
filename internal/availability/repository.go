package availability

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// ListActiveByTutor returns the tutor's active rules ordered by day, then start time.
	ListActiveByTutor(ctx context.Context, tutorID string) ([]*Rule, error)

	// ReplaceForTutor atomically swaps the tutor's entire rule set for the
	// given one. Readers never observe a partially replaced schedule.
	ReplaceForTutor(ctx context.Context, tutorID string, rules []*Rule) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) ListActiveByTutor(ctx context.Context, tutorID string) ([]*Rule, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "tutor_id", "day_of_week", "start_minute", "end_minute", "is_active", "created_at").
		From("public.availability_rules").
		Where(squirrel.Eq{"tutor_id": tutorID, "is_active": true}).
		OrderBy("day_of_week ASC", "start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list availability query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list availability failed: %w", err)
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(
			&rule.ID, &rule.TutorID, &rule.DayOfWeek,
			&rule.StartMinute, &rule.EndMinute, &rule.IsActive, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan availability rule failed: %w", err)
		}
		rules = append(rules, &rule)
	}

	return rules, nil
}

func (r *pgxRepository) ReplaceForTutor(ctx context.Context, tutorID string, rules []*Rule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace availability failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM public.availability_rules WHERE tutor_id = $1", tutorID); err != nil {
		return fmt.Errorf("delete availability rules failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	for _, rule := range rules {
		query, args, err := psql.Insert("public.availability_rules").
			Columns("tutor_id", "day_of_week", "start_minute", "end_minute", "is_active").
			Values(tutorID, rule.DayOfWeek, rule.StartMinute, rule.EndMinute, rule.IsActive).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert availability rule query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert availability rule failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace availability failed: %w", err)
	}
	return nil
}
