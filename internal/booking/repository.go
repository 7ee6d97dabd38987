package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create inserts the booking. ErrTimeConflict is returned when the
	// tutor already holds a non-cancelled booking overlapping the
	// requested range; the check is enforced by a database exclusion
	// constraint so concurrent inserts cannot both succeed.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// UpdateStatus moves the booking to the given status only if its
	// current status is one of from. It reports whether a row changed.
	UpdateStatus(ctx context.Context, id string, from []Status, to Status) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const bookingColumns = `b.id, b.student_id, b.tutor_id, b.session_at, b.duration_hours,
	b.subject, b.notes, b.total_amount_cents, b.status, b.created_at, b.updated_at,
	s.first_name || ' ' || s.last_name AS student_name,
	t.first_name || ' ' || t.last_name AS tutor_name`

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("student_id", "tutor_id", "session_at", "duration_hours",
			"subject", "notes", "total_amount_cents", "status").
		Values(b.StudentID, b.TutorID, b.SessionAt, b.DurationHours,
			b.Subject, b.Notes, b.TotalAmountCents, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrTimeConflict
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns).
		From("public.bookings b").
		Join("public.users s ON s.id = b.student_id").
		Join("public.users t ON t.id = b.tutor_id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(bookingColumns, "count(*) OVER() as total_count").
		From("public.bookings b").
		Join("public.users s ON s.id = b.student_id").
		Join("public.users t ON t.id = b.tutor_id")

	if filter.UserID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"b.student_id": filter.UserID},
			squirrel.Eq{"b.tutor_id": filter.UserID},
		})
	}
	if filter.TutorID != "" {
		query = query.Where(squirrel.Eq{"b.tutor_id": filter.TutorID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}

	query = query.OrderBy("b.session_at DESC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.StudentID, &b.TutorID, &b.SessionAt, &b.DurationHours,
			&b.Subject, &b.Notes, &b.TotalAmountCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&b.StudentName, &b.TutorName, &total); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from []Status, to Status) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update booking status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update booking status failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.StudentID, &b.TutorID, &b.SessionAt, &b.DurationHours,
		&b.Subject, &b.Notes, &b.TotalAmountCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&b.StudentName, &b.TutorName)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
