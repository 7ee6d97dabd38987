package payment

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
	// CreateSession inserts a pending checkout session. A partial unique
	// index allows at most one pending session per booking, so a
	// concurrent duplicate insert fails with ErrCheckoutInFlight.
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByProviderID(ctx context.Context, providerSessionID string) (*Session, error)
	HasActiveSession(ctx context.Context, bookingID string) (bool, error)

	// MarkSessionTerminal moves a pending session to a terminal status.
	// It reports false when the session was already terminal.
	MarkSessionTerminal(ctx context.Context, providerSessionID string, status SessionStatus, amountPaidCents *int64) (bool, error)

	// RecordEvent inserts the event into the idempotency ledger. It
	// reports false when the provider event ID was already recorded.
	RecordEvent(ctx context.Context, e *EventRecord) (bool, error)
	GetEvent(ctx context.Context, providerEventID string) (*EventRecord, error)
	MarkEventProcessed(ctx context.Context, providerEventID string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) CreateSession(ctx context.Context, s *Session) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.payment_sessions").
		Columns("booking_id", "provider_session_id", "payment_status").
		Values(s.BookingID, s.ProviderSessionID, s.PaymentStatus).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create payment session query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrCheckoutInFlight
		}
		return fmt.Errorf("create payment session failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetSessionByProviderID(ctx context.Context, providerSessionID string) (*Session, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "booking_id", "provider_session_id", "payment_status",
		"amount_paid_cents", "created_at", "updated_at").
		From("public.payment_sessions").
		Where(squirrel.Eq{"provider_session_id": providerSessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get payment session query failed: %w", err)
	}

	var s Session
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.BookingID, &s.ProviderSessionID,
		&s.PaymentStatus, &s.AmountPaidCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get payment session failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) HasActiveSession(ctx context.Context, bookingID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("1").
		From("public.payment_sessions").
		Where(squirrel.Eq{"booking_id": bookingID, "payment_status": SessionPending}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build active session query failed: %w", err)
	}

	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check active session failed: %w", err)
	}
	return true, nil
}

func (r *pgxRepository) MarkSessionTerminal(ctx context.Context, providerSessionID string, status SessionStatus, amountPaidCents *int64) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.payment_sessions").
		Set("payment_status", status).
		Set("amount_paid_cents", amountPaidCents).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{
			"provider_session_id": providerSessionID,
			"payment_status":      SessionPending,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark session terminal query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark session terminal failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) RecordEvent(ctx context.Context, e *EventRecord) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.provider_events").
		Columns("provider_event_id", "event_type", "payload").
		Values(e.ProviderEventID, e.EventType, e.Payload).
		Suffix("ON CONFLICT (provider_event_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build record event query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("record event failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) GetEvent(ctx context.Context, providerEventID string) (*EventRecord, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "provider_event_id", "event_type", "payload",
		"processed", "processed_at", "created_at").
		From("public.provider_events").
		Where(squirrel.Eq{"provider_event_id": providerEventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get event query failed: %w", err)
	}

	var e EventRecord
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&e.ID, &e.ProviderEventID, &e.EventType,
		&e.Payload, &e.Processed, &e.ProcessedAt, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event failed: %w", err)
	}
	return &e, nil
}

func (r *pgxRepository) MarkEventProcessed(ctx context.Context, providerEventID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.provider_events").
		Set("processed", true).
		Set("processed_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"provider_event_id": providerEventID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark event processed query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark event processed failed: %w", err)
	}
	return nil
}
