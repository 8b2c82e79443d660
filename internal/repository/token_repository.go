package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/token-queue-service/internal/domain"
)

// TokenFilter captures admin listing parameters.
type TokenFilter struct {
	Search *string
	Status *domain.Status
	Limit  int
	Offset int
}

// TokenStore encapsulates token persistence. Claim is the operation with an
// atomicity contract: it must succeed for exactly one caller when several
// race for the same pending token, and it must refuse with ErrCounterBusy
// while the counter still holds a called token.
type TokenStore interface {
	Create(ctx context.Context, token *domain.Token) error
	GetByID(ctx context.Context, id string) (*domain.Token, error)
	OldestPending(ctx context.Context) (*domain.Token, error)
	Claim(ctx context.Context, id, counterName string, calledAt time.Time) (*domain.Token, error)
	UpdateStatus(ctx context.Context, token *domain.Token) error
	NowServing(ctx context.Context) (*domain.Token, error)
	ActiveForCounter(ctx context.Context, counterName string) (*domain.Token, error)
	PendingQueue(ctx context.Context, limit int) ([]domain.Token, error)
	Search(ctx context.Context, term string) (*domain.Token, error)
	List(ctx context.Context, filter TokenFilter) ([]domain.Token, int, error)
}

const tokenColumns = `id, token_date, number, full_name, mobile, purpose, extra,
       status, counter_name, created_at, called_at, served_at`

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a Postgres-backed token store.
func NewTokenRepository(pool *pgxpool.Pool) TokenStore {
	return &tokenRepository{pool: pool}
}

// Create inserts the token, allocating the next per-day number inside the
// same transaction so numbers stay strictly increasing and are never reused
// within a service day.
func (r *tokenRepository) Create(ctx context.Context, token *domain.Token) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Serialize number allocation per service day so concurrent bookings
	// cannot observe the same MAX and violate the unique (token_date, number)
	// constraint.
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, token.TokenDate.Format("2006-01-02")); err != nil {
		return err
	}

	const query = `
        INSERT INTO tokens (id, token_date, number, full_name, mobile, purpose, extra, status, created_at)
        SELECT $1, $2, COALESCE(MAX(number), 0) + 1, $3, $4, $5, $6, $7, $8
        FROM tokens WHERE token_date = $2
        RETURNING number`
	err = tx.QueryRow(ctx, query,
		token.ID,
		token.TokenDate,
		token.FullName,
		token.Mobile,
		token.Purpose,
		token.Extra,
		token.Status,
		token.CreatedAt,
	).Scan(&token.Number)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *tokenRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE id=$1`, tokenColumns)
	return r.fetchSingle(ctx, query, id)
}

// Day scoping compares token_date against the UTC date, not CURRENT_DATE:
// TokenDate is assigned in UTC, and CURRENT_DATE follows the session time
// zone, which would skip live tokens around midnight on non-UTC databases.
const utcToday = `(now() AT TIME ZONE 'utc')::date`

func (r *tokenRepository) OldestPending(ctx context.Context) (*domain.Token, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tokens
        WHERE status=$1 AND token_date=%s
        ORDER BY number ASC LIMIT 1`, tokenColumns, utcToday)
	return r.fetchSingle(ctx, query, domain.StatusPending)
}

// Claim moves a token from pending to called with a conditional update. The
// status guard makes the claim all-or-nothing, so of two racing callers
// exactly one sees a row updated; the NOT EXISTS guard refuses the claim
// while the counter still holds a called token. A zero-row result is
// disambiguated into ErrCounterBusy or ErrConflict.
func (r *tokenRepository) Claim(ctx context.Context, id, counterName string, calledAt time.Time) (*domain.Token, error) {
	query := fmt.Sprintf(`
        UPDATE tokens SET status=$3, counter_name=$2, called_at=$4
        WHERE id=$1 AND status=$5
          AND NOT EXISTS (
              SELECT 1 FROM tokens
              WHERE status=$3 AND counter_name=$2 AND token_date=%s
          )
        RETURNING %s`, utcToday, tokenColumns)

	token, err := r.scanRow(r.pool.QueryRow(ctx, query, id, counterName, domain.StatusCalled, calledAt, domain.StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if active, activeErr := r.ActiveForCounter(ctx, counterName); activeErr == nil && active != nil {
				return nil, ErrCounterBusy
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepository) UpdateStatus(ctx context.Context, token *domain.Token) error {
	const query = `
        UPDATE tokens SET status=$2, counter_name=$3, called_at=$4, served_at=$5
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query,
		token.ID,
		token.Status,
		token.CounterName,
		token.CalledAt,
		token.ServedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tokenRepository) NowServing(ctx context.Context) (*domain.Token, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tokens
        WHERE status=$1 AND token_date=%s
        ORDER BY called_at DESC LIMIT 1`, tokenColumns, utcToday)
	token, err := r.fetchSingle(ctx, query, domain.StatusCalled)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return token, err
}

// ActiveForCounter returns the called token currently held by the counter,
// or nil when the counter is idle.
func (r *tokenRepository) ActiveForCounter(ctx context.Context, counterName string) (*domain.Token, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tokens
        WHERE status=$1 AND counter_name=$2 AND token_date=%s
        ORDER BY called_at DESC LIMIT 1`, tokenColumns, utcToday)
	token, err := r.fetchSingle(ctx, query, domain.StatusCalled, counterName)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return token, err
}

func (r *tokenRepository) PendingQueue(ctx context.Context, limit int) ([]domain.Token, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
        SELECT %s FROM tokens
        WHERE status=$1 AND token_date=%s
        ORDER BY number ASC LIMIT $2`, tokenColumns, utcToday)

	rows, err := r.pool.Query(ctx, query, domain.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTokens(rows)
}

func (r *tokenRepository) Search(ctx context.Context, term string) (*domain.Token, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrNotFound
	}

	clauses := []string{"full_name ILIKE $1", "mobile ILIKE $1"}
	args := []any{"%" + term + "%"}
	if number, err := strconv.Atoi(term); err == nil {
		args = append(args, number)
		clauses = append(clauses, fmt.Sprintf("number=$%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT %s FROM tokens WHERE %s
        ORDER BY created_at DESC LIMIT 1`, tokenColumns, strings.Join(clauses, " OR "))
	return r.fetchSingle(ctx, query, args...)
}

func (r *tokenRepository) List(ctx context.Context, filter TokenFilter) ([]domain.Token, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		term := strings.TrimSpace(*filter.Search)
		args = append(args, "%"+term+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clause := fmt.Sprintf("(full_name ILIKE %s OR mobile ILIKE %s", placeholder, placeholder)
		if number, err := strconv.Atoi(term); err == nil {
			args = append(args, number)
			clause += fmt.Sprintf(" OR number=$%d", len(args))
		}
		clause += ")"
		clauses = append(clauses, clause)
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tokens WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tokens WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		tokenColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tokens, err := scanTokens(rows)
	if err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}

func (r *tokenRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Token, error) {
	token, err := r.scanRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepository) scanRow(row pgx.Row) (*domain.Token, error) {
	var token domain.Token
	if err := row.Scan(
		&token.ID,
		&token.TokenDate,
		&token.Number,
		&token.FullName,
		&token.Mobile,
		&token.Purpose,
		&token.Extra,
		&token.Status,
		&token.CounterName,
		&token.CreatedAt,
		&token.CalledAt,
		&token.ServedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func scanTokens(rows pgx.Rows) ([]domain.Token, error) {
	var result []domain.Token
	for rows.Next() {
		var token domain.Token
		if err := rows.Scan(
			&token.ID,
			&token.TokenDate,
			&token.Number,
			&token.FullName,
			&token.Mobile,
			&token.Purpose,
			&token.Extra,
			&token.Status,
			&token.CounterName,
			&token.CreatedAt,
			&token.CalledAt,
			&token.ServedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, token)
	}
	return result, rows.Err()
}
