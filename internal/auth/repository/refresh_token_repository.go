package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	authdomain "github.com/applyflow/auth-service/internal/auth/domain"
	"github.com/applyflow/auth-service/internal/common/db"
	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token authdomain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (authdomain.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type PgRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgRefreshTokenRepository(pool *pgxpool.Pool) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{pool: pool}
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO refresh_tokens (id, token, user_id, expires_at, device_info, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`,
		token.ID,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.DeviceInfo,
		token.IPAddress,
		token.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return commonerrors.ErrRefreshTokenExists
		}
	}
	return db.HandleExecError(err, "create refresh token", start)
}

func (r *PgRefreshTokenRepository) FindByToken(ctx context.Context, token string) (authdomain.RefreshToken, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, token, user_id, expires_at, COALESCE(device_info, ''), COALESCE(ip_address, ''), created_at
		 FROM refresh_tokens
		 WHERE token = $1`,
		token,
	)

	var stored authdomain.RefreshToken
	err := row.Scan(
		&stored.ID,
		&stored.Token,
		&stored.UserID,
		&stored.ExpiresAt,
		&stored.DeviceInfo,
		&stored.IPAddress,
		&stored.CreatedAt,
	)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "find refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return stored, nil
}

// DeleteByToken reports ErrRefreshTokenNotFound when no row was deleted, so a
// concurrent rotation of the same token can only succeed once.
func (r *PgRefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE token = $1`,
		token,
	)
	if err := db.HandleExecError(err, "delete refresh token", start); err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *PgRefreshTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`,
		userID,
	)
	return db.HandleExecError(err, "delete refresh tokens by user", start)
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < NOW()`,
	)
	if err != nil {
		return 0, db.HandleExecError(err, "delete expired refresh tokens", start)
	}
	db.MeasureQueryDuration("delete expired refresh tokens", start)
	return res.RowsAffected(), nil
}

var ErrRefreshTokenNotFound = pgx.ErrNoRows
