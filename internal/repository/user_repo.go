package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"majji-market/internal/domain"
)

// ErrDuplicateEmail se devuelve cuando el email ya existe en la tabla users.
var ErrDuplicateEmail = errors.New("duplicate email")

const pgUniqueViolation = "23505"

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByAuth(ctx context.Context, provider, subject string) (domain.User, error)
	UpdateOTP(ctx context.Context, id, otpHash string, otpExpiresAt time.Time) error
	VerifyEmail(ctx context.Context, id string, verifiedAt time.Time) error
	LinkOAuth(ctx context.Context, id, provider, subject string) error
	UpdateProfile(ctx context.Context, user domain.User) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, name, account_type, company, auth_provider, auth_subject,
	password_hash, verified, email_verified_at, needs_onboarding, otp_code_hash,
	otp_expires_at, created_at, updated_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, name, account_type, company, auth_provider, auth_subject,
			password_hash, verified, email_verified_at, needs_onboarding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		nullableAccountType(user.AccountType),
		user.Company,
		user.AuthProvider,
		user.AuthSubject,
		user.PasswordHash,
		user.Verified,
		user.EmailVerifiedAt,
		user.NeedsOnboarding,
		user.CreatedAt,
		user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "users_email_key" {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgUserRepository) GetByAuth(ctx context.Context, provider, subject string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE auth_provider = $1 AND auth_subject = $2`, provider, subject)
}

func (r *PgUserRepository) UpdateOTP(ctx context.Context, id, otpHash string, otpExpiresAt time.Time) error {
	const query = `
		UPDATE users SET otp_code_hash = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, otpHash, otpExpiresAt)
}

func (r *PgUserRepository) VerifyEmail(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `
		UPDATE users SET email_verified_at = $2, otp_code_hash = '', otp_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, verifiedAt)
}

func (r *PgUserRepository) LinkOAuth(ctx context.Context, id, provider, subject string) error {
	const query = `
		UPDATE users SET auth_provider = $2, auth_subject = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, provider, subject)
}

// UpdateProfile persiste los campos editables del perfil.
func (r *PgUserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users SET name = $2, account_type = $3, company = $4, needs_onboarding = $5, updated_at = $6
		WHERE id = $1
	`
	return r.execOne(ctx, query,
		user.ID,
		user.Name,
		nullableAccountType(user.AccountType),
		user.Company,
		user.NeedsOnboarding,
		user.UpdatedAt,
	)
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var (
		u           domain.User
		accountType *string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&accountType,
		&u.Company,
		&u.AuthProvider,
		&u.AuthSubject,
		&u.PasswordHash,
		&u.Verified,
		&u.EmailVerifiedAt,
		&u.NeedsOnboarding,
		&u.OtpCodeHash,
		&u.OtpExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if accountType != nil {
		u.AccountType = domain.AccountType(*accountType)
	}
	return u, nil
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func nullableAccountType(t domain.AccountType) *string {
	if t == "" {
		return nil
	}
	s := string(t)
	return &s
}
