package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/video-service/internal/domain"
)

// ErrDuplicateUser is returned when the roll number or email is taken.
var ErrDuplicateUser = errors.New("user with this roll number or email already exists")

// ErrStoreUnavailable is returned by every method when no pool was configured.
var ErrStoreUnavailable = errors.New("user store not configured")

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByRollNo(ctx context.Context, rollNo string) (*domain.User, error)
	ExistsByRollNoOrEmail(ctx context.Context, rollNo, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation. A nil pool
// yields a repository whose methods fail with ErrStoreUnavailable.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, roll_no, email, password_hash, first_name, last_name, role,
        branch, course, year, section, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (roll_no, email, password_hash, first_name, last_name, role, branch, course, year, section)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at`

	if r.pool == nil {
		return ErrStoreUnavailable
	}
	err := r.pool.QueryRow(ctx, query,
		user.RollNo,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role.String(),
		user.Branch,
		user.Course,
		user.Year,
		user.Section,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateUser
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByRollNo(ctx context.Context, rollNo string) (*domain.User, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE roll_no=$1`
	return scanUser(r.pool.QueryRow(ctx, query, rollNo))
}

func (r *userRepository) ExistsByRollNoOrEmail(ctx context.Context, rollNo, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE roll_no=$1 OR email=$2)`

	if r.pool == nil {
		return false, ErrStoreUnavailable
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, query, rollNo, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const query = `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`
	if r.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
		year *int16
	)
	if err := row.Scan(
		&user.ID,
		&user.RollNo,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&role,
		&user.Branch,
		&user.Course,
		&year,
		&user.Section,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Role = parsed
	if year != nil {
		y := int(*year)
		user.Year = &y
	}
	return &user, nil
}
