package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nvelas/wanderlog/backend/internal/models"
)

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			first_name    VARCHAR(100) NOT NULL,
			last_name     VARCHAR(100) NOT NULL,
			mobile_number VARCHAR(32)  NOT NULL,
			email         VARCHAR(255) UNIQUE NOT NULL,
			password      VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

// ErrDuplicateEmail signals a unique-constraint hit on users.email.
var ErrDuplicateEmail = errors.New("store: email already registered")

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	var created models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, mobile_number, email, password)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, first_name, last_name, mobile_number, email, created_at`,
		u.FirstName, u.LastName, u.MobileNumber, u.Email, u.Password,
	).Scan(&created.ID, &created.FirstName, &created.LastName,
		&created.MobileNumber, &created.Email, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, mobile_number, email, password, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.MobileNumber, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user. The password column is not selected, so it
// can never reach a response.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, first_name, last_name, mobile_number, email, created_at
		 FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName,
			&u.MobileNumber, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
