package repository

import (
	"context"
	"database/sql"

	"gotix/internal/database"
	"gotix/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

func (r *UserRepository) Create(ctx context.Context, user *models.User) (bool, error) {
	query := `
		INSERT INTO users (name, email, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.Latitude,
		user.Longitude,
	).Scan(&user.ID, &user.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return false, nil
	}

	return err == nil, err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, latitude, longitude, created_at
		FROM users
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Latitude,
		&user.Longitude,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}
