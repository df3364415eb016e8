package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/logger"
)

var userColumns = []string{"id", "display_name", "role", "external_number", "created_at"}

// UserRepository reads the identities provisioned by the identity provider
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u := &models.User{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.DisplayName, &u.Role, &u.ExternalNumber, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		logger.Error().Err(err).Str("userID", id.String()).Msg("Error getting user by ID")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// Upsert inserts u or refreshes its display name and number. Used when seeding.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	sql, args, err := psql.Insert("users").
		Columns("id", "display_name", "role", "external_number").
		Values(u.ID, u.DisplayName, u.Role, u.ExternalNumber).
		Suffix("ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, external_number = EXCLUDED.external_number RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&u.CreatedAt); err != nil {
		logger.Error().Err(err).Str("userID", u.ID.String()).Msg("Error upserting user")
		return fmt.Errorf("error upserting user: %w", err)
	}
	return nil
}
