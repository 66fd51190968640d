package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LokalDeals/lokaldeals_api/internal/models"
)

// UserRepository provides data access methods for the users table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByID finds a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail finds a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	return err
}

// Delete removes a user. Used for best-effort rollback when company
// persistence fails after the identity record was created.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// DeleteOrphanedBefore removes company-role users created before cutoff that
// never got a Company row, returning how many were swept.
func (r *UserRepository) DeleteOrphanedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users u
		 WHERE u.role = $1
		   AND u.created_at < $2
		   AND NOT EXISTS (SELECT 1 FROM companies c WHERE c.owner_user_id = u.id)`,
		models.RoleCompany, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
