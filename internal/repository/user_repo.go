package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"go.uber.org/zap"
)

// UserRepository handles usuario database operations.
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = "id, nombre_completo, username, password_hash, role, activo, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var active int
	if err := row.Scan(&u.ID, &u.FullName, &u.Username, &u.PasswordHash, &u.Role, &active, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Active = active != 0
	return &u, nil
}

// GetByID retrieves a user by id. Returns (nil, nil) when absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM usuarios WHERE id = ?", id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves a user by login name. Returns (nil, nil) when absent.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM usuarios WHERE username = ?", username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns all users ordered by full name.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM usuarios ORDER BY nombre_completo")
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user and assigns its id.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO usuarios (nombre_completo, username, password_hash, role, activo) VALUES (?, ?, ?, ?, ?)",
		u.FullName, u.Username, u.PasswordHash, u.Role, boolToInt(u.Active),
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("username", u.Username), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	return nil
}

// Update rewrites mutable user fields. The password hash is only replaced
// when non-empty.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	var err error
	if u.PasswordHash != "" {
		_, err = r.db.ExecContext(ctx,
			"UPDATE usuarios SET nombre_completo = ?, username = ?, password_hash = ?, role = ?, activo = ? WHERE id = ?",
			u.FullName, u.Username, u.PasswordHash, u.Role, boolToInt(u.Active), u.ID,
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			"UPDATE usuarios SET nombre_completo = ?, username = ?, role = ?, activo = ? WHERE id = ?",
			u.FullName, u.Username, u.Role, boolToInt(u.Active), u.ID,
		)
	}
	if err != nil {
		r.logger.Error("Failed to update user", zap.Int64("id", u.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user. Fails on FK restriction if the user owns
// allowances or submissions.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM usuarios WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete user", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
