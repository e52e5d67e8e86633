package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllowanceRepository handles viatico database operations. Allowance rows
// are written once and never updated; balances derive from the movement
// ledger.
type AllowanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAllowanceRepository creates a new allowance repository.
func NewAllowanceRepository(db *sql.DB, logger *zap.Logger) *AllowanceRepository {
	return &AllowanceRepository{db: db, logger: logger}
}

const allowanceColumns = "id, usuario_id, monto_asignado, fecha_asignacion, fecha_vencimiento, descripcion, created_at"

func scanAllowance(row interface{ Scan(...interface{}) error }) (*models.Allowance, error) {
	var a models.Allowance
	var amount string
	if err := row.Scan(&a.ID, &a.UserID, &amount, &a.AssignmentDate, &a.ExpirationDate, &a.Description, &a.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	a.AssignedAmount = parsed
	return &a, nil
}

// Create inserts an allowance within tx and assigns its id.
func (r *AllowanceRepository) Create(tx *sql.Tx, a *models.Allowance) error {
	result, err := tx.Exec(
		"INSERT INTO viaticos (usuario_id, monto_asignado, fecha_asignacion, fecha_vencimiento, descripcion) VALUES (?, ?, ?, ?, ?)",
		a.UserID,
		a.AssignedAmount.String(),
		a.AssignmentDate.Format("2006-01-02"),
		a.ExpirationDate.Format("2006-01-02"),
		a.Description,
	)
	if err != nil {
		r.logger.Error("Failed to create allowance", zap.Int64("user_id", a.UserID), zap.Error(err))
		return fmt.Errorf("failed to create allowance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	return nil
}

// GetByID retrieves an allowance by id. Returns (nil, nil) when absent.
func (r *AllowanceRepository) GetByID(ctx context.Context, id int64) (*models.Allowance, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+allowanceColumns+" FROM viaticos WHERE id = ?", id)
	a, err := scanAllowance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get allowance", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get allowance: %w", err)
	}
	return a, nil
}

// ListByUser returns the allowances of one employee, soonest expiration
// first so the UI can triage.
func (r *AllowanceRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Allowance, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+allowanceColumns+" FROM viaticos WHERE usuario_id = ? ORDER BY fecha_vencimiento", userID)
	if err != nil {
		r.logger.Error("Failed to list allowances", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list allowances: %w", err)
	}
	defer rows.Close()

	var allowances []*models.Allowance
	for rows.Next() {
		a, err := scanAllowance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allowance: %w", err)
		}
		allowances = append(allowances, a)
	}
	return allowances, rows.Err()
}

// List returns every allowance, soonest expiration first.
func (r *AllowanceRepository) List(ctx context.Context) ([]*models.Allowance, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+allowanceColumns+" FROM viaticos ORDER BY fecha_vencimiento")
	if err != nil {
		r.logger.Error("Failed to list allowances", zap.Error(err))
		return nil, fmt.Errorf("failed to list allowances: %w", err)
	}
	defer rows.Close()

	var allowances []*models.Allowance
	for rows.Next() {
		a, err := scanAllowance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allowance: %w", err)
		}
		allowances = append(allowances, a)
	}
	return allowances, rows.Err()
}
