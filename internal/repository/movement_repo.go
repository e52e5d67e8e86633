package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MovementRepository handles the append-only viatico ledger. There are no
// update or delete operations; corrections would be new movements.
type MovementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMovementRepository creates a new movement repository.
func NewMovementRepository(db *sql.DB, logger *zap.Logger) *MovementRepository {
	return &MovementRepository{db: db, logger: logger}
}

// Create appends a movement within tx and assigns its id.
func (r *MovementRepository) Create(tx *sql.Tx, m *models.Movement) error {
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	result, err := tx.Exec(
		"INSERT INTO movimientos_viaticos (viatico_id, tipo_movimiento, monto, fecha, rendicion_id, descripcion) VALUES (?, ?, ?, ?, ?, ?)",
		m.AllowanceID, m.Kind, m.Amount.String(), m.Date, m.SubmissionID, m.Description,
	)
	if err != nil {
		r.logger.Error("Failed to create movement",
			zap.Int64("allowance_id", m.AllowanceID),
			zap.String("kind", m.Kind),
			zap.Error(err))
		return fmt.Errorf("failed to create movement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	m.ID = id
	return nil
}

// MovementWithCode is a ledger entry joined with the code of the linked
// submission, for the audit/history view.
type MovementWithCode struct {
	models.Movement
	SubmissionCode *string
}

// ListByAllowance returns the movement history of one allowance, newest
// first.
func (r *MovementRepository) ListByAllowance(ctx context.Context, allowanceID int64) ([]*MovementWithCode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.viatico_id, m.tipo_movimiento, m.monto, m.fecha, m.rendicion_id, m.descripcion, r.codigo
		FROM movimientos_viaticos m
		LEFT JOIN rendiciones r ON r.id = m.rendicion_id
		WHERE m.viatico_id = ?
		ORDER BY m.fecha DESC, m.id DESC
	`, allowanceID)
	if err != nil {
		r.logger.Error("Failed to list movements", zap.Int64("allowance_id", allowanceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	var movements []*MovementWithCode
	for rows.Next() {
		var m MovementWithCode
		var amount string
		var submissionID sql.NullInt64
		var code sql.NullString
		if err := rows.Scan(&m.ID, &m.AllowanceID, &m.Kind, &amount, &m.Date, &submissionID, &m.Description, &code); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		m.Amount = parsed
		if submissionID.Valid {
			m.SubmissionID = &submissionID.Int64
		}
		if code.Valid {
			m.SubmissionCode = &code.String
		}
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

// SumByAllowance returns assigned and spent totals computed from the
// ledger, in one pass.
func (r *MovementRepository) SumByAllowance(ctx context.Context, allowanceID int64) (assigned, spent decimal.Decimal, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT tipo_movimiento, monto FROM movimientos_viaticos WHERE viatico_id = ?", allowanceID)
	if err != nil {
		r.logger.Error("Failed to sum movements", zap.Int64("allowance_id", allowanceID), zap.Error(err))
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum movements: %w", err)
	}
	defer rows.Close()

	assigned, spent = decimal.Zero, decimal.Zero
	for rows.Next() {
		var kind, amount string
		if err := rows.Scan(&kind, &amount); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to scan movement: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		switch kind {
		case models.MovementAssignment:
			assigned = assigned.Add(parsed)
		case models.MovementExpense:
			spent = spent.Add(parsed)
		}
	}
	return assigned, spent, rows.Err()
}
