package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmissionRepository handles rendicion and gasto database operations.
// Header, line items and the optional ledger debit are only ever written
// together inside one transaction owned by the submission coordinator.
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{db: db, logger: logger}
}

// InsertHeader inserts the submission header within tx and assigns its id.
// The code and total are placeholders until set later in the same
// transaction.
func (r *SubmissionRepository) InsertHeader(tx *sql.Tx, s *models.Submission) error {
	result, err := tx.Exec(
		"INSERT INTO rendiciones (empleado_id, estado, estado_personalizado, observaciones, total) VALUES (?, ?, ?, ?, ?)",
		s.EmployeeID, s.Status, s.CustomStatus, s.Notes, decimal.Zero.String(),
	)
	if err != nil {
		r.logger.Error("Failed to insert submission header", zap.Int64("employee_id", s.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = id
	return nil
}

// SetCode records the derived human-readable code within tx.
func (r *SubmissionRepository) SetCode(tx *sql.Tx, id int64, code string) error {
	if _, err := tx.Exec("UPDATE rendiciones SET codigo = ? WHERE id = ?", code, id); err != nil {
		r.logger.Error("Failed to set submission code", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set submission code: %w", err)
	}
	return nil
}

// SetTotal records the computed total within tx.
func (r *SubmissionRepository) SetTotal(tx *sql.Tx, id int64, total decimal.Decimal) error {
	if _, err := tx.Exec("UPDATE rendiciones SET total = ? WHERE id = ?", total.String(), id); err != nil {
		r.logger.Error("Failed to set submission total", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set submission total: %w", err)
	}
	return nil
}

// InsertLineItem inserts one gasto within tx, preserving its input order.
func (r *SubmissionRepository) InsertLineItem(tx *sql.Tx, li *models.LineItem) error {
	result, err := tx.Exec(
		"INSERT INTO gastos (rendicion_id, tipo_gasto_id, cliente_id, sucursal_id, fecha, descripcion, importe, itbis, orden) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		li.SubmissionID, li.ExpenseTypeID, li.ClientID, li.BranchID,
		li.Date.Format("2006-01-02"), li.Description,
		li.BaseAmount.String(), li.TaxAmount.String(), li.Order,
	)
	if err != nil {
		r.logger.Error("Failed to insert line item", zap.Int64("submission_id", li.SubmissionID), zap.Error(err))
		return fmt.Errorf("failed to insert line item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	li.ID = id
	return nil
}

const submissionColumns = "id, codigo, empleado_id, estado, estado_personalizado, observaciones, total, fecha_creacion"

func scanSubmission(row interface{ Scan(...interface{}) error }) (*models.Submission, error) {
	var s models.Submission
	var code sql.NullString
	var customStatus, notes sql.NullString
	var total string
	if err := row.Scan(&s.ID, &code, &s.EmployeeID, &s.Status, &customStatus, &notes, &total, &s.CreatedAt); err != nil {
		return nil, err
	}
	if code.Valid {
		s.Code = code.String
	}
	if customStatus.Valid {
		s.CustomStatus = &customStatus.String
	}
	if notes.Valid {
		s.Notes = &notes.String
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
	}
	s.Total = parsed
	return &s, nil
}

// GetByID retrieves a submission header. Returns (nil, nil) when absent.
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM rendiciones WHERE id = ?", id)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get submission", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// SubmissionSummary is a history row: the header plus display fields.
type SubmissionSummary struct {
	models.Submission
	EmployeeName string
	ItemCount    int
}

// List returns submission history newest first. When employeeID is
// non-nil only that employee's submissions are returned.
func (r *SubmissionRepository) List(ctx context.Context, employeeID *int64) ([]*SubmissionSummary, error) {
	query := `
		SELECT r.id, r.codigo, r.empleado_id, r.estado, r.estado_personalizado, r.observaciones, r.total, r.fecha_creacion,
			u.nombre_completo, COUNT(g.id)
		FROM rendiciones r
		JOIN usuarios u ON u.id = r.empleado_id
		LEFT JOIN gastos g ON g.rendicion_id = r.id
	`
	var args []interface{}
	if employeeID != nil {
		query += " WHERE r.empleado_id = ?"
		args = append(args, *employeeID)
	}
	query += " GROUP BY r.id ORDER BY r.fecha_creacion DESC, r.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var summaries []*SubmissionSummary
	for rows.Next() {
		var s SubmissionSummary
		var code sql.NullString
		var customStatus, notes sql.NullString
		var total string
		if err := rows.Scan(&s.ID, &code, &s.EmployeeID, &s.Status, &customStatus, &notes, &total, &s.CreatedAt,
			&s.EmployeeName, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if code.Valid {
			s.Code = code.String
		}
		if customStatus.Valid {
			s.CustomStatus = &customStatus.String
		}
		if notes.Valid {
			s.Notes = &notes.String
		}
		parsed, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
		}
		s.Total = parsed
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// LineItemDetail is a gasto joined with reference display names for
// detail views and export.
type LineItemDetail struct {
	models.LineItem
	ExpenseTypeName string
	AccountCode     string
	ClientName      string
	BranchName      *string
}

// GetLineItems returns the line items of one submission in their original
// input order.
func (r *SubmissionRepository) GetLineItems(ctx context.Context, submissionID int64) ([]*LineItemDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.rendicion_id, g.tipo_gasto_id, g.cliente_id, g.sucursal_id, g.fecha, g.descripcion, g.importe, g.itbis, g.orden,
			t.nombre, t.cuenta, c.nombre, s.nombre
		FROM gastos g
		JOIN tipos_gastos t ON t.id = g.tipo_gasto_id
		JOIN clientes c ON c.id = g.cliente_id
		LEFT JOIN sucursales s ON s.id = g.sucursal_id
		WHERE g.rendicion_id = ?
		ORDER BY g.orden
	`, submissionID)
	if err != nil {
		r.logger.Error("Failed to get line items", zap.Int64("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []*LineItemDetail
	for rows.Next() {
		var li LineItemDetail
		var branchID sql.NullInt64
		var base, tax string
		var branchName sql.NullString
		if err := rows.Scan(&li.ID, &li.SubmissionID, &li.ExpenseTypeID, &li.ClientID, &branchID,
			&li.Date, &li.Description, &base, &tax, &li.Order,
			&li.ExpenseTypeName, &li.AccountCode, &li.ClientName, &branchName); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		if branchID.Valid {
			li.BranchID = &branchID.Int64
		}
		if branchName.Valid {
			li.BranchName = &branchName.String
		}
		parsedBase, err := decimal.NewFromString(base)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", base, err)
		}
		parsedTax, err := decimal.NewFromString(tax)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", tax, err)
		}
		li.BaseAmount = parsedBase
		li.TaxAmount = parsedTax
		items = append(items, &li)
	}
	return items, rows.Err()
}
