package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"go.uber.org/zap"
)

// ClientRepository handles cliente database operations.
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sql.DB, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

// GetByID retrieves a client by id. Returns (nil, nil) when absent.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	var c models.Client
	err := r.db.QueryRowContext(ctx, "SELECT id, nombre FROM clientes WHERE id = ?", id).
		Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// List returns all clients ordered by name.
func (r *ClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nombre FROM clientes ORDER BY nombre")
	if err != nil {
		r.logger.Error("Failed to list clients", zap.Error(err))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

// Create inserts a client and assigns its id.
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	result, err := r.db.ExecContext(ctx, "INSERT INTO clientes (nombre) VALUES (?)", c.Name)
	if err != nil {
		r.logger.Error("Failed to create client", zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// Update renames a client.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	_, err := r.db.ExecContext(ctx, "UPDATE clientes SET nombre = ? WHERE id = ?", c.Name, c.ID)
	if err != nil {
		r.logger.Error("Failed to update client", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// Delete removes a client. Fails on FK restriction when referenced by
// branches or line items.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM clientes WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete client", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// BranchRepository handles sucursal database operations.
type BranchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBranchRepository creates a new branch repository.
func NewBranchRepository(db *sql.DB, logger *zap.Logger) *BranchRepository {
	return &BranchRepository{db: db, logger: logger}
}

// GetByID retrieves a branch by id. Returns (nil, nil) when absent.
func (r *BranchRepository) GetByID(ctx context.Context, id int64) (*models.Branch, error) {
	var b models.Branch
	err := r.db.QueryRowContext(ctx,
		"SELECT id, cliente_id, nombre, ubicacion FROM sucursales WHERE id = ?", id).
		Scan(&b.ID, &b.ClientID, &b.Name, &b.Location)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get branch", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &b, nil
}

// List returns all branches ordered by client then name.
func (r *BranchRepository) List(ctx context.Context) ([]*models.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, cliente_id, nombre, ubicacion FROM sucursales ORDER BY cliente_id, nombre")
	if err != nil {
		r.logger.Error("Failed to list branches", zap.Error(err))
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()
	return collectBranches(rows)
}

// ListByClient returns the branches of one client.
func (r *BranchRepository) ListByClient(ctx context.Context, clientID int64) ([]*models.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, cliente_id, nombre, ubicacion FROM sucursales WHERE cliente_id = ? ORDER BY nombre", clientID)
	if err != nil {
		r.logger.Error("Failed to list branches by client", zap.Int64("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()
	return collectBranches(rows)
}

func collectBranches(rows *sql.Rows) ([]*models.Branch, error) {
	var branches []*models.Branch
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.ClientID, &b.Name, &b.Location); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, &b)
	}
	return branches, rows.Err()
}

// Create inserts a branch and assigns its id.
func (r *BranchRepository) Create(ctx context.Context, b *models.Branch) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO sucursales (cliente_id, nombre, ubicacion) VALUES (?, ?, ?)",
		b.ClientID, b.Name, b.Location,
	)
	if err != nil {
		r.logger.Error("Failed to create branch", zap.Error(err))
		return fmt.Errorf("failed to create branch: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// Update rewrites a branch.
func (r *BranchRepository) Update(ctx context.Context, b *models.Branch) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sucursales SET cliente_id = ?, nombre = ?, ubicacion = ? WHERE id = ?",
		b.ClientID, b.Name, b.Location, b.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update branch", zap.Int64("id", b.ID), zap.Error(err))
		return fmt.Errorf("failed to update branch: %w", err)
	}
	return nil
}

// Delete removes a branch.
func (r *BranchRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sucursales WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete branch", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete branch: %w", err)
	}
	return nil
}

// ExpenseTypeRepository handles tipo de gasto database operations.
type ExpenseTypeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseTypeRepository creates a new expense type repository.
func NewExpenseTypeRepository(db *sql.DB, logger *zap.Logger) *ExpenseTypeRepository {
	return &ExpenseTypeRepository{db: db, logger: logger}
}

// GetByID retrieves an expense type by id. Returns (nil, nil) when absent.
func (r *ExpenseTypeRepository) GetByID(ctx context.Context, id int64) (*models.ExpenseType, error) {
	var e models.ExpenseType
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, cuenta FROM tipos_gastos WHERE id = ?", id).
		Scan(&e.ID, &e.Name, &e.AccountCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense type", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense type: %w", err)
	}
	return &e, nil
}

// List returns all expense types ordered by name.
func (r *ExpenseTypeRepository) List(ctx context.Context) ([]*models.ExpenseType, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nombre, cuenta FROM tipos_gastos ORDER BY nombre")
	if err != nil {
		r.logger.Error("Failed to list expense types", zap.Error(err))
		return nil, fmt.Errorf("failed to list expense types: %w", err)
	}
	defer rows.Close()

	var types []*models.ExpenseType
	for rows.Next() {
		var e models.ExpenseType
		if err := rows.Scan(&e.ID, &e.Name, &e.AccountCode); err != nil {
			return nil, fmt.Errorf("failed to scan expense type: %w", err)
		}
		types = append(types, &e)
	}
	return types, rows.Err()
}

// Create inserts an expense type and assigns its id.
func (r *ExpenseTypeRepository) Create(ctx context.Context, e *models.ExpenseType) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO tipos_gastos (nombre, cuenta) VALUES (?, ?)", e.Name, e.AccountCode)
	if err != nil {
		r.logger.Error("Failed to create expense type", zap.Error(err))
		return fmt.Errorf("failed to create expense type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// Update rewrites an expense type.
func (r *ExpenseTypeRepository) Update(ctx context.Context, e *models.ExpenseType) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tipos_gastos SET nombre = ?, cuenta = ? WHERE id = ?", e.Name, e.AccountCode, e.ID)
	if err != nil {
		r.logger.Error("Failed to update expense type", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense type: %w", err)
	}
	return nil
}

// Delete removes an expense type.
func (r *ExpenseTypeRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tipos_gastos WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete expense type", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete expense type: %w", err)
	}
	return nil
}
