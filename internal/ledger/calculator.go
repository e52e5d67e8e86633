// Package ledger derives viatico balances from the append-only movement
// history. Balance is never stored; it is always recomputed from the
// ledger so it cannot drift out of sync.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllowanceStore is the allowance persistence used by the calculator.
type AllowanceStore interface {
	Create(tx *sql.Tx, a *models.Allowance) error
	GetByID(ctx context.Context, id int64) (*models.Allowance, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Allowance, error)
	List(ctx context.Context) ([]*models.Allowance, error)
}

// MovementStore is the ledger persistence used by the calculator.
type MovementStore interface {
	Create(tx *sql.Tx, m *models.Movement) error
	ListByAllowance(ctx context.Context, allowanceID int64) ([]*repository.MovementWithCode, error)
	SumByAllowance(ctx context.Context, allowanceID int64) (assigned, spent decimal.Decimal, err error)
}

// UserStore resolves employees for allowance creation.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// TxRunner runs a function inside one store transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}

// BalanceSnapshot is the computed state of one allowance.
type BalanceSnapshot struct {
	AllowanceID     int64           `json:"Id"`
	UserID          int64           `json:"UsuarioId"`
	Description     string          `json:"Descripcion"`
	AssignedAmount  decimal.Decimal `json:"MontoAsignado"`
	SpentAmount     decimal.Decimal `json:"MontoGastado"`
	AvailableAmount decimal.Decimal `json:"SaldoDisponible"`
	ExpirationDate  time.Time       `json:"FechaVencimiento"`
	DaysRemaining   int             `json:"DiasRestantes"`
	AlertLevel      string          `json:"AlertaVencimiento"`
}

// MovementEntry is one history row for the audit view.
type MovementEntry struct {
	Date           time.Time       `json:"Fecha"`
	Kind           string          `json:"TipoMovimiento"`
	Amount         decimal.Decimal `json:"Monto"`
	Description    string          `json:"Descripcion"`
	SubmissionCode *string         `json:"CodigoRendicion,omitempty"`
}

// CreateAllowanceInput carries an admin allowance assignment.
type CreateAllowanceInput struct {
	UserID         int64
	AssignedAmount decimal.Decimal
	AssignmentDate time.Time
	ExpirationDate time.Time
	Description    string
}

// Calculator computes balance snapshots and records allowance
// assignments.
type Calculator struct {
	tx         TxRunner
	allowances AllowanceStore
	movements  MovementStore
	users      UserStore
	policy     AlertPolicy
	now        func() time.Time
	logger     *zap.Logger
}

// NewCalculator creates a balance calculator.
func NewCalculator(tx TxRunner, allowances AllowanceStore, movements MovementStore, users UserStore, policy AlertPolicy, logger *zap.Logger) *Calculator {
	return &Calculator{
		tx:         tx,
		allowances: allowances,
		movements:  movements,
		users:      users,
		policy:     policy,
		now:        time.Now,
		logger:     logger,
	}
}

// Balances returns one snapshot per allowance owned by the employee,
// soonest expiration first. An employee without allowances gets an empty
// slice, not an error.
func (c *Calculator) Balances(ctx context.Context, employeeID int64) ([]*BalanceSnapshot, error) {
	allowances, err := c.allowances.ListByUser(ctx, employeeID)
	if err != nil {
		c.logger.Error("Balance read failed", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, domain.ErrPersistence
	}
	return c.snapshots(ctx, allowances)
}

// AllBalances returns one snapshot per allowance across every employee,
// soonest expiration first. Feeds the admin overview.
func (c *Calculator) AllBalances(ctx context.Context) ([]*BalanceSnapshot, error) {
	allowances, err := c.allowances.List(ctx)
	if err != nil {
		c.logger.Error("Balance read failed", zap.Error(err))
		return nil, domain.ErrPersistence
	}
	return c.snapshots(ctx, allowances)
}

func (c *Calculator) snapshots(ctx context.Context, allowances []*models.Allowance) ([]*BalanceSnapshot, error) {
	today := truncateToDay(c.now())
	snapshots := make([]*BalanceSnapshot, 0, len(allowances))
	for _, a := range allowances {
		assigned, spent, err := c.movements.SumByAllowance(ctx, a.ID)
		if err != nil {
			c.logger.Error("Movement sum failed", zap.Int64("allowance_id", a.ID), zap.Error(err))
			return nil, domain.ErrPersistence
		}

		days := daysBetween(today, truncateToDay(a.ExpirationDate))
		snapshots = append(snapshots, &BalanceSnapshot{
			AllowanceID:     a.ID,
			UserID:          a.UserID,
			Description:     a.Description,
			AssignedAmount:  assigned,
			SpentAmount:     spent,
			AvailableAmount: assigned.Sub(spent),
			ExpirationDate:  a.ExpirationDate,
			DaysRemaining:   days,
			AlertLevel:      c.policy.Level(days),
		})
	}
	return snapshots, nil
}

// Movements returns the history of one allowance, newest first. Only the
// owning employee or an admin may read it; anyone else gets the same
// answer as for a missing allowance.
func (c *Calculator) Movements(ctx context.Context, principal auth.Principal, allowanceID int64) ([]*MovementEntry, error) {
	allowance, err := c.allowances.GetByID(ctx, allowanceID)
	if err != nil {
		c.logger.Error("Allowance read failed", zap.Int64("allowance_id", allowanceID), zap.Error(err))
		return nil, domain.ErrPersistence
	}
	if allowance == nil || !principal.CanActFor(allowance.UserID) {
		return nil, domain.ErrNotFound
	}

	movements, err := c.movements.ListByAllowance(ctx, allowanceID)
	if err != nil {
		c.logger.Error("Movement read failed", zap.Int64("allowance_id", allowanceID), zap.Error(err))
		return nil, domain.ErrPersistence
	}

	entries := make([]*MovementEntry, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, &MovementEntry{
			Date:           m.Date,
			Kind:           m.Kind,
			Amount:         m.Amount,
			Description:    m.Description,
			SubmissionCode: m.SubmissionCode,
		})
	}
	return entries, nil
}

// CreateAllowance validates and persists an allowance together with its
// initial Assignment movement, atomically.
func (c *Calculator) CreateAllowance(ctx context.Context, in CreateAllowanceInput) (*models.Allowance, error) {
	if !in.AssignedAmount.IsPositive() {
		return nil, domain.NewValidation("monto_asignado", "assigned amount must be greater than zero")
	}
	if in.ExpirationDate.Before(in.AssignmentDate) {
		return nil, domain.NewValidation("fecha_vencimiento", "expiration date must not precede assignment date")
	}

	user, err := c.users.GetByID(ctx, in.UserID)
	if err != nil {
		c.logger.Error("User read failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, domain.ErrPersistence
	}
	if user == nil || !user.Active {
		return nil, domain.NewValidation("usuario_id", "employee %d does not exist or is inactive", in.UserID)
	}

	allowance := &models.Allowance{
		UserID:         in.UserID,
		AssignedAmount: in.AssignedAmount,
		AssignmentDate: in.AssignmentDate,
		ExpirationDate: in.ExpirationDate,
		Description:    in.Description,
	}

	err = c.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := c.allowances.Create(tx, allowance); err != nil {
			return err
		}
		return c.movements.Create(tx, &models.Movement{
			AllowanceID: allowance.ID,
			Kind:        models.MovementAssignment,
			Amount:      in.AssignedAmount,
			Date:        c.now(),
			Description: "Asignación de viático",
		})
	})
	if err != nil {
		c.logger.Error("Allowance creation failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		return nil, domain.ErrPersistence
	}

	c.logger.Info("Allowance created",
		zap.Int64("allowance_id", allowance.ID),
		zap.Int64("user_id", in.UserID),
		zap.String("amount", in.AssignedAmount.String()))
	return allowance, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
