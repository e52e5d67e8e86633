// Package submission implements the reimbursement-submission transaction:
// header, line items and the optional viatico debit persist as one unit or
// not at all.
package submission

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the submission persistence used by the coordinator.
type Store interface {
	InsertHeader(tx *sql.Tx, s *models.Submission) error
	SetCode(tx *sql.Tx, id int64, code string) error
	SetTotal(tx *sql.Tx, id int64, total decimal.Decimal) error
	InsertLineItem(tx *sql.Tx, li *models.LineItem) error
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	List(ctx context.Context, employeeID *int64) ([]*repository.SubmissionSummary, error)
	GetLineItems(ctx context.Context, submissionID int64) ([]*repository.LineItemDetail, error)
}

// MovementStore appends the ledger debit for allowance-linked submissions.
type MovementStore interface {
	Create(tx *sql.Tx, m *models.Movement) error
}

// AllowanceStore resolves the optional allowance to debit.
type AllowanceStore interface {
	GetByID(ctx context.Context, id int64) (*models.Allowance, error)
}

// Lookups resolves reference data during validation.
type Lookups interface {
	GetEmployee(ctx context.Context, id int64) (*models.User, error)
	GetExpenseType(ctx context.Context, id int64) (*models.ExpenseType, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	GetBranch(ctx context.Context, id int64) (*models.Branch, error)
}

// TxRunner runs a function inside one store transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}

// LineItemInput is one expense row of an incoming submission. Fields are
// explicit and typed; unknown or mistyped request fields are rejected at
// the HTTP boundary.
type LineItemInput struct {
	ExpenseTypeID int64
	ClientID      int64
	BranchID      *int64
	Date          time.Time
	Description   string
	BaseAmount    decimal.Decimal
	TaxAmount     decimal.Decimal
}

// CreateInput carries a full submission request.
type CreateInput struct {
	EmployeeID   int64
	Items        []LineItemInput
	Status       string
	CustomStatus *string
	Notes        *string
	AllowanceID  *int64
}

// CreateResult identifies the persisted submission.
type CreateResult struct {
	ID   int64
	Code string
}

// Detail is a submission header with its ordered line items, for display
// and export. EmployeeID on the header is the owner used for access
// checks.
type Detail struct {
	Submission   *models.Submission
	EmployeeName string
	Items        []*repository.LineItemDetail
}

// Coordinator validates and atomically persists reimbursement
// submissions.
type Coordinator struct {
	tx         TxRunner
	store      Store
	movements  MovementStore
	allowances AllowanceStore
	lookups    Lookups
	logger     *zap.Logger
}

// NewCoordinator creates a submission coordinator.
func NewCoordinator(tx TxRunner, store Store, movements MovementStore, allowances AllowanceStore, lookups Lookups, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		tx:         tx,
		store:      store,
		movements:  movements,
		allowances: allowances,
		lookups:    lookups,
		logger:     logger,
	}
}

// Create validates in, then persists header, line items and the optional
// allowance debit in one transaction. Validation failures name the first
// violated rule and never touch the store; any failure inside the
// transaction rolls everything back.
func (c *Coordinator) Create(ctx context.Context, principal auth.Principal, in CreateInput) (*CreateResult, error) {
	if !principal.CanActFor(in.EmployeeID) {
		return nil, domain.ErrUnauthorized
	}

	if err := c.validate(ctx, in); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range in.Items {
		total = total.Add(item.BaseAmount.Add(item.TaxAmount))
	}

	status := in.Status
	if status == "" {
		status = models.StatusImplementation
	}

	header := &models.Submission{
		EmployeeID:   in.EmployeeID,
		Status:       status,
		CustomStatus: in.CustomStatus,
		Notes:        in.Notes,
	}

	var code string
	err := c.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := c.store.InsertHeader(tx, header); err != nil {
			return err
		}

		code = GenerateCode(header.ID)
		if err := c.store.SetCode(tx, header.ID, code); err != nil {
			return err
		}

		for i, item := range in.Items {
			li := &models.LineItem{
				SubmissionID:  header.ID,
				ExpenseTypeID: item.ExpenseTypeID,
				ClientID:      item.ClientID,
				BranchID:      item.BranchID,
				Date:          item.Date,
				Description:   item.Description,
				BaseAmount:    item.BaseAmount,
				TaxAmount:     item.TaxAmount,
				Order:         i,
			}
			if err := c.store.InsertLineItem(tx, li); err != nil {
				return err
			}
		}

		if in.AllowanceID != nil {
			submissionID := header.ID
			if err := c.movements.Create(tx, &models.Movement{
				AllowanceID:  *in.AllowanceID,
				Kind:         models.MovementExpense,
				Amount:       total,
				SubmissionID: &submissionID,
				Description:  fmt.Sprintf("Rendición %s", code),
			}); err != nil {
				return err
			}
		}

		return c.store.SetTotal(tx, header.ID, total)
	})
	if err != nil {
		c.logger.Error("Submission transaction failed",
			zap.Int64("employee_id", in.EmployeeID),
			zap.Error(err))
		return nil, domain.ErrPersistence
	}

	c.logger.Info("Submission created",
		zap.Int64("submission_id", header.ID),
		zap.String("code", code),
		zap.Int("items", len(in.Items)),
		zap.String("total", total.String()))
	return &CreateResult{ID: header.ID, Code: code}, nil
}

// validate applies the submission rules in order and reports the first
// violation. It runs entirely before the transaction opens.
func (c *Coordinator) validate(ctx context.Context, in CreateInput) error {
	employee, err := c.lookups.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return domain.ErrPersistence
	}
	if employee == nil || !employee.Active {
		return domain.NewValidation("empleado", "employee %d does not exist or is inactive", in.EmployeeID)
	}

	if len(in.Items) == 0 {
		return domain.NewValidation("gastos", "submission must contain at least one line item")
	}

	for i, item := range in.Items {
		expenseType, err := c.lookups.GetExpenseType(ctx, item.ExpenseTypeID)
		if err != nil {
			return domain.ErrPersistence
		}
		if expenseType == nil {
			return domain.NewValidation("tipo_gasto", "line %d references unknown expense type %d", i+1, item.ExpenseTypeID)
		}

		client, err := c.lookups.GetClient(ctx, item.ClientID)
		if err != nil {
			return domain.ErrPersistence
		}
		if client == nil {
			return domain.NewValidation("cliente", "line %d references unknown client %d", i+1, item.ClientID)
		}

		if item.BranchID != nil {
			branch, err := c.lookups.GetBranch(ctx, *item.BranchID)
			if err != nil {
				return domain.ErrPersistence
			}
			if branch == nil || branch.ClientID != item.ClientID {
				return domain.NewValidation("sucursal", "line %d references branch %d not belonging to client %d", i+1, *item.BranchID, item.ClientID)
			}
		}

		if item.BaseAmount.IsNegative() {
			return domain.NewValidation("importe", "line %d has negative base amount", i+1)
		}
		if item.TaxAmount.IsNegative() {
			return domain.NewValidation("itbis", "line %d has negative tax amount", i+1)
		}
	}

	if in.AllowanceID != nil {
		allowance, err := c.allowances.GetByID(ctx, *in.AllowanceID)
		if err != nil {
			return domain.ErrPersistence
		}
		if allowance == nil || allowance.UserID != in.EmployeeID {
			return domain.NewValidation("viatico", "allowance %d does not belong to employee %d", *in.AllowanceID, in.EmployeeID)
		}
		if allowance.ExpirationDate.Before(startOfToday()) {
			return domain.NewValidation("viatico_vencido", "allowance %d expired on %s", *in.AllowanceID, allowance.ExpirationDate.Format("2006-01-02"))
		}
	}

	return nil
}

// GetDetail returns a submission with its ordered line items. Access is
// restricted to the owning employee or an admin; a forbidden id answers
// the same as a missing one so callers cannot probe which ids exist.
func (c *Coordinator) GetDetail(ctx context.Context, principal auth.Principal, id int64) (*Detail, error) {
	header, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if header == nil || !principal.CanActFor(header.EmployeeID) {
		return nil, domain.ErrNotFound
	}

	items, err := c.store.GetLineItems(ctx, id)
	if err != nil {
		return nil, domain.ErrPersistence
	}

	employeeName := ""
	if employee, err := c.lookups.GetEmployee(ctx, header.EmployeeID); err == nil && employee != nil {
		employeeName = employee.FullName
	}

	return &Detail{Submission: header, EmployeeName: employeeName, Items: items}, nil
}

// List returns submission history: everything for admins, own
// submissions otherwise. Newest first.
func (c *Coordinator) List(ctx context.Context, principal auth.Principal) ([]*repository.SubmissionSummary, error) {
	var employeeID *int64
	if !principal.IsAdmin() {
		id := principal.UserID
		employeeID = &id
	}

	summaries, err := c.store.List(ctx, employeeID)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	return summaries, nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
