package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents an employee who logs expenses. Admins additionally manage
// reference data and assign allowances.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"nombre_completo"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // admin, user
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"created_at"`
}

// Client is a customer expenses are logged against.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Branch is a client location.
type Branch struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"cliente_id"`
	Name     string `json:"nombre"`
	Location string `json:"ubicacion"`
}

// ExpenseType maps an expense category to its accounting code.
type ExpenseType struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	AccountCode string `json:"cuenta"`
}

// Allowance (viatico) is one allocation of travel funds to one employee.
// It is never mutated after creation; its balance derives from movements.
type Allowance struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"usuario_id"`
	AssignedAmount decimal.Decimal `json:"monto_asignado"`
	AssignmentDate time.Time       `json:"fecha_asignacion"`
	ExpirationDate time.Time       `json:"fecha_vencimiento"`
	Description    string          `json:"descripcion"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Movement kinds. An Asignacion credits the available balance, a Gasto
// debits it.
const (
	MovementAssignment = "Asignacion"
	MovementExpense    = "Gasto"
)

// Movement is an immutable append-only ledger entry against one allowance.
type Movement struct {
	ID           int64           `json:"id"`
	AllowanceID  int64           `json:"viatico_id"`
	Kind         string          `json:"tipo_movimiento"`
	Amount       decimal.Decimal `json:"monto"`
	Date         time.Time       `json:"fecha"`
	SubmissionID *int64          `json:"rendicion_id,omitempty"`
	Description  string          `json:"descripcion"`
}

// Submission (rendicion) is one batch of expenses submitted for one employee.
// Created atomically with its line items; the total is persisted for fast
// listing but always equals the sum of line items.
type Submission struct {
	ID           int64           `json:"id"`
	Code         string          `json:"codigo"`
	EmployeeID   int64           `json:"empleado_id"`
	Status       string          `json:"estado"`
	CustomStatus *string         `json:"estado_personalizado,omitempty"`
	Notes        *string         `json:"observaciones,omitempty"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"fecha_creacion"`
}

// LineItem (gasto) is one expense row within a submission.
type LineItem struct {
	ID            int64           `json:"id"`
	SubmissionID  int64           `json:"rendicion_id"`
	ExpenseTypeID int64           `json:"tipo_gasto_id"`
	ClientID      int64           `json:"cliente_id"`
	BranchID      *int64          `json:"sucursal_id,omitempty"`
	Date          time.Time       `json:"fecha"`
	Description   string          `json:"descripcion"`
	BaseAmount    decimal.Decimal `json:"importe"`
	TaxAmount     decimal.Decimal `json:"itbis"`
	Order         int             `json:"orden"`
}

// Total returns base plus tax for the line.
func (li LineItem) Total() decimal.Decimal {
	return li.BaseAmount.Add(li.TaxAmount)
}

// Role constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Submission activity statuses offered by the UI. Estado is free-form
// metadata, not a lifecycle state; "Otro" carries a custom label.
const (
	StatusImplementation = "Implementación"
	StatusGoLive         = "Salida a Producción"
	StatusRepair         = "Reparación"
	StatusDelivery       = "Entrega de equipo"
	StatusOther          = "Otro"
)

// Alert levels derived from days until allowance expiration.
const (
	AlertExpired  = "VENCIDO"
	AlertCritical = "CRITICO"
	AlertWarning  = "ALERTA"
	AlertOK       = "OK"
)
