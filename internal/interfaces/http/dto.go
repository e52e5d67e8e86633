package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
	"github.com/LuisEmilioVP/NexuViaticos/internal/submission"
)

// Request bodies are explicit structures; unknown fields are rejected by
// the JSON decoder configured in NewServer.

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"nombreCompleto"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type lineItemRequest struct {
	ExpenseTypeID int64           `json:"expenseTypeId" binding:"required"`
	ClientID      int64           `json:"clientId" binding:"required"`
	BranchID      *int64          `json:"branchId"`
	Date          string          `json:"fecha" binding:"required"`
	Description   string          `json:"descripcion" binding:"required"`
	BaseAmount    decimal.Decimal `json:"importe"`
	TaxAmount     decimal.Decimal `json:"itbis"`
}

type createSubmissionRequest struct {
	EmployeeID   int64             `json:"empleadoId" binding:"required"`
	Items        []lineItemRequest `json:"gastos"`
	Status       string            `json:"estado"`
	CustomStatus *string           `json:"estadoPersonalizado"`
	Notes        *string           `json:"observaciones"`
	AllowanceID  *int64            `json:"viaticoId"`
}

type createSubmissionResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"codigoRendicion"`
}

type createAllowanceRequest struct {
	UserID         int64           `json:"usuarioId" binding:"required"`
	AssignedAmount decimal.Decimal `json:"montoAsignado" binding:"required"`
	AssignmentDate string          `json:"fechaAsignacion" binding:"required"`
	ExpirationDate string          `json:"fechaVencimiento" binding:"required"`
	Description    string          `json:"descripcion"`
}

type createUserRequest struct {
	FullName string `json:"nombreCompleto" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	FullName string `json:"nombreCompleto"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type clientRequest struct {
	Name string `json:"nombre" binding:"required"`
}

type branchRequest struct {
	ClientID int64  `json:"clienteId"`
	Name     string `json:"nombre"`
	Location string `json:"ubicacion"`
}

type expenseTypeRequest struct {
	Name        string `json:"nombre"`
	AccountCode string `json:"cuenta"`
}

// Response shapes mirror the field names the reporting client already
// consumes.

type submissionSummaryResponse struct {
	ID           int64           `json:"Id"`
	Code         string          `json:"CodigoRendicion"`
	CreatedAt    time.Time       `json:"FechaCreacion"`
	EmployeeName string          `json:"NombreEmpleado"`
	Total        decimal.Decimal `json:"Total"`
	ItemCount    int             `json:"TotalGastos"`
}

func toSubmissionSummary(s *repository.SubmissionSummary) submissionSummaryResponse {
	return submissionSummaryResponse{
		ID:           s.ID,
		Code:         s.Code,
		CreatedAt:    s.CreatedAt,
		EmployeeName: s.EmployeeName,
		Total:        s.Total,
		ItemCount:    s.ItemCount,
	}
}

type submissionHeaderResponse struct {
	ID           int64           `json:"Id"`
	Code         string          `json:"CodigoRendicion"`
	EmployeeID   int64           `json:"EmpleadoId"`
	EmployeeName string          `json:"NombreEmpleado"`
	CreatedAt    time.Time       `json:"FechaCreacion"`
	Status       string          `json:"Estado"`
	CustomStatus *string         `json:"EstadoPersonalizado,omitempty"`
	Notes        *string         `json:"Observaciones,omitempty"`
	Total        decimal.Decimal `json:"Total"`
}

type lineItemResponse struct {
	ExpenseType string          `json:"TipoGasto"`
	AccountCode string          `json:"Cuenta"`
	Client      string          `json:"Cliente"`
	Branch      *string         `json:"Sucursal,omitempty"`
	Date        time.Time       `json:"Fecha"`
	Description string          `json:"Descripcion"`
	BaseAmount  decimal.Decimal `json:"ImporteSinItbis"`
	TaxAmount   decimal.Decimal `json:"Itbis"`
	Total       decimal.Decimal `json:"Total"`
}

type submissionDetailResponse struct {
	Submission submissionHeaderResponse `json:"rendicion"`
	Items      []lineItemResponse       `json:"gastos"`
}

func toSubmissionDetail(d *submission.Detail) submissionDetailResponse {
	items := make([]lineItemResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, lineItemResponse{
			ExpenseType: item.ExpenseTypeName,
			AccountCode: item.AccountCode,
			Client:      item.ClientName,
			Branch:      item.BranchName,
			Date:        item.Date,
			Description: item.Description,
			BaseAmount:  item.BaseAmount,
			TaxAmount:   item.TaxAmount,
			Total:       item.Total(),
		})
	}
	return submissionDetailResponse{
		Submission: submissionHeaderResponse{
			ID:           d.Submission.ID,
			Code:         d.Submission.Code,
			EmployeeID:   d.Submission.EmployeeID,
			EmployeeName: d.EmployeeName,
			CreatedAt:    d.Submission.CreatedAt,
			Status:       d.Submission.Status,
			CustomStatus: d.Submission.CustomStatus,
			Notes:        d.Submission.Notes,
			Total:        d.Submission.Total,
		},
		Items: items,
	}
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Username: u.Username,
		Role:     u.Role,
	}
}
