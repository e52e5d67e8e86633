package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/export"
	"github.com/LuisEmilioVP/NexuViaticos/internal/ledger"
	"github.com/LuisEmilioVP/NexuViaticos/internal/reference"
	"github.com/LuisEmilioVP/NexuViaticos/internal/submission"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP request handlers
type Handlers struct {
	authService *auth.Service
	calculator  *ledger.Calculator
	coordinator *submission.Coordinator
	refService  *reference.Service
	exporter    *export.Exporter
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	authService *auth.Service,
	calculator *ledger.Calculator,
	coordinator *submission.Coordinator,
	refService *reference.Service,
	exporter *export.Exporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		authService: authService,
		calculator:  calculator,
		coordinator: coordinator,
		refService:  refService,
		exporter:    exporter,
		logger:      logger,
	}
}

// respondError maps domain errors onto HTTP status codes. Unrecognized
// errors are logged and reported as a generic 500 so internals never
// reach the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Acceso denegado"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Recurso no encontrado"})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidation("id", "invalid id %q", c.Param("id"))
	}
	return id, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidation(field, "invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Login authenticates a user and issues an access token.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Usuario y contraseña son requeridos"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		User:        toUserResponse(user),
	})
}

// InitialData returns the reference catalogs the client needs to render
// its forms.
func (h *Handlers) InitialData(c *gin.Context) {
	data, err := h.refService.InitialData(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetBalance returns balance snapshots for the authenticated user.
// Admins may inspect another employee with ?empleadoId=.
func (h *Handlers) GetBalance(c *gin.Context) {
	principal := GetPrincipal(c)

	employeeID := principal.UserID
	if raw := c.Query("empleadoId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.respondError(c, domain.NewValidation("empleadoId", "invalid employee id %q", raw))
			return
		}
		if !principal.CanActFor(id) {
			h.respondError(c, domain.ErrUnauthorized)
			return
		}
		employeeID = id
	}

	balances, err := h.calculator.Balances(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

// GetMovements returns the movement history of one allowance.
func (h *Handlers) GetMovements(c *gin.Context) {
	allowanceID, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	movements, err := h.calculator.Movements(c.Request.Context(), GetPrincipal(c), allowanceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// ListAllowances returns the balance snapshot of every allowance, for
// the admin overview.
func (h *Handlers) ListAllowances(c *gin.Context) {
	balances, err := h.calculator.AllBalances(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

// CreateAllowance assigns a new per-diem allowance to an employee.
func (h *Handlers) CreateAllowance(c *gin.Context) {
	var req createAllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de viático inválidos"})
		return
	}

	assigned, err := parseDate("fecha_asignacion", req.AssignmentDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	expires, err := parseDate("fecha_vencimiento", req.ExpirationDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	allowance, err := h.calculator.CreateAllowance(c.Request.Context(), ledger.CreateAllowanceInput{
		UserID:         req.UserID,
		AssignedAmount: req.AssignedAmount,
		AssignmentDate: assigned,
		ExpirationDate: expires,
		Description:    req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, allowance)
}

// CreateSubmission persists a reimbursement submission with its line
// items in a single transaction.
func (h *Handlers) CreateSubmission(c *gin.Context) {
	principal := GetPrincipal(c)

	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de rendición inválidos"})
		return
	}

	items := make([]submission.LineItemInput, 0, len(req.Items))
	for i, item := range req.Items {
		date, err := parseDate(fmt.Sprintf("gastos[%d].fecha", i), item.Date)
		if err != nil {
			h.respondError(c, err)
			return
		}
		items = append(items, submission.LineItemInput{
			ExpenseTypeID: item.ExpenseTypeID,
			ClientID:      item.ClientID,
			BranchID:      item.BranchID,
			Date:          date,
			Description:   item.Description,
			BaseAmount:    item.BaseAmount,
			TaxAmount:     item.TaxAmount,
		})
	}

	result, err := h.coordinator.Create(c.Request.Context(), principal, submission.CreateInput{
		EmployeeID:   req.EmployeeID,
		Items:        items,
		Status:       req.Status,
		CustomStatus: req.CustomStatus,
		Notes:        req.Notes,
		AllowanceID:  req.AllowanceID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createSubmissionResponse{
		ID:   result.ID,
		Code: result.Code,
	})
}

// ListSubmissions returns submission history. Admins see everyone's,
// regular users only their own.
func (h *Handlers) ListSubmissions(c *gin.Context) {
	principal := GetPrincipal(c)

	summaries, err := h.coordinator.List(c.Request.Context(), principal)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]submissionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toSubmissionSummary(s))
	}
	c.JSON(http.StatusOK, out)
}

// GetSubmission returns one submission with its line items.
func (h *Handlers) GetSubmission(c *gin.Context) {
	principal := GetPrincipal(c)

	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	detail, err := h.coordinator.GetDetail(c.Request.Context(), principal, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubmissionDetail(detail))
}

// ExportSubmission streams one submission as an Excel workbook.
func (h *Handlers) ExportSubmission(c *gin.Context) {
	principal := GetPrincipal(c)

	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	detail, err := h.coordinator.GetDetail(c.Request.Context(), principal, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.WriteSubmission(&buf, detail); err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("Rendicion_%s.xlsx", detail.Submission.Code)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// CreateUser registers a new user account.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de usuario inválidos"})
		return
	}

	user, err := h.refService.CreateUser(c.Request.Context(), reference.CreateUserInput{
		FullName: req.FullName,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// UpdateUser rewrites a user account. An empty password keeps the
// current one.
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de usuario inválidos"})
		return
	}

	user, err := h.refService.UpdateUser(c.Request.Context(), id, reference.UpdateUserInput{
		FullName: req.FullName,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteUser removes a user account.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.refService.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usuario eliminado"})
}

// GetClientBranches lists the branches of one client for the branch
// picker.
func (h *Handlers) GetClientBranches(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	branches, err := h.refService.ClientBranches(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

// CreateClient registers a new client.
func (h *Handlers) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de cliente inválidos"})
		return
	}

	client, err := h.refService.CreateClient(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// UpdateClient renames a client.
func (h *Handlers) UpdateClient(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de cliente inválidos"})
		return
	}

	client, err := h.refService.UpdateClient(c.Request.Context(), id, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client.
func (h *Handlers) DeleteClient(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.refService.DeleteClient(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente eliminado"})
}

// CreateBranch registers a branch under a client.
func (h *Handlers) CreateBranch(c *gin.Context) {
	var req branchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de sucursal inválidos"})
		return
	}

	branch, err := h.refService.CreateBranch(c.Request.Context(), reference.CreateBranchInput{
		ClientID: req.ClientID,
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

// UpdateBranch rewrites a branch.
func (h *Handlers) UpdateBranch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req branchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de sucursal inválidos"})
		return
	}

	branch, err := h.refService.UpdateBranch(c.Request.Context(), id, reference.CreateBranchInput{
		ClientID: req.ClientID,
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

// DeleteBranch removes a branch.
func (h *Handlers) DeleteBranch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.refService.DeleteBranch(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sucursal eliminada"})
}

// CreateExpenseType registers an expense type with its accounting code.
func (h *Handlers) CreateExpenseType(c *gin.Context) {
	var req expenseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de tipo de gasto inválidos"})
		return
	}

	et, err := h.refService.CreateExpenseType(c.Request.Context(), reference.CreateExpenseTypeInput{
		Name:        req.Name,
		AccountCode: req.AccountCode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, et)
}

// UpdateExpenseType rewrites an expense type.
func (h *Handlers) UpdateExpenseType(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req expenseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos de tipo de gasto inválidos"})
		return
	}

	et, err := h.refService.UpdateExpenseType(c.Request.Context(), id, reference.CreateExpenseTypeInput{
		Name:        req.Name,
		AccountCode: req.AccountCode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, et)
}

// DeleteExpenseType removes an expense type.
func (h *Handlers) DeleteExpenseType(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.refService.DeleteExpenseType(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tipo de gasto eliminado"})
}
