// Package reference maintains the slowly-changing lookup tables: users,
// clients, branches and expense types. It also serves as the read-only
// lookup collaborator of the submission coordinator.
package reference

import (
	"context"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
	"github.com/LuisEmilioVP/NexuViaticos/pkg/utils"
	"go.uber.org/zap"
)

// Service wraps the reference repositories with validation.
type Service struct {
	users        *repository.UserRepository
	clients      *repository.ClientRepository
	branches     *repository.BranchRepository
	expenseTypes *repository.ExpenseTypeRepository
	logger       *zap.Logger
}

// NewService creates a reference-data service.
func NewService(
	users *repository.UserRepository,
	clients *repository.ClientRepository,
	branches *repository.BranchRepository,
	expenseTypes *repository.ExpenseTypeRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:        users,
		clients:      clients,
		branches:     branches,
		expenseTypes: expenseTypes,
		logger:       logger,
	}
}

// InitialData is the single payload the client loads after login.
type InitialData struct {
	Users        []*models.User        `json:"users"`
	Clients      []*models.Client      `json:"clients"`
	Branches     []*models.Branch      `json:"branches"`
	ExpenseTypes []*models.ExpenseType `json:"expenseTypes"`
}

// InitialData loads all reference tables in one call.
func (s *Service) InitialData(ctx context.Context) (*InitialData, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	expenseTypes, err := s.expenseTypes.List(ctx)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	return &InitialData{
		Users:        users,
		Clients:      clients,
		Branches:     branches,
		ExpenseTypes: expenseTypes,
	}, nil
}

// --- Lookup methods (submission coordinator collaborator contract) ---

// GetEmployee resolves an employee by id.
func (s *Service) GetEmployee(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetExpenseType resolves an expense type by id.
func (s *Service) GetExpenseType(ctx context.Context, id int64) (*models.ExpenseType, error) {
	return s.expenseTypes.GetByID(ctx, id)
}

// GetClient resolves a client by id.
func (s *Service) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// GetBranch resolves a branch by id.
func (s *Service) GetBranch(ctx context.Context, id int64) (*models.Branch, error) {
	return s.branches.GetByID(ctx, id)
}

// GetBranches lists the branches of one client.
func (s *Service) GetBranches(ctx context.Context, clientID int64) ([]*models.Branch, error) {
	return s.branches.ListByClient(ctx, clientID)
}

// ClientBranches lists the branches of one existing client for the
// branch picker. Unknown clients are reported as not found.
func (s *Service) ClientBranches(ctx context.Context, clientID int64) ([]*models.Branch, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	branches, err := s.GetBranches(ctx, clientID)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if branches == nil {
		branches = []*models.Branch{}
	}
	return branches, nil
}

// --- User CRUD ---

// CreateUserInput carries a new user record.
type CreateUserInput struct {
	FullName string
	Username string
	Password string
	Role     string
}

// CreateUser hashes the password and persists the user.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.FullName == "" {
		return nil, domain.NewValidation("nombre_completo", "full name is required")
	}
	if err := utils.ValidateUsername(in.Username); err != nil {
		return nil, domain.NewValidation("username", "%v", err)
	}
	if len(in.Password) < 6 {
		return nil, domain.NewValidation("password", "password must be at least 6 characters")
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, domain.NewValidation("role", "unknown role %q", in.Role)
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if existing != nil {
		return nil, domain.NewValidation("username", "username %q already taken", in.Username)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("Password hashing failed", zap.Error(err))
		return nil, domain.ErrPersistence
	}

	user := &models.User{
		FullName:     utils.SanitizeString(in.FullName),
		Username:     in.Username,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.ErrPersistence
	}
	return user, nil
}

// UpdateUserInput carries user edits. An empty password keeps the current
// hash.
type UpdateUserInput struct {
	FullName string
	Username string
	Password string
	Role     string
}

// UpdateUser rewrites a user record.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	if in.FullName != "" {
		user.FullName = utils.SanitizeString(in.FullName)
	}
	if in.Username != "" && in.Username != user.Username {
		if err := utils.ValidateUsername(in.Username); err != nil {
			return nil, domain.NewValidation("username", "%v", err)
		}
		taken, err := s.users.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, domain.ErrPersistence
		}
		if taken != nil {
			return nil, domain.NewValidation("username", "username %q already taken", in.Username)
		}
		user.Username = in.Username
	}
	if in.Role != "" {
		if in.Role != models.RoleAdmin && in.Role != models.RoleUser {
			return nil, domain.NewValidation("role", "unknown role %q", in.Role)
		}
		user.Role = in.Role
	}
	user.PasswordHash = ""
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, domain.NewValidation("password", "password must be at least 6 characters")
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			s.logger.Error("Password hashing failed", zap.Error(err))
			return nil, domain.ErrPersistence
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, domain.ErrPersistence
	}
	return user, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.ErrPersistence
	}
	if user == nil {
		return domain.ErrNotFound
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return domain.ErrPersistence
	}
	return nil
}

// --- Client CRUD ---

// CreateClient persists a client.
func (s *Service) CreateClient(ctx context.Context, name string) (*models.Client, error) {
	if name == "" {
		return nil, domain.NewValidation("nombre", "client name is required")
	}
	client := &models.Client{Name: utils.SanitizeString(name)}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, domain.ErrPersistence
	}
	return client, nil
}

// UpdateClient renames a client.
func (s *Service) UpdateClient(ctx context.Context, id int64, name string) (*models.Client, error) {
	if name == "" {
		return nil, domain.NewValidation("nombre", "client name is required")
	}
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	client.Name = utils.SanitizeString(name)
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, domain.ErrPersistence
	}
	return client, nil
}

// DeleteClient removes a client. Restricted while expense history
// references it.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return domain.ErrPersistence
	}
	if client == nil {
		return domain.ErrNotFound
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return domain.ErrPersistence
	}
	return nil
}

// --- Branch CRUD ---

// CreateBranchInput carries a new branch record.
type CreateBranchInput struct {
	ClientID int64
	Name     string
	Location string
}

// CreateBranch persists a branch under an existing client.
func (s *Service) CreateBranch(ctx context.Context, in CreateBranchInput) (*models.Branch, error) {
	if in.Name == "" {
		return nil, domain.NewValidation("nombre", "branch name is required")
	}
	client, err := s.clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if client == nil {
		return nil, domain.NewValidation("cliente_id", "client %d does not exist", in.ClientID)
	}
	branch := &models.Branch{
		ClientID: in.ClientID,
		Name:     utils.SanitizeString(in.Name),
		Location: utils.SanitizeString(in.Location),
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, domain.ErrPersistence
	}
	return branch, nil
}

// UpdateBranch rewrites a branch record.
func (s *Service) UpdateBranch(ctx context.Context, id int64, in CreateBranchInput) (*models.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	if in.ClientID != 0 && in.ClientID != branch.ClientID {
		client, err := s.clients.GetByID(ctx, in.ClientID)
		if err != nil {
			return nil, domain.ErrPersistence
		}
		if client == nil {
			return nil, domain.NewValidation("cliente_id", "client %d does not exist", in.ClientID)
		}
		branch.ClientID = in.ClientID
	}
	if in.Name != "" {
		branch.Name = utils.SanitizeString(in.Name)
	}
	if in.Location != "" {
		branch.Location = utils.SanitizeString(in.Location)
	}
	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, domain.ErrPersistence
	}
	return branch, nil
}

// DeleteBranch removes a branch.
func (s *Service) DeleteBranch(ctx context.Context, id int64) error {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return domain.ErrPersistence
	}
	if branch == nil {
		return domain.ErrNotFound
	}
	if err := s.branches.Delete(ctx, id); err != nil {
		return domain.ErrPersistence
	}
	return nil
}

// --- Expense type CRUD ---

// CreateExpenseTypeInput carries a new expense type.
type CreateExpenseTypeInput struct {
	Name        string
	AccountCode string
}

// CreateExpenseType persists an expense type.
func (s *Service) CreateExpenseType(ctx context.Context, in CreateExpenseTypeInput) (*models.ExpenseType, error) {
	if in.Name == "" {
		return nil, domain.NewValidation("nombre", "expense type name is required")
	}
	if in.AccountCode == "" {
		return nil, domain.NewValidation("cuenta", "account code is required")
	}
	expenseType := &models.ExpenseType{
		Name:        utils.SanitizeString(in.Name),
		AccountCode: utils.SanitizeString(in.AccountCode),
	}
	if err := s.expenseTypes.Create(ctx, expenseType); err != nil {
		return nil, domain.ErrPersistence
	}
	return expenseType, nil
}

// UpdateExpenseType rewrites an expense type.
func (s *Service) UpdateExpenseType(ctx context.Context, id int64, in CreateExpenseTypeInput) (*models.ExpenseType, error) {
	expenseType, err := s.expenseTypes.GetByID(ctx, id)
	if err != nil {
		return nil, domain.ErrPersistence
	}
	if expenseType == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != "" {
		expenseType.Name = utils.SanitizeString(in.Name)
	}
	if in.AccountCode != "" {
		expenseType.AccountCode = utils.SanitizeString(in.AccountCode)
	}
	if err := s.expenseTypes.Update(ctx, expenseType); err != nil {
		return nil, domain.ErrPersistence
	}
	return expenseType, nil
}

// DeleteExpenseType removes an expense type.
func (s *Service) DeleteExpenseType(ctx context.Context, id int64) error {
	expenseType, err := s.expenseTypes.GetByID(ctx, id)
	if err != nil {
		return domain.ErrPersistence
	}
	if expenseType == nil {
		return domain.ErrNotFound
	}
	if err := s.expenseTypes.Delete(ctx, id); err != nil {
		return domain.ErrPersistence
	}
	return nil
}
