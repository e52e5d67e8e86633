package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"github.com/LuisEmilioVP/NexuViaticos/internal/repository"
)

// Mock stores

type mockAllowanceStore struct {
	createFunc     func(tx *sql.Tx, a *models.Allowance) error
	getByIDFunc    func(ctx context.Context, id int64) (*models.Allowance, error)
	listByUserFunc func(ctx context.Context, userID int64) ([]*models.Allowance, error)
	listFunc       func(ctx context.Context) ([]*models.Allowance, error)
}

func (m *mockAllowanceStore) Create(tx *sql.Tx, a *models.Allowance) error {
	if m.createFunc != nil {
		return m.createFunc(tx, a)
	}
	a.ID = 1
	return nil
}

func (m *mockAllowanceStore) GetByID(ctx context.Context, id int64) (*models.Allowance, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAllowanceStore) ListByUser(ctx context.Context, userID int64) ([]*models.Allowance, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockAllowanceStore) List(ctx context.Context) ([]*models.Allowance, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

type mockMovementStore struct {
	createFunc          func(tx *sql.Tx, m *models.Movement) error
	listByAllowanceFunc func(ctx context.Context, allowanceID int64) ([]*repository.MovementWithCode, error)
	sumByAllowanceFunc  func(ctx context.Context, allowanceID int64) (decimal.Decimal, decimal.Decimal, error)
}

func (m *mockMovementStore) Create(tx *sql.Tx, mv *models.Movement) error {
	if m.createFunc != nil {
		return m.createFunc(tx, mv)
	}
	mv.ID = 1
	return nil
}

func (m *mockMovementStore) ListByAllowance(ctx context.Context, allowanceID int64) ([]*repository.MovementWithCode, error) {
	if m.listByAllowanceFunc != nil {
		return m.listByAllowanceFunc(ctx, allowanceID)
	}
	return nil, nil
}

func (m *mockMovementStore) SumByAllowance(ctx context.Context, allowanceID int64) (decimal.Decimal, decimal.Decimal, error) {
	if m.sumByAllowanceFunc != nil {
		return m.sumByAllowanceFunc(ctx, allowanceID)
	}
	return decimal.Zero, decimal.Zero, nil
}

type mockUserStore struct {
	getByIDFunc func(ctx context.Context, id int64) (*models.User, error)
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &models.User{ID: id, Active: true}, nil
}

type mockTxRunner struct {
	withTransactionFunc func(ctx context.Context, fn func(*sql.Tx) error) error
}

func (m *mockTxRunner) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestCalculator(allowances *mockAllowanceStore, movements *mockMovementStore, users *mockUserStore) *Calculator {
	c := NewCalculator(&mockTxRunner{}, allowances, movements, users, DefaultAlertPolicy(), zap.NewNop())
	c.now = func() time.Time { return day("2026-09-01") }
	return c
}

func adminPrincipal() auth.Principal {
	return auth.Principal{UserID: 1, Role: models.RoleAdmin}
}

func TestBalances(t *testing.T) {
	allowances := &mockAllowanceStore{
		listByUserFunc: func(ctx context.Context, userID int64) ([]*models.Allowance, error) {
			return []*models.Allowance{
				{ID: 1, UserID: userID, Description: "Viaje a Santiago", ExpirationDate: day("2026-09-03")},
				{ID: 2, UserID: userID, Description: "Proyecto Norte", ExpirationDate: day("2026-10-15")},
			}, nil
		},
	}
	movements := &mockMovementStore{
		sumByAllowanceFunc: func(ctx context.Context, allowanceID int64) (decimal.Decimal, decimal.Decimal, error) {
			if allowanceID == 1 {
				return dec("500.00"), dec("141.60"), nil
			}
			return dec("1000"), dec("0"), nil
		},
	}

	calc := newTestCalculator(allowances, movements, &mockUserStore{})

	snapshots, err := calc.Balances(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	first := snapshots[0]
	assert.Equal(t, int64(1), first.AllowanceID)
	assert.True(t, first.AssignedAmount.Equal(dec("500.00")))
	assert.True(t, first.SpentAmount.Equal(dec("141.60")))
	assert.True(t, first.AvailableAmount.Equal(dec("358.40")))
	assert.Equal(t, 2, first.DaysRemaining)
	assert.Equal(t, models.AlertCritical, first.AlertLevel)

	second := snapshots[1]
	assert.True(t, second.AvailableAmount.Equal(dec("1000")))
	assert.Equal(t, 44, second.DaysRemaining)
	assert.Equal(t, models.AlertOK, second.AlertLevel)
}

func TestBalancesRepeatedReadUnchanged(t *testing.T) {
	allowances := &mockAllowanceStore{
		listByUserFunc: func(ctx context.Context, userID int64) ([]*models.Allowance, error) {
			return []*models.Allowance{
				{ID: 1, UserID: userID, Description: "Viaje a Santiago", ExpirationDate: day("2026-09-03")},
			}, nil
		},
	}
	movements := &mockMovementStore{
		sumByAllowanceFunc: func(ctx context.Context, allowanceID int64) (decimal.Decimal, decimal.Decimal, error) {
			return dec("500.00"), dec("141.60"), nil
		},
	}

	calc := newTestCalculator(allowances, movements, &mockUserStore{})

	first, err := calc.Balances(context.Background(), 7)
	require.NoError(t, err)
	second, err := calc.Balances(context.Background(), 7)
	require.NoError(t, err)

	// Reading twice with no movements in between yields the same snapshots.
	assert.Equal(t, first, second)
	require.Len(t, second, 1)
	assert.True(t, second[0].AvailableAmount.Equal(dec("358.40")))
}

func TestBalancesExpiredAllowance(t *testing.T) {
	allowances := &mockAllowanceStore{
		listByUserFunc: func(ctx context.Context, userID int64) ([]*models.Allowance, error) {
			return []*models.Allowance{
				{ID: 1, UserID: userID, ExpirationDate: day("2026-08-25")},
			}, nil
		},
	}

	calc := newTestCalculator(allowances, &mockMovementStore{}, &mockUserStore{})

	snapshots, err := calc.Balances(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, -7, snapshots[0].DaysRemaining)
	assert.Equal(t, models.AlertExpired, snapshots[0].AlertLevel)
}

func TestBalancesNoAllowances(t *testing.T) {
	calc := newTestCalculator(&mockAllowanceStore{}, &mockMovementStore{}, &mockUserStore{})

	snapshots, err := calc.Balances(context.Background(), 99)
	require.NoError(t, err)
	assert.NotNil(t, snapshots)
	assert.Empty(t, snapshots)
}

func TestBalancesStoreFailure(t *testing.T) {
	allowances := &mockAllowanceStore{
		listByUserFunc: func(ctx context.Context, userID int64) ([]*models.Allowance, error) {
			return nil, errors.New("disk on fire")
		},
	}

	calc := newTestCalculator(allowances, &mockMovementStore{}, &mockUserStore{})

	_, err := calc.Balances(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestAllBalances(t *testing.T) {
	allowances := &mockAllowanceStore{
		listFunc: func(ctx context.Context) ([]*models.Allowance, error) {
			return []*models.Allowance{
				{ID: 1, UserID: 7, ExpirationDate: day("2026-09-03")},
				{ID: 2, UserID: 8, ExpirationDate: day("2026-10-15")},
			}, nil
		},
	}
	movements := &mockMovementStore{
		sumByAllowanceFunc: func(ctx context.Context, allowanceID int64) (decimal.Decimal, decimal.Decimal, error) {
			return dec("500.00"), dec("141.60"), nil
		},
	}

	calc := newTestCalculator(allowances, movements, &mockUserStore{})

	snapshots, err := calc.AllBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, int64(7), snapshots[0].UserID)
	assert.Equal(t, int64(8), snapshots[1].UserID)
	assert.True(t, snapshots[0].AvailableAmount.Equal(dec("358.40")))
}

func TestMovementsUnknownAllowance(t *testing.T) {
	calc := newTestCalculator(&mockAllowanceStore{}, &mockMovementStore{}, &mockUserStore{})

	_, err := calc.Movements(context.Background(), adminPrincipal(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovementsOwnership(t *testing.T) {
	allowances := &mockAllowanceStore{
		getByIDFunc: func(ctx context.Context, id int64) (*models.Allowance, error) {
			return &models.Allowance{ID: id, UserID: 7}, nil
		},
	}

	calc := newTestCalculator(allowances, &mockMovementStore{}, &mockUserStore{})

	owner := auth.Principal{UserID: 7, Role: models.RoleUser}
	_, err := calc.Movements(context.Background(), owner, 1)
	assert.NoError(t, err)

	_, err = calc.Movements(context.Background(), adminPrincipal(), 1)
	assert.NoError(t, err)

	// A non-owner cannot tell an existing allowance from a missing one.
	other := auth.Principal{UserID: 8, Role: models.RoleUser}
	_, err = calc.Movements(context.Background(), other, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovementsHistory(t *testing.T) {
	code := "R000042"
	allowances := &mockAllowanceStore{
		getByIDFunc: func(ctx context.Context, id int64) (*models.Allowance, error) {
			return &models.Allowance{ID: id, UserID: 7}, nil
		},
	}
	movements := &mockMovementStore{
		listByAllowanceFunc: func(ctx context.Context, allowanceID int64) ([]*repository.MovementWithCode, error) {
			return []*repository.MovementWithCode{
				{
					Movement:       models.Movement{Kind: models.MovementExpense, Amount: dec("141.60"), Date: day("2026-08-20")},
					SubmissionCode: &code,
				},
				{
					Movement: models.Movement{Kind: models.MovementAssignment, Amount: dec("500.00"), Date: day("2026-08-01")},
				},
			}, nil
		},
	}

	calc := newTestCalculator(allowances, movements, &mockUserStore{})

	entries, err := calc.Movements(context.Background(), adminPrincipal(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.MovementExpense, entries[0].Kind)
	require.NotNil(t, entries[0].SubmissionCode)
	assert.Equal(t, "R000042", *entries[0].SubmissionCode)
	assert.Equal(t, models.MovementAssignment, entries[1].Kind)
	assert.Nil(t, entries[1].SubmissionCode)
}

func TestCreateAllowanceValidation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateAllowanceInput
		users *mockUserStore
	}{
		{
			name: "zero amount",
			input: CreateAllowanceInput{
				UserID:         7,
				AssignedAmount: decimal.Zero,
				AssignmentDate: day("2026-09-01"),
				ExpirationDate: day("2026-09-30"),
			},
			users: &mockUserStore{},
		},
		{
			name: "negative amount",
			input: CreateAllowanceInput{
				UserID:         7,
				AssignedAmount: dec("-10"),
				AssignmentDate: day("2026-09-01"),
				ExpirationDate: day("2026-09-30"),
			},
			users: &mockUserStore{},
		},
		{
			name: "expiration before assignment",
			input: CreateAllowanceInput{
				UserID:         7,
				AssignedAmount: dec("500"),
				AssignmentDate: day("2026-09-01"),
				ExpirationDate: day("2026-08-01"),
			},
			users: &mockUserStore{},
		},
		{
			name: "unknown employee",
			input: CreateAllowanceInput{
				UserID:         99,
				AssignedAmount: dec("500"),
				AssignmentDate: day("2026-09-01"),
				ExpirationDate: day("2026-09-30"),
			},
			users: &mockUserStore{
				getByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
					return nil, nil
				},
			},
		},
		{
			name: "inactive employee",
			input: CreateAllowanceInput{
				UserID:         7,
				AssignedAmount: dec("500"),
				AssignmentDate: day("2026-09-01"),
				ExpirationDate: day("2026-09-30"),
			},
			users: &mockUserStore{
				getByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
					return &models.User{ID: id, Active: false}, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newTestCalculator(&mockAllowanceStore{}, &mockMovementStore{}, tt.users)

			_, err := calc.CreateAllowance(context.Background(), tt.input)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateAllowanceRecordsAssignment(t *testing.T) {
	var recorded *models.Movement
	movements := &mockMovementStore{
		createFunc: func(tx *sql.Tx, m *models.Movement) error {
			recorded = m
			return nil
		},
	}
	allowances := &mockAllowanceStore{
		createFunc: func(tx *sql.Tx, a *models.Allowance) error {
			a.ID = 5
			return nil
		},
	}

	calc := newTestCalculator(allowances, movements, &mockUserStore{})

	allowance, err := calc.CreateAllowance(context.Background(), CreateAllowanceInput{
		UserID:         7,
		AssignedAmount: dec("500.00"),
		AssignmentDate: day("2026-09-01"),
		ExpirationDate: day("2026-09-30"),
		Description:    "Viaje a Santiago",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), allowance.ID)

	require.NotNil(t, recorded)
	assert.Equal(t, int64(5), recorded.AllowanceID)
	assert.Equal(t, models.MovementAssignment, recorded.Kind)
	assert.True(t, recorded.Amount.Equal(dec("500.00")))
}

func TestCreateAllowanceTransactionFailure(t *testing.T) {
	movements := &mockMovementStore{
		createFunc: func(tx *sql.Tx, m *models.Movement) error {
			return errors.New("constraint violated")
		},
	}

	calc := newTestCalculator(&mockAllowanceStore{}, movements, &mockUserStore{})

	_, err := calc.CreateAllowance(context.Background(), CreateAllowanceInput{
		UserID:         7,
		AssignedAmount: dec("500.00"),
		AssignmentDate: day("2026-09-01"),
		ExpirationDate: day("2026-09-30"),
	})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
