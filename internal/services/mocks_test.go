package services

import (
	"context"
	"encoding/json"
	"time"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRequestRepository is a mock implementation of RequestRepositoryInterface
type MockRequestRepository struct {
	mock.Mock
}

var _ repository.RequestRepositoryInterface = (*MockRequestRepository)(nil)

// WithTransaction executes the callback with the mock itself, simulating
// a transaction without a real database.
func (m *MockRequestRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.RequestRepositoryInterface) error) error {
	return fn(m)
}

func (m *MockRequestRepository) CreateRequest(ctx context.Context, request *models.ServiceRequest) error {
	args := m.Called(ctx, request)
	if args.Error(0) == nil {
		request.ID = uuid.New()
		request.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockRequestRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]models.ServiceRequest, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.ServiceRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockRequestRepository) UpdateRequestStatus(ctx context.Context, request *models.ServiceRequest, newStatus models.RequestStatus, extra map[string]interface{}) error {
	args := m.Called(ctx, request, newStatus, extra)
	if args.Error(0) == nil {
		request.Status = newStatus
		request.Version++
	}
	return args.Error(0)
}

func (m *MockRequestRepository) UpdateRequestFields(ctx context.Context, request *models.ServiceRequest, fields map[string]interface{}) error {
	args := m.Called(ctx, request, fields)
	if args.Error(0) == nil {
		request.Version++
	}
	return args.Error(0)
}

func (m *MockRequestRepository) CreateApprovalHistory(ctx context.Context, entry *models.ApprovalHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRequestRepository) GetApprovalHistory(ctx context.Context, requestID uuid.UUID) ([]models.ApprovalHistory, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]models.ApprovalHistory), args.Error(1)
}

func (m *MockRequestRepository) CreateReassignmentHistory(ctx context.Context, entry *models.ReassignmentHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRequestRepository) GetReassignmentHistory(ctx context.Context, requestID uuid.UUID) ([]models.ReassignmentHistory, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]models.ReassignmentHistory), args.Error(1)
}

func (m *MockRequestRepository) CreateWorkLog(ctx context.Context, log *models.WorkLog) error {
	args := m.Called(ctx, log)
	if args.Error(0) == nil {
		log.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRequestRepository) GetOpenWorkLog(ctx context.Context, requestID, technicianID uuid.UUID) (*models.WorkLog, error) {
	args := m.Called(ctx, requestID, technicianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkLog), args.Error(1)
}

func (m *MockRequestRepository) CloseWorkLog(ctx context.Context, log *models.WorkLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRequestRepository) GetWorkLogs(ctx context.Context, requestID uuid.UUID) ([]models.WorkLog, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]models.WorkLog), args.Error(1)
}

func (m *MockRequestRepository) CreateWorkMedia(ctx context.Context, media *models.WorkMedia) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MockRequestRepository) CountUsedProducts(ctx context.Context, requestID uuid.UUID) (int64, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRequestRepository) GetUsedProducts(ctx context.Context, requestID uuid.UUID) ([]models.ServiceUsedProduct, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceUsedProduct), args.Error(1)
}

func (m *MockRequestRepository) CreateUsedProduct(ctx context.Context, row *models.ServiceUsedProduct) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockRequestRepository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockRequestRepository) CreateStockHistory(ctx context.Context, entry *models.StockHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRequestRepository) CountActiveAssignments(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	args := m.Called(ctx, technicianID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRequestRepository) SumWorkDuration(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	args := m.Called(ctx, technicianID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRequestRepository) CountByStatus(ctx context.Context, filter repository.RequestFilter) (map[models.RequestStatus]int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(map[models.RequestStatus]int64), args.Error(1)
}

func (m *MockRequestRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

// MockDirectoryRepository is a mock implementation of DirectoryRepositoryInterface
type MockDirectoryRepository struct {
	mock.Mock
}

var _ repository.DirectoryRepositoryInterface = (*MockDirectoryRepository)(nil)

func (m *MockDirectoryRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectoryRepository) ListUsersByRole(ctx context.Context, roleName string, regionID *uuid.UUID, status models.UserStatus) ([]models.User, error) {
	args := m.Called(ctx, roleName, regionID, status)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockDirectoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockDirectoryRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockDirectoryRepository) GetRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockDirectoryRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockDirectoryRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Role), args.Error(1)
}

func (m *MockDirectoryRepository) GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockDirectoryRepository) GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Region), args.Error(1)
}

func (m *MockDirectoryRepository) GetInstallationByID(ctx context.Context, id uuid.UUID) (*models.Installation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installation), args.Error(1)
}

func (m *MockDirectoryRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockDirectoryRepository) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

// --- test fixtures ---

func testUser(roleName string, status models.UserStatus) *models.User {
	perms, _ := json.Marshal([]string{models.PermServicesView})
	return &models.User{
		ID:     uuid.New(),
		Name:   "Test " + roleName,
		Email:  uuid.NewString() + "@example.com",
		Status: status,
		Role: &models.Role{
			ID:          uuid.New(),
			Name:        roleName,
			Permissions: perms,
		},
	}
}

func testRequest(status models.RequestStatus) *models.ServiceRequest {
	return &models.ServiceRequest{
		ID:            uuid.New(),
		Type:          models.TypeService,
		Description:   "Filter replacement",
		Status:        status,
		Priority:      models.PriorityNormal,
		CustomerID:    uuid.New(),
		RegionID:      uuid.New(),
		RequestedByID: uuid.New(),
		Version:       1,
		CreatedAt:     time.Now(),
	}
}
