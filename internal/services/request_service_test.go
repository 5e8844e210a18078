package services

import (
	"context"
	"testing"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestRequestService(repo *MockRequestRepository, directory *MockDirectoryRepository) *RequestService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &RequestService{
		repo:      repo,
		directory: directory,
		notifier:  NewNotificationService(nil, logger),
		logger:    logger.WithField("component", "requests"),
	}
}

// ===========================================
// CreateRequest
// ===========================================

func TestCreateRequest_DirectAssignment(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	technician := testUser(models.RoleTechnician, models.UserActive)
	input := CreateRequestInput{
		Type:         models.TypeInstallation,
		Description:  "New filter installation",
		CustomerID:   uuid.New(),
		RegionID:     uuid.New(),
		AssignedToID: &technician.ID,
	}

	mockDir.On("GetCustomerByID", ctx, input.CustomerID).Return(&models.Customer{ID: input.CustomerID}, nil)
	mockDir.On("GetRegionByID", ctx, input.RegionID).Return(&models.Region{ID: input.RegionID}, nil)
	mockDir.On("GetUserByID", ctx, technician.ID).Return(technician, nil)
	mockRepo.On("CreateRequest", ctx, mock.AnythingOfType("*models.ServiceRequest")).Return(nil)

	request, err := service.CreateRequest(ctx, uuid.New(), input)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, request.Status)
	assert.Equal(t, technician.ID, *request.AssignedToID)
	assert.NotNil(t, request.AssignedAt)
	assert.Equal(t, models.PriorityNormal, request.Priority)
	mockRepo.AssertExpectations(t)
	mockDir.AssertExpectations(t)
}

func TestCreateRequest_EntersApprovalChain(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	input := CreateRequestInput{
		Type:        models.TypeComplaint,
		Description: "Leaking filter unit",
		CustomerID:  uuid.New(),
		RegionID:    uuid.New(),
		Priority:    models.PriorityHigh,
	}

	mockDir.On("GetCustomerByID", ctx, input.CustomerID).Return(&models.Customer{ID: input.CustomerID}, nil)
	mockDir.On("GetRegionByID", ctx, input.RegionID).Return(&models.Region{ID: input.RegionID}, nil)
	mockRepo.On("CreateRequest", ctx, mock.AnythingOfType("*models.ServiceRequest")).Return(nil)

	request, err := service.CreateRequest(ctx, uuid.New(), input)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, request.Status)
	assert.Nil(t, request.AssignedToID)
	assert.Equal(t, models.PriorityHigh, request.Priority)
	mockRepo.AssertExpectations(t)
}

func TestCreateRequest_InactiveTechnician(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	technician := testUser(models.RoleTechnician, models.UserInactive)
	input := CreateRequestInput{
		Type:         models.TypeService,
		Description:  "Filter service",
		CustomerID:   uuid.New(),
		RegionID:     uuid.New(),
		AssignedToID: &technician.ID,
	}

	mockDir.On("GetCustomerByID", ctx, input.CustomerID).Return(&models.Customer{ID: input.CustomerID}, nil)
	mockDir.On("GetRegionByID", ctx, input.RegionID).Return(&models.Region{ID: input.RegionID}, nil)
	mockDir.On("GetUserByID", ctx, technician.ID).Return(technician, nil)

	request, err := service.CreateRequest(ctx, uuid.New(), input)

	assert.Nil(t, request)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Invalid technician or technician is not active", err.Error())
}

func TestCreateRequest_AssigneeNotTechnician(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	salesman := testUser(models.RoleSalesman, models.UserActive)
	input := CreateRequestInput{
		Type:         models.TypeService,
		Description:  "Filter service",
		CustomerID:   uuid.New(),
		RegionID:     uuid.New(),
		AssignedToID: &salesman.ID,
	}

	mockDir.On("GetCustomerByID", ctx, input.CustomerID).Return(&models.Customer{ID: input.CustomerID}, nil)
	mockDir.On("GetRegionByID", ctx, input.RegionID).Return(&models.Region{ID: input.RegionID}, nil)
	mockDir.On("GetUserByID", ctx, salesman.ID).Return(salesman, nil)

	_, err := service.CreateRequest(ctx, uuid.New(), input)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Invalid technician or technician is not active", err.Error())
}

func TestCreateRequest_UnknownType(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)

	_, err := service.CreateRequest(context.Background(), uuid.New(), CreateRequestInput{
		Type:        "REPAIR",
		Description: "Something",
		CustomerID:  uuid.New(),
		RegionID:    uuid.New(),
	})

	assert.ErrorIs(t, err, ErrValidation)
}

// ===========================================
// Sales approval
// ===========================================

func TestSalesApprove_Success(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleSalesAdmin, models.UserActive)
	request := testRequest(models.StatusPendingApproval)
	request.RequestedBy = testUser(models.RoleSalesman, models.UserActive)
	request.RequestedByID = request.RequestedBy.ID

	var recorded *models.ApprovalHistory
	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("UpdateRequestFields", ctx, request, mock.Anything).Return(nil)
	mockRepo.On("CreateApprovalHistory", ctx, mock.AnythingOfType("*models.ApprovalHistory")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*models.ApprovalHistory)
		}).Return(nil)

	result, err := service.SalesApprove(ctx, request.ID, approver.ID, "stock confirmed")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, result.Status)
	assert.NotNil(t, recorded)
	assert.Equal(t, models.ApprovalStatusApproved, recorded.Status)
	assert.Equal(t, models.RoleSalesAdmin, recorded.ApproverRole)
	assert.Equal(t, "stock confirmed", recorded.Comments)
	mockRepo.AssertExpectations(t)
}

func TestSalesApprove_AlreadyApproved(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleSalesAdmin, models.UserActive)
	request := testRequest(models.StatusPendingApproval)
	request.RequestedBy = testUser(models.RoleSalesman, models.UserActive)
	request.SalesApproved = true

	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.SalesApprove(ctx, request.ID, approver.ID, "")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Request already approved by sales", err.Error())
	mockRepo.AssertNotCalled(t, "CreateApprovalHistory", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateRequestFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestSalesApprove_ServiceTrackCreator(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleSalesAdmin, models.UserActive)
	request := testRequest(models.StatusPendingApproval)
	request.RequestedBy = testUser(models.RoleServiceManager, models.UserActive)

	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.SalesApprove(ctx, request.ID, approver.ID, "")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Sales approval only applies to requests created by sales staff", err.Error())
}

func TestSalesApprove_WrongRole(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleServiceManager, models.UserActive)
	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)

	_, err := service.SalesApprove(ctx, uuid.New(), approver.ID, "")

	assert.ErrorIs(t, err, ErrForbidden)
}

// ===========================================
// Service approval and rejection
// ===========================================

func TestServiceApprove_Success(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleServiceManager, models.UserActive)
	request := testRequest(models.StatusPendingApproval)

	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("CreateApprovalHistory", ctx, mock.AnythingOfType("*models.ApprovalHistory")).Return(nil)
	mockRepo.On("UpdateRequestStatus", ctx, request, models.StatusApproved, mock.Anything).Return(nil)

	result, err := service.ServiceApprove(ctx, request.ID, approver.ID, "go ahead")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, result.Status)
	mockRepo.AssertExpectations(t)
}

func TestServiceApprove_SalesSignOffMissing(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleServiceAdmin, models.UserActive)
	request := testRequest(models.StatusPendingApproval)
	request.RequestedBy = testUser(models.RoleSalesman, models.UserActive)
	request.SalesApproved = false

	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.ServiceApprove(ctx, request.ID, approver.ID, "")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Request must be approved by Sales Admin first", err.Error())
	mockRepo.AssertNotCalled(t, "UpdateRequestStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceApprove_WrongStatus(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleSuperAdmin, models.UserActive)
	request := testRequest(models.StatusAssigned)

	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.ServiceApprove(ctx, request.ID, approver.ID, "")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestServiceApprove_VersionConflict(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleServiceManager, models.UserActive)
	request := testRequest(models.StatusPendingApproval)

	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("CreateApprovalHistory", ctx, mock.AnythingOfType("*models.ApprovalHistory")).Return(nil)
	mockRepo.On("UpdateRequestStatus", ctx, request, models.StatusApproved, mock.Anything).
		Return(repository.ErrVersionConflict)

	_, err := service.ServiceApprove(ctx, request.ID, approver.ID, "")

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Request was modified concurrently, please retry", err.Error())
}

func TestRejectRequest_Success(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleSalesAdmin, models.UserActive)
	request := testRequest(models.StatusPendingApproval)

	var recorded *models.ApprovalHistory
	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("CreateApprovalHistory", ctx, mock.AnythingOfType("*models.ApprovalHistory")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*models.ApprovalHistory)
		}).Return(nil)
	mockRepo.On("UpdateRequestStatus", ctx, request, models.StatusRejected, mock.Anything).Return(nil)

	result, err := service.RejectRequest(ctx, request.ID, approver.ID, "duplicate request")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusRejected, result.Status)
	assert.Equal(t, models.ApprovalStatusRejected, recorded.Status)
	assert.Equal(t, "duplicate request", recorded.Comments)
	mockRepo.AssertExpectations(t)
}

func TestRejectRequest_CommentsRequired(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)

	_, err := service.RejectRequest(context.Background(), uuid.New(), uuid.New(), "")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Rejection comments are required", err.Error())
}

func TestRejectRequest_SalesManagerForbidden(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	approver := testUser(models.RoleSalesManager, models.UserActive)
	mockDir.On("GetUserByID", ctx, approver.ID).Return(approver, nil)

	_, err := service.RejectRequest(ctx, uuid.New(), approver.ID, "no budget")

	assert.ErrorIs(t, err, ErrForbidden)
}

// ===========================================
// Assignment
// ===========================================

func TestAutoAssign_PicksLeastLoaded(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	request := testRequest(models.StatusApproved)
	busy := testUser(models.RoleTechnician, models.UserActive)
	idle := testUser(models.RoleTechnician, models.UserActive)

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockDir.On("ListUsersByRole", ctx, models.RoleTechnician, &request.RegionID, models.UserActive).
		Return([]models.User{*busy, *idle}, nil)
	mockRepo.On("CountActiveAssignments", ctx, busy.ID).Return(int64(3), nil)
	mockRepo.On("CountActiveAssignments", ctx, idle.ID).Return(int64(1), nil)
	mockRepo.On("UpdateRequestStatus", ctx, request, models.StatusAssigned,
		mock.MatchedBy(func(extra map[string]interface{}) bool {
			return extra["assigned_to_id"] == idle.ID
		})).Return(nil)

	result, err := service.AutoAssignTechnician(ctx, request.ID, uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, result.Status)
	mockRepo.AssertExpectations(t)
}

func TestAutoAssign_TieKeepsEarliestCreated(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	request := testRequest(models.StatusApproved)
	first := testUser(models.RoleTechnician, models.UserActive)
	second := testUser(models.RoleTechnician, models.UserActive)

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	// ListUsersByRole orders by creation time ascending.
	mockDir.On("ListUsersByRole", ctx, models.RoleTechnician, &request.RegionID, models.UserActive).
		Return([]models.User{*first, *second}, nil)
	mockRepo.On("CountActiveAssignments", ctx, first.ID).Return(int64(2), nil)
	mockRepo.On("CountActiveAssignments", ctx, second.ID).Return(int64(2), nil)
	mockRepo.On("UpdateRequestStatus", ctx, request, models.StatusAssigned,
		mock.MatchedBy(func(extra map[string]interface{}) bool {
			return extra["assigned_to_id"] == first.ID
		})).Return(nil)

	_, err := service.AutoAssignTechnician(ctx, request.ID, uuid.New())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAutoAssign_NoTechniciansInRegion(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	request := testRequest(models.StatusApproved)

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockDir.On("ListUsersByRole", ctx, models.RoleTechnician, &request.RegionID, models.UserActive).
		Return([]models.User{}, nil)

	_, err := service.AutoAssignTechnician(ctx, request.ID, uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "No active technicians available in this region", err.Error())
}

func TestManualAssign_WrongStatus(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	request := testRequest(models.StatusPendingApproval)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.ManualAssignTechnician(ctx, request.ID, uuid.New(), uuid.New())

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "Cannot move request from PENDING_APPROVAL to ASSIGNED", err.Error())
}

// ===========================================
// Reassignment
// ===========================================

func TestReassign_Success(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	oldTech := testUser(models.RoleTechnician, models.UserActive)
	newTech := testUser(models.RoleTechnician, models.UserActive)
	request := testRequest(models.StatusAssigned)
	request.AssignedToID = &oldTech.ID

	var recorded *models.ReassignmentHistory
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockDir.On("GetUserByID", ctx, newTech.ID).Return(newTech, nil)
	mockRepo.On("CreateReassignmentHistory", ctx, mock.AnythingOfType("*models.ReassignmentHistory")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*models.ReassignmentHistory)
		}).Return(nil)
	mockRepo.On("UpdateRequestFields", ctx, request, mock.Anything).Return(nil)

	actorID := uuid.New()
	_, err := service.ReassignTechnician(ctx, request.ID, newTech.ID, actorID, "technician on leave")

	assert.NoError(t, err)
	assert.Equal(t, oldTech.ID, *recorded.PreviousTechID)
	assert.Equal(t, newTech.ID, recorded.NewTechID)
	assert.Equal(t, actorID, recorded.ReassignedByID)
	assert.Equal(t, "technician on leave", recorded.Reason)
	mockRepo.AssertExpectations(t)
}

func TestReassign_AfterWorkStarted(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	tech := testUser(models.RoleTechnician, models.UserActive)
	request := testRequest(models.StatusInProgress)
	request.AssignedToID = &tech.ID

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.ReassignTechnician(ctx, request.ID, uuid.New(), uuid.New(), "switch")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "Reassignment is only allowed before work starts (current status: IN_PROGRESS)", err.Error())
	mockRepo.AssertNotCalled(t, "CreateReassignmentHistory", mock.Anything, mock.Anything)
}

func TestReassign_ReasonRequired(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)

	_, err := service.ReassignTechnician(context.Background(), uuid.New(), uuid.New(), uuid.New(), "")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Reassignment reason is required", err.Error())
}

func TestReassign_SameTechnician(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	tech := testUser(models.RoleTechnician, models.UserActive)
	request := testRequest(models.StatusAssigned)
	request.AssignedToID = &tech.ID

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.ReassignTechnician(ctx, request.ID, tech.ID, uuid.New(), "swap")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "New technician is the same as the current assignee", err.Error())
}

// ===========================================
// Completion
// ===========================================

func TestAcknowledgeCompletion_Success(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	tech := testUser(models.RoleTechnician, models.UserActive)
	request := testRequest(models.StatusWorkCompleted)
	request.AssignedToID = &tech.ID

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("UpdateRequestStatus", ctx, request, models.StatusCompleted, mock.Anything).Return(nil)

	result, err := service.AcknowledgeCompletion(ctx, request.ID, uuid.New(), "all good")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Status)
	mockRepo.AssertExpectations(t)
}

func TestAcknowledgeCompletion_WorkNotDone(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	request := testRequest(models.StatusInProgress)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	_, err := service.AcknowledgeCompletion(ctx, request.ID, uuid.New(), "")

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "Work must be completed first", err.Error())
	mockRepo.AssertNotCalled(t, "UpdateRequestStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ===========================================
// Listing and stats
// ===========================================

func TestListRequests_TechnicianScope(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	tech := testUser(models.RoleTechnician, models.UserActive)

	mockDir.On("GetUserByID", ctx, tech.ID).Return(tech, nil)
	mockRepo.On("ListRequests", ctx, mock.MatchedBy(func(f repository.RequestFilter) bool {
		return f.AssignedToID != nil && *f.AssignedToID == tech.ID && f.RequestedByID == nil
	})).Return([]models.ServiceRequest{}, int64(0), nil)

	_, _, err := service.ListRequests(ctx, tech.ID, "", 20, 0)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestListRequests_SalesScope(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	salesman := testUser(models.RoleSalesman, models.UserActive)

	mockDir.On("GetUserByID", ctx, salesman.ID).Return(salesman, nil)
	mockRepo.On("ListRequests", ctx, mock.MatchedBy(func(f repository.RequestFilter) bool {
		return f.RequestedByID != nil && *f.RequestedByID == salesman.ID && f.AssignedToID == nil
	})).Return([]models.ServiceRequest{}, int64(0), nil)

	_, _, err := service.ListRequests(ctx, salesman.ID, "", 20, 0)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestGetDashboardStats_Totals(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	admin := testUser(models.RoleServiceAdmin, models.UserActive)
	counts := map[models.RequestStatus]int64{
		models.StatusPendingApproval: 4,
		models.StatusInProgress:      2,
		models.StatusCompleted:       10,
	}

	mockDir.On("GetUserByID", ctx, admin.ID).Return(admin, nil)
	mockRepo.On("CountByStatus", ctx, mock.MatchedBy(func(f repository.RequestFilter) bool {
		return f.AssignedToID == nil && f.RequestedByID == nil
	})).Return(counts, nil)

	stats, err := service.GetDashboardStats(ctx, admin.ID)

	assert.NoError(t, err)
	assert.Equal(t, int64(16), stats.Total)
	assert.Equal(t, int64(4), stats.ByStatus[models.StatusPendingApproval])
}

func TestGetCustomerServiceHistory_FiltersByCustomer(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	request := testRequest(models.StatusCompleted)

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("ListRequests", ctx, mock.MatchedBy(func(f repository.RequestFilter) bool {
		return f.CustomerID != nil && *f.CustomerID == request.CustomerID
	})).Return([]models.ServiceRequest{*request}, int64(1), nil)

	history, total, err := service.GetCustomerServiceHistory(ctx, request.ID, 20, 0)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, history, 1)
	mockRepo.AssertExpectations(t)
}

func TestListTechnicianWorkloads_ReturnsLoads(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	regionID := uuid.New()
	techA := testUser(models.RoleTechnician, models.UserActive)
	techB := testUser(models.RoleTechnician, models.UserActive)

	mockDir.On("ListUsersByRole", ctx, models.RoleTechnician, &regionID, models.UserActive).
		Return([]models.User{*techA, *techB}, nil)
	mockRepo.On("CountActiveAssignments", ctx, techA.ID).Return(int64(3), nil)
	mockRepo.On("CountActiveAssignments", ctx, techB.ID).Return(int64(0), nil)

	workloads, err := service.ListTechnicianWorkloads(ctx, &regionID)

	assert.NoError(t, err)
	assert.Len(t, workloads, 2)
	assert.Equal(t, techA.ID, workloads[0].Technician.ID)
	assert.Equal(t, int64(3), workloads[0].ActiveAssignments)
	assert.Equal(t, int64(0), workloads[1].ActiveAssignments)
	mockRepo.AssertExpectations(t)
}

func TestGetUsedProducts_RequestNotFound(t *testing.T) {
	mockRepo := new(MockRequestRepository)
	mockDir := new(MockDirectoryRepository)
	service := newTestRequestService(mockRepo, mockDir)
	ctx := context.Background()

	requestID := uuid.New()
	mockRepo.On("GetRequestByID", ctx, requestID).Return(nil, repository.ErrNotFound)

	_, err := service.GetUsedProducts(ctx, requestID)

	assert.ErrorIs(t, err, ErrNotFound)
	mockRepo.AssertNotCalled(t, "GetUsedProducts")
}
