package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestService runs the service request lifecycle: creation, the dual
// sales/service approval track, technician assignment and completion.
// Guards are validated before the transaction, then re-checked inside it
// so concurrent transitions cannot both win; the optimistic version check
// on the status update serializes the losers into a conflict error.
type RequestService struct {
	repo      repository.RequestRepositoryInterface
	directory repository.DirectoryRepositoryInterface
	notifier  *NotificationService
	logger    *logrus.Entry
}

// NewRequestService creates a new RequestService
func NewRequestService(repo repository.RequestRepositoryInterface, directory repository.DirectoryRepositoryInterface, notifier *NotificationService, logger *logrus.Logger) *RequestService {
	return &RequestService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		logger:    logger.WithField("component", "requests"),
	}
}

// CreateRequestInput carries the fields for a new service request.
type CreateRequestInput struct {
	Type           models.RequestType `json:"type" binding:"required"`
	Description    string             `json:"description" binding:"required"`
	CustomerID     uuid.UUID          `json:"customerId" binding:"required"`
	RegionID       uuid.UUID          `json:"regionId" binding:"required"`
	AssignedToID   *uuid.UUID         `json:"assignedToId"`
	Priority       models.Priority    `json:"priority"`
	InstallationID *uuid.UUID         `json:"installationId"`
	AdminNotes     string             `json:"adminNotes"`
}

// CreateRequest creates a service request. With assignedToId present the
// request starts at ASSIGNED; without it the request enters the approval
// chain at PENDING_APPROVAL.
func (s *RequestService) CreateRequest(ctx context.Context, actorID uuid.UUID, input CreateRequestInput) (*models.ServiceRequest, error) {
	if !isValidRequestType(input.Type) {
		return nil, validationf("Unknown request type: %s", input.Type)
	}

	if _, err := s.directory.GetCustomerByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Customer not found")
		}
		return nil, err
	}
	if _, err := s.directory.GetRegionByID(ctx, input.RegionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Region not found")
		}
		return nil, err
	}
	if input.InstallationID != nil {
		if _, err := s.directory.GetInstallationByID(ctx, *input.InstallationID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundf("Installation not found")
			}
			return nil, err
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	request := &models.ServiceRequest{
		Type:           input.Type,
		Description:    input.Description,
		Priority:       priority,
		CustomerID:     input.CustomerID,
		RegionID:       input.RegionID,
		InstallationID: input.InstallationID,
		RequestedByID:  actorID,
		AdminNotes:     input.AdminNotes,
		Status:         models.StatusPendingApproval,
	}

	if input.AssignedToID != nil {
		if _, err := s.validTechnician(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
		now := time.Now()
		request.Status = models.StatusAssigned
		request.AssignedToID = input.AssignedToID
		request.AssignedAt = &now
	}

	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if request.AssignedToID != nil {
		s.notifier.Notify(&actorID, *request.AssignedToID,
			fmt.Sprintf("New %s request assigned to you: %s", request.Type, request.Description))
	}

	s.logger.WithFields(logrus.Fields{
		"requestId": request.ID,
		"status":    request.Status,
	}).Info("service request created")

	return request, nil
}

// SalesApprove records the Sales Admin sign-off on a pending request
// created by sales staff. The status does not change; the service-side
// approval still has to happen.
func (s *RequestService) SalesApprove(ctx context.Context, requestID, approverID uuid.UUID, comments string) (*models.ServiceRequest, error) {
	approver, err := s.getUser(ctx, approverID, "Approver not found")
	if err != nil {
		return nil, err
	}
	if !models.SalesApproverRoles[approver.RoleName()] {
		return nil, forbiddenf("Role %s cannot record a sales approval", approver.RoleName())
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusPendingApproval {
		return nil, invalidStatef("Request is not pending approval (current status: %s)", request.Status)
	}
	if request.RequestedBy == nil || !models.SalesTrackRoles[request.RequestedBy.RoleName()] {
		return nil, validationf("Sales approval only applies to requests created by sales staff")
	}
	if request.SalesApproved {
		return nil, validationf("Request already approved by sales")
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if txRequest.Status != models.StatusPendingApproval {
			return invalidStatef("Request is not pending approval (current status: %s)", txRequest.Status)
		}
		if txRequest.SalesApproved {
			return validationf("Request already approved by sales")
		}

		now := time.Now()
		if err := txRepo.UpdateRequestFields(ctx, txRequest, map[string]interface{}{
			"sales_approved":    true,
			"sales_approved_by": approverID,
			"sales_approved_at": now,
		}); err != nil {
			return err
		}

		entry := &models.ApprovalHistory{
			RequestID:    requestID,
			ApproverID:   approverID,
			ApproverRole: approver.RoleName(),
			Status:       models.ApprovalStatusApproved,
			Comments:     comments,
		}
		if err := txRepo.CreateApprovalHistory(ctx, entry); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}

		request = txRequest
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.notifier.Notify(&approverID, request.RequestedByID, "Your service request received sales approval")
	return request, nil
}

// ServiceApprove moves a pending request to APPROVED. Requests created by
// sales staff must carry the sales sign-off first.
func (s *RequestService) ServiceApprove(ctx context.Context, requestID, approverID uuid.UUID, comments string) (*models.ServiceRequest, error) {
	approver, err := s.getUser(ctx, approverID, "Approver not found")
	if err != nil {
		return nil, err
	}
	if !models.ServiceApproverRoles[approver.RoleName()] {
		return nil, forbiddenf("Role %s cannot approve service requests", approver.RoleName())
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(request.Status, models.StatusApproved); err != nil {
		return nil, err
	}
	if request.RequestedBy != nil && models.SalesTrackRoles[request.RequestedBy.RoleName()] && !request.SalesApproved {
		return nil, validationf("Request must be approved by Sales Admin first")
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(txRequest.Status, models.StatusApproved); err != nil {
			return err
		}

		entry := &models.ApprovalHistory{
			RequestID:    requestID,
			ApproverID:   approverID,
			ApproverRole: approver.RoleName(),
			Status:       models.ApprovalStatusApproved,
			Comments:     comments,
		}
		if err := txRepo.CreateApprovalHistory(ctx, entry); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}

		now := time.Now()
		if err := txRepo.UpdateRequestStatus(ctx, txRequest, models.StatusApproved, map[string]interface{}{
			"approved_by_id": approverID,
			"approved_at":    now,
		}); err != nil {
			return err
		}

		request = txRequest
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.notifier.Notify(&approverID, request.RequestedByID, "Your service request was approved")
	return request, nil
}

// RejectRequest moves a pending request to the terminal REJECTED state.
func (s *RequestService) RejectRequest(ctx context.Context, requestID, approverID uuid.UUID, comments string) (*models.ServiceRequest, error) {
	if comments == "" {
		return nil, validationf("Rejection comments are required")
	}

	approver, err := s.getUser(ctx, approverID, "Approver not found")
	if err != nil {
		return nil, err
	}
	if !models.RejectRoles[approver.RoleName()] {
		return nil, forbiddenf("Role %s cannot reject service requests", approver.RoleName())
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(request.Status, models.StatusRejected); err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(txRequest.Status, models.StatusRejected); err != nil {
			return err
		}

		entry := &models.ApprovalHistory{
			RequestID:    requestID,
			ApproverID:   approverID,
			ApproverRole: approver.RoleName(),
			Status:       models.ApprovalStatusRejected,
			Comments:     comments,
		}
		if err := txRepo.CreateApprovalHistory(ctx, entry); err != nil {
			return fmt.Errorf("failed to record rejection: %w", err)
		}

		if err := txRepo.UpdateRequestStatus(ctx, txRequest, models.StatusRejected, map[string]interface{}{
			"rejection_reason": comments,
		}); err != nil {
			return err
		}

		request = txRequest
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.notifier.Notify(&approverID, request.RequestedByID,
		fmt.Sprintf("Your service request was rejected: %s", comments))
	return request, nil
}

// AutoAssignTechnician assigns an approved request to the least loaded
// active technician in the request's region. Ties go to the technician
// created earliest.
func (s *RequestService) AutoAssignTechnician(ctx context.Context, requestID, actorID uuid.UUID) (*models.ServiceRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(request.Status, models.StatusAssigned); err != nil {
		return nil, err
	}

	technicians, err := s.directory.ListUsersByRole(ctx, models.RoleTechnician, &request.RegionID, models.UserActive)
	if err != nil {
		return nil, err
	}
	if len(technicians) == 0 {
		return nil, notFoundf("No active technicians available in this region")
	}

	var chosen *models.User
	var minLoad int64 = -1
	for i := range technicians {
		load, err := s.repo.CountActiveAssignments(ctx, technicians[i].ID)
		if err != nil {
			return nil, err
		}
		if minLoad < 0 || load < minLoad {
			minLoad = load
			chosen = &technicians[i]
		}
	}

	return s.assign(ctx, request, chosen.ID, actorID)
}

// ManualAssignTechnician assigns an approved request to a chosen technician.
func (s *RequestService) ManualAssignTechnician(ctx context.Context, requestID, technicianID, actorID uuid.UUID) (*models.ServiceRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(request.Status, models.StatusAssigned); err != nil {
		return nil, err
	}
	if _, err := s.validTechnician(ctx, technicianID); err != nil {
		return nil, err
	}

	return s.assign(ctx, request, technicianID, actorID)
}

func (s *RequestService) assign(ctx context.Context, request *models.ServiceRequest, technicianID, actorID uuid.UUID) (*models.ServiceRequest, error) {
	err := s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, request.ID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(txRequest.Status, models.StatusAssigned); err != nil {
			return err
		}

		now := time.Now()
		if err := txRepo.UpdateRequestStatus(ctx, txRequest, models.StatusAssigned, map[string]interface{}{
			"assigned_to_id": technicianID,
			"assigned_at":    now,
		}); err != nil {
			return err
		}

		request = txRequest
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.notifier.Notify(&actorID, technicianID,
		fmt.Sprintf("New %s request assigned to you: %s", request.Type, request.Description))

	s.logger.WithFields(logrus.Fields{
		"requestId":    request.ID,
		"technicianId": technicianID,
	}).Info("request assigned")

	return request, nil
}

// ReassignTechnician changes the assignee of a request that has not yet
// been started, recording the change in the reassignment history.
func (s *RequestService) ReassignTechnician(ctx context.Context, requestID, newTechnicianID, actorID uuid.UUID, reason string) (*models.ServiceRequest, error) {
	if reason == "" {
		return nil, validationf("Reassignment reason is required")
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusAssigned {
		return nil, invalidStatef("Reassignment is only allowed before work starts (current status: %s)", request.Status)
	}
	if request.AssignedToID != nil && *request.AssignedToID == newTechnicianID {
		return nil, validationf("New technician is the same as the current assignee")
	}
	if _, err := s.validTechnician(ctx, newTechnicianID); err != nil {
		return nil, err
	}

	previousTechID := request.AssignedToID

	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if txRequest.Status != models.StatusAssigned {
			return invalidStatef("Reassignment is only allowed before work starts (current status: %s)", txRequest.Status)
		}

		entry := &models.ReassignmentHistory{
			RequestID:      requestID,
			ReassignedByID: actorID,
			PreviousTechID: txRequest.AssignedToID,
			NewTechID:      newTechnicianID,
			Reason:         reason,
		}
		if err := txRepo.CreateReassignmentHistory(ctx, entry); err != nil {
			return fmt.Errorf("failed to record reassignment: %w", err)
		}

		now := time.Now()
		if err := txRepo.UpdateRequestFields(ctx, txRequest, map[string]interface{}{
			"assigned_to_id": newTechnicianID,
			"assigned_at":    now,
		}); err != nil {
			return err
		}

		request = txRequest
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if previousTechID != nil {
		s.notifier.Notify(&actorID, *previousTechID,
			fmt.Sprintf("You were unassigned from a service request. Reason: %s", reason))
	}
	s.notifier.Notify(&actorID, newTechnicianID,
		fmt.Sprintf("Service request reassigned to you: %s", request.Description))

	return request, nil
}

// AcknowledgeCompletion confirms finished work and closes the request.
func (s *RequestService) AcknowledgeCompletion(ctx context.Context, requestID, actorID uuid.UUID, comments string) (*models.ServiceRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusWorkCompleted {
		return nil, invalidStatef("Work must be completed first")
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if txRequest.Status != models.StatusWorkCompleted {
			return invalidStatef("Work must be completed first")
		}

		now := time.Now()
		if err := txRepo.UpdateRequestStatus(ctx, txRequest, models.StatusCompleted, map[string]interface{}{
			"acknowledged_by_id":      actorID,
			"acknowledged_at":         now,
			"completed_at":            now,
			"acknowledgment_comments": comments,
		}); err != nil {
			return err
		}

		request = txRequest
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if request.AssignedToID != nil {
		s.notifier.Notify(&actorID, *request.AssignedToID, "Your completed work was acknowledged")
	}
	return request, nil
}

// GetRequest retrieves a request with its relations.
func (s *RequestService) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return s.getRequest(ctx, requestID)
}

// ListRequests lists requests visible to the actor. Technicians see their
// assignments, sales staff the requests they created, management everything.
func (s *RequestService) ListRequests(ctx context.Context, actorID uuid.UUID, status string, limit, offset int) ([]models.ServiceRequest, int64, error) {
	actor, err := s.getUser(ctx, actorID, "User not found")
	if err != nil {
		return nil, 0, err
	}

	filter := scopeFilter(actor)
	filter.Status = status
	filter.Limit = limit
	filter.Offset = offset
	return s.repo.ListRequests(ctx, filter)
}

// GetApprovalHistory retrieves the approval trail for a request.
func (s *RequestService) GetApprovalHistory(ctx context.Context, requestID uuid.UUID) ([]models.ApprovalHistory, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.GetApprovalHistory(ctx, requestID)
}

// GetReassignmentHistory retrieves the reassignment trail for a request.
func (s *RequestService) GetReassignmentHistory(ctx context.Context, requestID uuid.UUID) ([]models.ReassignmentHistory, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.GetReassignmentHistory(ctx, requestID)
}

// GetUsedProducts retrieves the used-product reconciliation rows for a
// request.
func (s *RequestService) GetUsedProducts(ctx context.Context, requestID uuid.UUID) ([]models.ServiceUsedProduct, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.GetUsedProducts(ctx, requestID)
}

// GetCustomerServiceHistory lists past requests for the customer behind
// the given request, newest first.
func (s *RequestService) GetCustomerServiceHistory(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]models.ServiceRequest, int64, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, 0, err
	}

	customerID := request.CustomerID
	filter := repository.RequestFilter{
		CustomerID: &customerID,
		Limit:      limit,
		Offset:     offset,
	}
	return s.repo.ListRequests(ctx, filter)
}

// TechnicianWorkload pairs a technician with their current active load.
type TechnicianWorkload struct {
	Technician        models.User `json:"technician"`
	ActiveAssignments int64       `json:"activeAssignments"`
}

// ListTechnicianWorkloads returns active technicians with their current
// assignment counts, optionally scoped to a region. Used by dispatchers
// to pick an assignee by hand.
func (s *RequestService) ListTechnicianWorkloads(ctx context.Context, regionID *uuid.UUID) ([]TechnicianWorkload, error) {
	technicians, err := s.directory.ListUsersByRole(ctx, models.RoleTechnician, regionID, models.UserActive)
	if err != nil {
		return nil, err
	}

	workloads := make([]TechnicianWorkload, 0, len(technicians))
	for i := range technicians {
		load, err := s.repo.CountActiveAssignments(ctx, technicians[i].ID)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, TechnicianWorkload{
			Technician:        technicians[i],
			ActiveAssignments: load,
		})
	}
	return workloads, nil
}

// DashboardStats aggregates request counts per status.
type DashboardStats struct {
	Total    int64                          `json:"total"`
	ByStatus map[models.RequestStatus]int64 `json:"byStatus"`
}

// GetDashboardStats returns per-status request counts scoped to what the
// actor is allowed to see. Read-only.
func (s *RequestService) GetDashboardStats(ctx context.Context, actorID uuid.UUID) (*DashboardStats, error) {
	actor, err := s.getUser(ctx, actorID, "User not found")
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, scopeFilter(actor))
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{ByStatus: counts}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}

// --- helpers ---

func (s *RequestService) getRequest(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	request, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Service request not found")
		}
		return nil, err
	}
	return request, nil
}

func (s *RequestService) getUser(ctx context.Context, id uuid.UUID, notFoundMsg string) (*models.User, error) {
	user, err := s.directory.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("%s", notFoundMsg)
		}
		return nil, err
	}
	return user, nil
}

// validTechnician resolves id to an active user holding the Technician role.
func (s *RequestService) validTechnician(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.directory.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Invalid technician or technician is not active")
		}
		return nil, err
	}
	if user.RoleName() != models.RoleTechnician || !user.IsActive() {
		return nil, notFoundf("Invalid technician or technician is not active")
	}
	return user, nil
}

// scopeFilter narrows listings and stats to what the user may see.
func scopeFilter(user *models.User) repository.RequestFilter {
	filter := repository.RequestFilter{}
	switch {
	case user.RoleName() == models.RoleTechnician:
		id := user.ID
		filter.AssignedToID = &id
	case models.SalesTrackRoles[user.RoleName()]:
		id := user.ID
		filter.RequestedByID = &id
	}
	return filter
}

func isValidRequestType(t models.RequestType) bool {
	switch t {
	case models.TypeService, models.TypeInstallation, models.TypeReInstallation,
		models.TypeComplaint, models.TypeEnquiry:
		return true
	}
	return false
}

// mapRepoError converts repository sentinels surfacing from a transaction
// into caller-facing errors.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return conflictf("Request was modified concurrently, please retry")
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("Service request not found")
	default:
		return err
	}
}
