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

// WorkflowService covers the technician side of a request: the work
// timer, media attachments and the single-shot used-product
// reconciliation that debits stock.
type WorkflowService struct {
	repo      repository.RequestRepositoryInterface
	directory repository.DirectoryRepositoryInterface
	notifier  *NotificationService
	logger    *logrus.Entry
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(repo repository.RequestRepositoryInterface, directory repository.DirectoryRepositoryInterface, notifier *NotificationService, logger *logrus.Logger) *WorkflowService {
	return &WorkflowService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		logger:    logger.WithField("component", "workflow"),
	}
}

// StartWork opens a timed work session and moves the request to
// IN_PROGRESS. Only the assigned technician may start, and only once.
func (s *WorkflowService) StartWork(ctx context.Context, technicianID, requestID uuid.UUID) (*models.WorkLog, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.AssignedToID == nil || *request.AssignedToID != technicianID {
		return nil, forbiddenf("Not assigned to you")
	}

	// The open-log check runs before the status guard so a double start
	// reports "already started" rather than a status mismatch.
	if _, err := s.repo.GetOpenWorkLog(ctx, requestID, technicianID); err == nil {
		return nil, validationf("Work already started")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := ValidateTransition(request.Status, models.StatusInProgress); err != nil {
		return nil, err
	}

	var workLog *models.WorkLog
	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(txRequest.Status, models.StatusInProgress); err != nil {
			return err
		}

		workLog = &models.WorkLog{
			RequestID:    requestID,
			TechnicianID: technicianID,
			StartTime:    time.Now(),
		}
		if err := txRepo.CreateWorkLog(ctx, workLog); err != nil {
			return fmt.Errorf("failed to create work log: %w", err)
		}

		return txRepo.UpdateRequestStatus(ctx, txRequest, models.StatusInProgress, nil)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"requestId":    requestID,
		"technicianId": technicianID,
	}).Info("work started")

	return workLog, nil
}

// StopWork closes the open session, records its duration in seconds and
// moves the request to WORK_COMPLETED.
func (s *WorkflowService) StopWork(ctx context.Context, technicianID, requestID uuid.UUID, notes string) (*models.WorkLog, error) {
	workLog, err := s.repo.GetOpenWorkLog(ctx, requestID, technicianID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Active work log not found")
		}
		return nil, err
	}

	if workLog.StartTime.IsZero() {
		return nil, fmt.Errorf("work log %s has no start time", workLog.ID)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		txRequest, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(txRequest.Status, models.StatusWorkCompleted); err != nil {
			return err
		}

		now := time.Now()
		duration := int64(now.Sub(workLog.StartTime).Seconds())
		if duration < 0 {
			duration = 0
		}
		workLog.EndTime = &now
		workLog.Duration = &duration
		if notes != "" {
			workLog.Notes = notes
		}
		if err := txRepo.CloseWorkLog(ctx, workLog); err != nil {
			return err
		}

		return txRepo.UpdateRequestStatus(ctx, txRequest, models.StatusWorkCompleted, nil)
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"duration":  *workLog.Duration,
	}).Info("work stopped")

	return workLog, nil
}

// UsedProductInput is one line of the reconciliation batch.
type UsedProductInput struct {
	ProductID    uuid.UUID `json:"productId" binding:"required"`
	QuantityUsed int       `json:"quantityUsed" binding:"required,gt=0"`
	Notes        string    `json:"notes"`
}

// AddUsedProducts records consumed inventory for a completed request and
// debits stock. The whole batch commits atomically or not at all, and a
// request can only be reconciled once.
func (s *WorkflowService) AddUsedProducts(ctx context.Context, requestID, technicianID uuid.UUID, items []UsedProductInput) ([]models.ServiceUsedProduct, error) {
	if len(items) == 0 {
		return nil, validationf("At least one product entry is required")
	}

	technician, err := s.directory.GetUserByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Technician not found")
		}
		return nil, err
	}
	if technician.RoleName() != models.RoleTechnician {
		return nil, forbiddenf("Only technicians can record used products")
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.AssignedToID == nil || *request.AssignedToID != technicianID {
		return nil, forbiddenf("Not assigned to you")
	}
	if request.Status != models.StatusWorkCompleted {
		return nil, invalidStatef("Used products can only be added after work is completed (current status: %s)", request.Status)
	}

	existing, err := s.repo.CountUsedProducts(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, validationf("Used products already recorded for this request")
	}

	// Validate every line before committing anything.
	products := make(map[uuid.UUID]*models.Product, len(items))
	for _, item := range items {
		product, err := s.directory.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundf("Product %s not found", item.ProductID)
			}
			return nil, err
		}
		if product.Stock < item.QuantityUsed {
			return nil, validationf("Insufficient stock for product %s. Available: %d, Requested: %d",
				product.Name, product.Stock, item.QuantityUsed)
		}
		products[item.ProductID] = product
	}

	var created []models.ServiceUsedProduct
	err = s.repo.WithTransaction(ctx, func(txRepo repository.RequestRepositoryInterface) error {
		count, err := txRepo.CountUsedProducts(ctx, requestID)
		if err != nil {
			return err
		}
		if count > 0 {
			return validationf("Used products already recorded for this request")
		}

		for _, item := range items {
			row := &models.ServiceUsedProduct{
				RequestID:     requestID,
				ProductID:     item.ProductID,
				QuantityUsed:  item.QuantityUsed,
				Notes:         item.Notes,
				ConfirmedByID: technicianID,
			}
			if err := txRepo.CreateUsedProduct(ctx, row); err != nil {
				return fmt.Errorf("failed to record used product: %w", err)
			}

			if err := txRepo.DecrementStock(ctx, item.ProductID, item.QuantityUsed); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					product := products[item.ProductID]
					return validationf("Insufficient stock for product %s. Available: %d, Requested: %d",
						product.Name, product.Stock, item.QuantityUsed)
				}
				return err
			}

			history := &models.StockHistory{
				ProductID:      item.ProductID,
				QuantityChange: -item.QuantityUsed,
				Reason:         fmt.Sprintf("Consumed by service request %s", requestID),
				ReferenceID:    &requestID,
				CreatedByID:    &technicianID,
			}
			if err := txRepo.CreateStockHistory(ctx, history); err != nil {
				return fmt.Errorf("failed to record stock history: %w", err)
			}

			created = append(created, *row)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"items":     len(created),
	}).Info("used products recorded")

	return created, nil
}

// AddWorkMedia attaches a photo or document to a request the technician
// is working on.
func (s *WorkflowService) AddWorkMedia(ctx context.Context, requestID, technicianID uuid.UUID, mediaType, url, description string) (*models.WorkMedia, error) {
	if url == "" {
		return nil, validationf("Media URL is required")
	}
	switch mediaType {
	case "IMAGE", "VIDEO", "DOCUMENT":
	default:
		return nil, validationf("Unknown media type: %s", mediaType)
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.AssignedToID == nil || *request.AssignedToID != technicianID {
		return nil, forbiddenf("Not assigned to you")
	}

	media := &models.WorkMedia{
		RequestID:    requestID,
		UploadedByID: technicianID,
		MediaType:    mediaType,
		URL:          url,
		Description:  description,
	}
	if err := s.repo.CreateWorkMedia(ctx, media); err != nil {
		return nil, fmt.Errorf("failed to attach media: %w", err)
	}
	return media, nil
}

// GetMyAssignments lists the technician's requests, optionally by status.
func (s *WorkflowService) GetMyAssignments(ctx context.Context, technicianID uuid.UUID, status string, limit, offset int) ([]models.ServiceRequest, int64, error) {
	filter := repository.RequestFilter{
		AssignedToID: &technicianID,
		Status:       status,
		Limit:        limit,
		Offset:       offset,
	}
	return s.repo.ListRequests(ctx, filter)
}

// TechnicianStats summarizes a technician's assignments and time on the
// clock across closed work sessions.
type TechnicianStats struct {
	Total            int64                          `json:"total"`
	ByStatus         map[models.RequestStatus]int64 `json:"byStatus"`
	TotalWorkSeconds int64                          `json:"totalWorkSeconds"`
}

// GetMyStats aggregates the technician's request counts per status and
// total logged work time.
func (s *WorkflowService) GetMyStats(ctx context.Context, technicianID uuid.UUID) (*TechnicianStats, error) {
	counts, err := s.repo.CountByStatus(ctx, repository.RequestFilter{AssignedToID: &technicianID})
	if err != nil {
		return nil, err
	}

	totalSeconds, err := s.repo.SumWorkDuration(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	stats := &TechnicianStats{ByStatus: counts, TotalWorkSeconds: totalSeconds}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}

// GetWorkLogs lists all work sessions for a request.
func (s *WorkflowService) GetWorkLogs(ctx context.Context, requestID uuid.UUID) ([]models.WorkLog, error) {
	if _, err := s.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.GetWorkLogs(ctx, requestID)
}

func (s *WorkflowService) getRequest(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	request, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Service request not found")
		}
		return nil, err
	}
	return request, nil
}
