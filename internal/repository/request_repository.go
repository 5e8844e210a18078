package repository

import (
	"context"
	"errors"
	"time"

	"aquaserve-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrVersionConflict   = errors.New("version conflict - record was modified by another request")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// RequestFilter narrows request listings.
type RequestFilter struct {
	Status        string
	AssignedToID  *uuid.UUID
	RequestedByID *uuid.UUID
	RegionID      *uuid.UUID
	CustomerID    *uuid.UUID
	Limit         int
	Offset        int
}

// RequestRepositoryInterface is the persistence contract for the service
// request lifecycle. Mutating operations are meant to run inside
// WithTransaction so guards and writes commit atomically.
type RequestRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(txRepo RequestRepositoryInterface) error) error

	CreateRequest(ctx context.Context, request *models.ServiceRequest) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.ServiceRequest, int64, error)
	UpdateRequestStatus(ctx context.Context, request *models.ServiceRequest, newStatus models.RequestStatus, extra map[string]interface{}) error
	UpdateRequestFields(ctx context.Context, request *models.ServiceRequest, fields map[string]interface{}) error

	CreateApprovalHistory(ctx context.Context, entry *models.ApprovalHistory) error
	GetApprovalHistory(ctx context.Context, requestID uuid.UUID) ([]models.ApprovalHistory, error)
	CreateReassignmentHistory(ctx context.Context, entry *models.ReassignmentHistory) error
	GetReassignmentHistory(ctx context.Context, requestID uuid.UUID) ([]models.ReassignmentHistory, error)

	CreateWorkLog(ctx context.Context, log *models.WorkLog) error
	GetOpenWorkLog(ctx context.Context, requestID, technicianID uuid.UUID) (*models.WorkLog, error)
	CloseWorkLog(ctx context.Context, log *models.WorkLog) error
	GetWorkLogs(ctx context.Context, requestID uuid.UUID) ([]models.WorkLog, error)
	CreateWorkMedia(ctx context.Context, media *models.WorkMedia) error

	CountUsedProducts(ctx context.Context, requestID uuid.UUID) (int64, error)
	GetUsedProducts(ctx context.Context, requestID uuid.UUID) ([]models.ServiceUsedProduct, error)
	CreateUsedProduct(ctx context.Context, row *models.ServiceUsedProduct) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	CreateStockHistory(ctx context.Context, entry *models.StockHistory) error

	CountActiveAssignments(ctx context.Context, technicianID uuid.UUID) (int64, error)
	SumWorkDuration(ctx context.Context, technicianID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, filter RequestFilter) (map[models.RequestStatus]int64, error)
	FindStalePending(ctx context.Context, olderThan time.Time) ([]models.ServiceRequest, error)
}

// RequestRepository handles database operations for service requests
type RequestRepository struct {
	db *gorm.DB
}

var _ RequestRepositoryInterface = (*RequestRepository)(nil)

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithTransaction runs fn inside a database transaction. The repository
// passed to fn is bound to the transaction; the callback returning an
// error rolls everything back.
func (r *RequestRepository) WithTransaction(ctx context.Context, fn func(txRepo RequestRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RequestRepository{db: tx})
	})
}

// --- Request Methods ---

// CreateRequest creates a new service request
func (r *RequestRepository) CreateRequest(ctx context.Context, request *models.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequestByID retrieves a request with its relations and audit trails
func (r *RequestRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Region").
		Preload("RequestedBy.Role").
		Preload("AssignedTo.Role").
		Preload("WorkLogs").
		Preload("UsedProducts").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// ListRequests retrieves requests matching the filter with a total count
func (r *RequestRepository) ListRequests(ctx context.Context, filter RequestFilter) ([]models.ServiceRequest, int64, error) {
	var requests []models.ServiceRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ServiceRequest{})

	if filter.Status != "" && filter.Status != "all" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.RequestedByID != nil {
		query = query.Where("requested_by_id = ?", *filter.RequestedByID)
	}
	if filter.RegionID != nil {
		query = query.Where("region_id = ?", *filter.RegionID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	err := query.
		Preload("Customer").
		Preload("AssignedTo").
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&requests).Error

	return requests, total, err
}

// UpdateRequestStatus flips the status with optimistic locking. Extra
// columns changing in the same transition (assignee, timestamps) ride
// along in the same UPDATE.
func (r *RequestRepository) UpdateRequestStatus(ctx context.Context, request *models.ServiceRequest, newStatus models.RequestStatus, extra map[string]interface{}) error {
	oldVersion := request.Version

	updates := map[string]interface{}{
		"status":     newStatus,
		"version":    oldVersion + 1,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(request).
		Where("id = ? AND version = ?", request.ID, oldVersion).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	request.Status = newStatus
	request.Version = oldVersion + 1
	return nil
}

// UpdateRequestFields updates non-status columns with optimistic locking
func (r *RequestRepository) UpdateRequestFields(ctx context.Context, request *models.ServiceRequest, fields map[string]interface{}) error {
	oldVersion := request.Version

	updates := map[string]interface{}{
		"version":    oldVersion + 1,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(request).
		Where("id = ? AND version = ?", request.ID, oldVersion).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	request.Version = oldVersion + 1
	return nil
}

// --- Audit Trail Methods ---

// CreateApprovalHistory appends an approval decision row
func (r *RequestRepository) CreateApprovalHistory(ctx context.Context, entry *models.ApprovalHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetApprovalHistory retrieves approval decisions for a request, oldest first
func (r *RequestRepository) GetApprovalHistory(ctx context.Context, requestID uuid.UUID) ([]models.ApprovalHistory, error) {
	var entries []models.ApprovalHistory
	err := r.db.WithContext(ctx).
		Preload("Approver").
		Where("request_id = ?", requestID).
		Order("approved_at ASC").
		Find(&entries).Error
	return entries, err
}

// CreateReassignmentHistory appends a reassignment row
func (r *RequestRepository) CreateReassignmentHistory(ctx context.Context, entry *models.ReassignmentHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetReassignmentHistory retrieves reassignment rows for a request, oldest first
func (r *RequestRepository) GetReassignmentHistory(ctx context.Context, requestID uuid.UUID) ([]models.ReassignmentHistory, error) {
	var entries []models.ReassignmentHistory
	err := r.db.WithContext(ctx).
		Preload("ReassignedBy").
		Preload("PreviousTech").
		Preload("NewTech").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// --- Work Log Methods ---

// CreateWorkLog creates a new work session row
func (r *RequestRepository) CreateWorkLog(ctx context.Context, log *models.WorkLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetOpenWorkLog retrieves the unfinished session for a (request, technician)
// pair, or ErrNotFound if none is open.
func (r *RequestRepository) GetOpenWorkLog(ctx context.Context, requestID, technicianID uuid.UUID) (*models.WorkLog, error) {
	var log models.WorkLog
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND technician_id = ? AND end_time IS NULL", requestID, technicianID).
		First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// CloseWorkLog persists end time, duration and notes on a finished session
func (r *RequestRepository) CloseWorkLog(ctx context.Context, log *models.WorkLog) error {
	result := r.db.WithContext(ctx).Model(log).
		Where("id = ? AND end_time IS NULL", log.ID).
		Updates(map[string]interface{}{
			"end_time":   log.EndTime,
			"duration":   log.Duration,
			"notes":      log.Notes,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// GetWorkLogs retrieves all sessions for a request, oldest first
func (r *RequestRepository) GetWorkLogs(ctx context.Context, requestID uuid.UUID) ([]models.WorkLog, error) {
	var logs []models.WorkLog
	err := r.db.WithContext(ctx).
		Preload("Technician").
		Where("request_id = ?", requestID).
		Order("start_time ASC").
		Find(&logs).Error
	return logs, err
}

// CreateWorkMedia attaches a media row to a request
func (r *RequestRepository) CreateWorkMedia(ctx context.Context, media *models.WorkMedia) error {
	return r.db.WithContext(ctx).Create(media).Error
}

// --- Used Product / Stock Methods ---

// CountUsedProducts counts reconciliation rows for a request
func (r *RequestRepository) CountUsedProducts(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceUsedProduct{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

// GetUsedProducts retrieves reconciliation rows for a request, oldest first
func (r *RequestRepository) GetUsedProducts(ctx context.Context, requestID uuid.UUID) ([]models.ServiceUsedProduct, error) {
	var rows []models.ServiceUsedProduct
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("request_id = ?", requestID).
		Order("confirmed_at ASC").
		Find(&rows).Error
	return rows, err
}

// CreateUsedProduct inserts one consumption row
func (r *RequestRepository) CreateUsedProduct(ctx context.Context, row *models.ServiceUsedProduct) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// DecrementStock debits a product's stock counter with a compare-and-set
// guard so two concurrent reconciliations cannot overdraw inventory.
func (r *RequestRepository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// CreateStockHistory appends an immutable stock movement row
func (r *RequestRepository) CreateStockHistory(ctx context.Context, entry *models.StockHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// --- Aggregation Methods ---

// CountActiveAssignments counts a technician's current workload, used by
// auto-assignment to pick the least loaded technician.
func (r *RequestRepository) CountActiveAssignments(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Where("assigned_to_id = ? AND status IN ?", technicianID,
			[]models.RequestStatus{models.StatusAssigned, models.StatusInProgress}).
		Count(&count).Error
	return count, err
}

// SumWorkDuration totals the seconds a technician has logged across all
// closed work sessions.
func (r *RequestRepository) SumWorkDuration(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.WorkLog{}).
		Where("technician_id = ? AND duration IS NOT NULL", technicianID).
		Select("COALESCE(SUM(duration), 0)").
		Scan(&total).Error
	return total, err
}

// CountByStatus aggregates request counts per status within the filter scope
func (r *RequestRepository) CountByStatus(ctx context.Context, filter RequestFilter) (map[models.RequestStatus]int64, error) {
	type row struct {
		Status models.RequestStatus
		Count  int64
	}
	var rows []row

	query := r.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Select("status, COUNT(*) as count")

	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.RequestedByID != nil {
		query = query.Where("requested_by_id = ?", *filter.RequestedByID)
	}
	if filter.RegionID != nil {
		query = query.Where("region_id = ?", *filter.RegionID)
	}

	if err := query.Group("status").Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// FindStalePending retrieves requests stuck in PENDING_APPROVAL since
// before the given cutoff. Used by the reminder job.
func (r *RequestRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	err := r.db.WithContext(ctx).
		Preload("RequestedBy.Role").
		Where("status = ? AND created_at < ?", models.StatusPendingApproval, olderThan).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
