package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRequest is the central entity of the service workflow: one customer
// issue or installation job, from creation through approval, assignment,
// execution and completion.
type ServiceRequest struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type        RequestType   `gorm:"type:varchar(30);not null" json:"type"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Status      RequestStatus `gorm:"type:varchar(30);not null;default:'PENDING_APPROVAL';index" json:"status"`
	Priority    Priority      `gorm:"type:varchar(20);not null;default:'NORMAL'" json:"priority"`
	Version     int           `gorm:"not null;default:1" json:"version"` // Optimistic locking

	// Sales track: requests raised by sales-track users need a Sales Admin
	// sign-off before the service-side approval can happen.
	SalesApproved   bool       `gorm:"not null;default:false" json:"salesApproved"`
	SalesApprovedBy *uuid.UUID `gorm:"type:uuid" json:"salesApprovedBy,omitempty"`
	SalesApprovedAt *time.Time `json:"salesApprovedAt,omitempty"`

	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"customerId"`
	RegionID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"regionId"`
	InstallationID *uuid.UUID `gorm:"type:uuid" json:"installationId,omitempty"`

	RequestedByID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"requestedById"`
	ApprovedByID     *uuid.UUID `gorm:"type:uuid" json:"approvedById,omitempty"`
	AssignedToID     *uuid.UUID `gorm:"type:uuid;index" json:"assignedToId,omitempty"`
	AcknowledgedByID *uuid.UUID `gorm:"type:uuid" json:"acknowledgedById,omitempty"`

	AdminNotes             string     `gorm:"type:text" json:"adminNotes,omitempty"`
	RejectionReason        string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	AcknowledgmentComments string     `gorm:"type:text" json:"acknowledgmentComments,omitempty"`
	ApprovedAt             *time.Time `json:"approvedAt,omitempty"`
	AssignedAt             *time.Time `json:"assignedAt,omitempty"`
	CompletedAt            *time.Time `json:"completedAt,omitempty"`
	AcknowledgedAt         *time.Time `json:"acknowledgedAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Customer            *Customer             `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Region              *Region               `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	Installation        *Installation         `gorm:"foreignKey:InstallationID" json:"installation,omitempty"`
	RequestedBy         *User                 `gorm:"foreignKey:RequestedByID" json:"requestedBy,omitempty"`
	ApprovedBy          *User                 `gorm:"foreignKey:ApprovedByID" json:"approvedBy,omitempty"`
	AssignedTo          *User                 `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	WorkLogs            []WorkLog             `gorm:"foreignKey:RequestID" json:"workLogs,omitempty"`
	WorkMedia           []WorkMedia           `gorm:"foreignKey:RequestID" json:"workMedia,omitempty"`
	ApprovalHistory     []ApprovalHistory     `gorm:"foreignKey:RequestID" json:"approvalHistory,omitempty"`
	ReassignmentHistory []ReassignmentHistory `gorm:"foreignKey:RequestID" json:"reassignmentHistory,omitempty"`
	UsedProducts        []ServiceUsedProduct  `gorm:"foreignKey:RequestID" json:"usedProducts,omitempty"`
}

// TableName returns the table name for ServiceRequest
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// RequestStatus represents the lifecycle state of a service request
type RequestStatus string

const (
	StatusDraft           RequestStatus = "DRAFT"
	StatusPendingApproval RequestStatus = "PENDING_APPROVAL"
	StatusApproved        RequestStatus = "APPROVED"
	StatusAssigned        RequestStatus = "ASSIGNED"
	StatusInProgress      RequestStatus = "IN_PROGRESS"
	StatusWorkCompleted   RequestStatus = "WORK_COMPLETED"
	StatusCompleted       RequestStatus = "COMPLETED"
	StatusRejected        RequestStatus = "REJECTED"
)

// RequestType represents the kind of work requested
type RequestType string

const (
	TypeService        RequestType = "SERVICE"
	TypeInstallation   RequestType = "INSTALLATION"
	TypeReInstallation RequestType = "RE_INSTALLATION"
	TypeComplaint      RequestType = "COMPLAINT"
	TypeEnquiry        RequestType = "ENQUIRY"
)

// Priority represents the urgency of a service request
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

// IsTerminal returns true if the status is a terminal state.
// Rejected requests are retained for audit, never deleted.
func (r *ServiceRequest) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusRejected
}
