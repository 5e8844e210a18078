package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalHistory records an approver's decision on a request.
// Rows are append-only, written in the same transaction as the
// status change they describe.
type ApprovalHistory struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID    uuid.UUID `gorm:"type:uuid;not null;index" json:"requestId"`
	ApproverID   uuid.UUID `gorm:"type:uuid;not null;index" json:"approverId"`
	ApproverRole string    `gorm:"type:varchar(50);not null" json:"approverRole"` // snapshot at time of action
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`       // APPROVED, REJECTED
	Comments     string    `gorm:"type:text" json:"comments,omitempty"`
	ApprovedAt   time.Time `gorm:"autoCreateTime" json:"approvedAt"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// TableName returns the table name for ApprovalHistory
func (ApprovalHistory) TableName() string {
	return "approval_history"
}

// ApprovalHistory status constants
const (
	ApprovalStatusApproved = "APPROVED"
	ApprovalStatusRejected = "REJECTED"
)

// ReassignmentHistory records one change of assignee. Immutable once written.
type ReassignmentHistory struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"requestId"`
	ReassignedByID uuid.UUID  `gorm:"type:uuid;not null" json:"reassignedById"`
	PreviousTechID *uuid.UUID `gorm:"type:uuid" json:"previousTechId,omitempty"`
	NewTechID      uuid.UUID  `gorm:"type:uuid;not null" json:"newTechId"`
	Reason         string     `gorm:"type:text;not null" json:"reason"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`

	ReassignedBy *User `gorm:"foreignKey:ReassignedByID" json:"reassignedBy,omitempty"`
	PreviousTech *User `gorm:"foreignKey:PreviousTechID" json:"previousTech,omitempty"`
	NewTech      *User `gorm:"foreignKey:NewTechID" json:"newTech,omitempty"`
}

// TableName returns the table name for ReassignmentHistory
func (ReassignmentHistory) TableName() string {
	return "reassignment_history"
}
