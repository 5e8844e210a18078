package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkLog is one timed work session by a technician on a request.
// At most one open log (EndTime = nil) may exist per (request, technician)
// pair at any time.
type WorkLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"requestId"`
	TechnicianID uuid.UUID  `gorm:"type:uuid;not null;index" json:"technicianId"`
	StartTime    time.Time  `gorm:"not null" json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Duration     *int64     `json:"duration,omitempty"` // seconds, computed on stop
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Technician *User `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
}

// TableName returns the table name for WorkLog
func (WorkLog) TableName() string {
	return "work_logs"
}

// IsOpen reports whether the session is still running.
func (w *WorkLog) IsOpen() bool {
	return w.EndTime == nil
}

// WorkMedia is a photo or file attached to a request by a technician.
type WorkMedia struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID    uuid.UUID `gorm:"type:uuid;not null;index" json:"requestId"`
	UploadedByID uuid.UUID `gorm:"type:uuid;not null" json:"uploadedById"`
	MediaType    string    `gorm:"type:varchar(20);not null" json:"mediaType"` // IMAGE, VIDEO, DOCUMENT
	URL          string    `gorm:"type:text;not null" json:"url"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for WorkMedia
func (WorkMedia) TableName() string {
	return "work_media"
}

// ServiceUsedProduct records inventory consumed for a request. Rows for a
// request are written once as a single batch and are not editable afterwards.
type ServiceUsedProduct struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID     uuid.UUID `gorm:"type:uuid;not null;index" json:"requestId"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"productId"`
	QuantityUsed  int       `gorm:"not null" json:"quantityUsed"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	ConfirmedByID uuid.UUID `gorm:"type:uuid;not null" json:"confirmedById"`
	ConfirmedAt   time.Time `gorm:"autoCreateTime" json:"confirmedAt"`

	Product     *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ConfirmedBy *User    `gorm:"foreignKey:ConfirmedByID" json:"confirmedBy,omitempty"`
}

// TableName returns the table name for ServiceUsedProduct
func (ServiceUsedProduct) TableName() string {
	return "service_used_products"
}
