package services

import (
	"aquaserve-backend/internal/models"
)

// validTransitions is the single source of truth for the request lifecycle.
// Every status change goes through ValidateTransition; operations never
// compare status literals inline.
var validTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.StatusDraft:           {models.StatusPendingApproval},
	models.StatusPendingApproval: {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:        {models.StatusAssigned},
	models.StatusAssigned:        {models.StatusInProgress},
	models.StatusInProgress:      {models.StatusWorkCompleted},
	models.StatusWorkCompleted:   {models.StatusCompleted},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to models.RequestStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidState error naming the current
// status when from -> to is not allowed.
func ValidateTransition(from, to models.RequestStatus) error {
	if !CanTransition(from, to) {
		return invalidStatef("Cannot move request from %s to %s", from, to)
	}
	return nil
}
