package jobs

import (
	"context"
	"fmt"
	"time"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"
	"aquaserve-backend/internal/services"

	"github.com/sirupsen/logrus"
)

// ReminderJob periodically nudges approvers about requests stuck in
// PENDING_APPROVAL longer than the configured threshold.
type ReminderJob struct {
	repo      repository.RequestRepositoryInterface
	directory repository.DirectoryRepositoryInterface
	notifier  *services.NotificationService
	logger    *logrus.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewReminderJob creates a new reminder job
func NewReminderJob(repo repository.RequestRepositoryInterface, directory repository.DirectoryRepositoryInterface, notifier *services.NotificationService, logger *logrus.Logger, intervalMinutes, thresholdHours int) *ReminderJob {
	return &ReminderJob{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
		interval:  time.Duration(intervalMinutes) * time.Minute,
		threshold: time.Duration(thresholdHours) * time.Hour,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the reminder loop
func (j *ReminderJob) Start(ctx context.Context) {
	j.logger.Info("Reminder job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.runReminderCheck(ctx)

	for {
		select {
		case <-ticker.C:
			j.runReminderCheck(ctx)
		case <-j.stopCh:
			j.logger.Info("Reminder job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Reminder job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop
func (j *ReminderJob) Stop() {
	close(j.stopCh)
}

func (j *ReminderJob) runReminderCheck(ctx context.Context) {
	j.logger.Debug("Running stale-pending reminder check...")

	cutoff := time.Now().Add(-j.threshold)
	stale, err := j.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		j.logger.Errorf("Failed to find stale pending requests: %v", err)
		return
	}
	if len(stale) == 0 {
		j.logger.Debug("No stale pending requests")
		return
	}

	j.logger.Infof("Found %d requests pending longer than %s", len(stale), j.threshold)

	for _, request := range stale {
		j.remind(ctx, &request)
	}
}

// remind notifies the approvers responsible for the next decision on a
// stuck request. Sales-track requests without the sales sign-off go to
// Sales Admins; everything else goes to service approvers.
func (j *ReminderJob) remind(ctx context.Context, request *models.ServiceRequest) {
	salesPending := request.RequestedBy != nil &&
		models.SalesTrackRoles[request.RequestedBy.RoleName()] &&
		!request.SalesApproved

	roleName := models.RoleServiceManager
	if salesPending {
		roleName = models.RoleSalesAdmin
	}

	approvers, err := j.directory.ListUsersByRole(ctx, roleName, nil, models.UserActive)
	if err != nil {
		j.logger.Errorf("Failed to list approvers for request %s: %v", request.ID, err)
		return
	}

	age := time.Since(request.CreatedAt).Round(time.Hour)
	message := fmt.Sprintf("Service request %s has been awaiting approval for %s", request.ID, age)

	for _, approver := range approvers {
		j.notifier.Notify(nil, approver.ID, message)
	}

	j.logger.WithFields(logrus.Fields{
		"requestId": request.ID,
		"approvers": len(approvers),
		"role":      roleName,
	}).Info("reminder sent")
}
