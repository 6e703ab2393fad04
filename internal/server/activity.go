package server

import (
	"encoding/json"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

// Activity actions written to the user activity log
const (
	actionUserRegistered = "user_registered"
	actionUserLogin      = "user_login"
	actionProfileUpdated = "profile_updated"
	actionProjectCreated = "project_created"
	actionProjectUpdated = "project_updated"
	actionProjectDeleted = "project_deleted"
	actionTaskCreated    = "task_created"
	actionTaskUpdated    = "task_updated"
	actionTaskDeleted    = "task_deleted"
	actionTaskAssigned   = "task_assigned"
)

const (
	resourceUser    = "user"
	resourceProject = "project"
	resourceTask    = "task"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

// logActivity records an audit entry. A failure is logged and does not fail the mutation.
func (s *Server) logActivity(rc *requestContext, userID int, action, resourceType string, resourceID int, description string) {
	entry := models.UserActivityLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		Description:  description,
	}
	if resourceID != 0 {
		entry.ResourceID = &resourceID
	}

	if err := s.db.WithContext(rc).Create(&entry).Error; err != nil {
		rc.log.Warn().Err(err).Str("action", action).Msg("Failed to write activity log")
	}
}

func (s *Server) resolveRecentActivities(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		Limit *int `json:"limit"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	limit := defaultActivityLimit
	if args.Limit != nil {
		limit = *args.Limit
	}
	if limit < 1 || limit > maxActivityLimit {
		return nil, errBadInput("limit must be between 1 and %d", maxActivityLimit)
	}

	var entries []models.UserActivityLog
	err := s.db.WithContext(rc).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	out := make([]api.Activity, len(entries))
	for i := range entries {
		out[i] = toAPIActivity(&entries[i])
	}
	return out, nil
}
