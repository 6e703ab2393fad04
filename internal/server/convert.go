package server

import (
	"time"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// utcPtr normalises stored timestamps so SQL comparisons order correctly
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       api.UserRole(u.Role),
		AvatarURL:  u.AvatarURL,
		Phone:      u.Phone,
		Department: u.Department,
		Position:   u.Position,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  timePtr(u.UpdatedAt),
	}
}

func toUserSummary(u *models.User) *api.UserSummary {
	if u == nil {
		return nil
	}
	return &api.UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// toAPIProject expects Creator and Members.User preloaded
func toAPIProject(p *models.Project) *api.Project {
	members := make([]api.UserSummary, 0, len(p.Members))
	for _, m := range p.Members {
		if m.User != nil {
			members = append(members, *toUserSummary(m.User))
		}
	}

	return &api.Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      api.ProjectStatus(p.Status),
		Priority:    api.Priority(p.Priority),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Progress:    p.Progress,
		Budget:      p.Budget,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   timePtr(p.UpdatedAt),
		Creator:     toUserSummary(p.Creator),
		Members:     members,
	}
}

// toAPITask expects Project and Assignments.User preloaded
func toAPITask(t *models.Task) *api.Task {
	assignees := make([]api.UserSummary, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		if a.User != nil {
			assignees = append(assignees, *toUserSummary(a.User))
		}
	}

	var project *api.ProjectRef
	if t.Project != nil {
		project = &api.ProjectRef{ID: t.Project.ID, Name: t.Project.Name}
	}

	return &api.Task{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         api.TaskStatus(t.Status),
		Priority:       api.Priority(t.Priority),
		ParentTaskID:   t.ParentTaskID,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		StartDate:      t.StartDate,
		DueDate:        t.DueDate,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      timePtr(t.UpdatedAt),
		Project:        project,
		Assignees:      assignees,
	}
}

func toAPIActivity(a *models.UserActivityLog) api.Activity {
	return api.Activity{
		ID:           a.ID,
		Action:       a.Action,
		ResourceType: a.ResourceType,
		ResourceID:   a.ResourceID,
		Description:  a.Description,
		CreatedAt:    a.CreatedAt,
		User:         toUserSummary(a.User),
	}
}
