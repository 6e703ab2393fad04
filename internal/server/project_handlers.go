package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

var projectPreloads = []string{"Creator", "Members.User"}

// visibleProjects scopes a query to projects the user created or is a member of
func visibleProjects(db *gorm.DB, userID int) *gorm.DB {
	memberOf := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.ProjectMember{}).
		Select("project_id").
		Where("user_id = ?", userID)
	return db.Where("(creator_id = ? OR id IN (?))", userID, memberOf)
}

func (s *Server) loadProject(rc *requestContext, id int) (*models.Project, error) {
	var project models.Project
	if err := models.FindByIDWithPreload(s.db.WithContext(rc), id, &project, projectPreloads...); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Project")
		}
		return nil, err
	}
	return &project, nil
}

func (s *Server) isProjectMember(rc *requestContext, projectID, userID int) (bool, error) {
	var count int64
	err := s.db.WithContext(rc).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Server) resolveProjects(rc *requestContext, _ json.RawMessage) (any, error) {
	var projects []models.Project
	query := visibleProjects(s.db.WithContext(rc).Model(&models.Project{}), rc.userID())
	for _, p := range projectPreloads {
		query = query.Preload(p)
	}
	if err := query.Order("id").Find(&projects).Error; err != nil {
		return nil, err
	}

	out := make([]*api.Project, len(projects))
	for i := range projects {
		out[i] = toAPIProject(&projects[i])
	}
	return out, nil
}

// resolveProject returns null for an unknown id
func (s *Server) resolveProject(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		ProjectID int `json:"projectId"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	project, err := s.loadProject(rc, args.ProjectID)
	if err != nil {
		var gerr *gqlError
		if errors.As(err, &gerr) && gerr.Code == api.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return toAPIProject(project), nil
}

func (s *Server) resolveCreateProject(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		ProjectInput api.ProjectInput `json:"projectInput"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}
	input := args.ProjectInput
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, errBadInput("End date must be after start date")
	}

	project := &models.Project{
		Name:      input.Name,
		Status:    string(api.ProjectPlanning),
		Priority:  string(api.PriorityMedium),
		StartDate: utcPtr(input.StartDate),
		EndDate:   utcPtr(input.EndDate),
		CreatorID: rc.userID(),
		Budget:    input.Budget,
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != "" {
		project.Status = string(input.Status)
	}
	if input.Priority != "" {
		project.Priority = string(input.Priority)
	}

	err := s.db.WithContext(rc).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		// The creator leads the project
		return tx.Create(&models.ProjectMember{
			ProjectID: project.ID,
			UserID:    rc.userID(),
			Role:      models.MemberRoleLead,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(rc, rc.userID(), actionProjectCreated, resourceProject, project.ID,
		fmt.Sprintf("Created project: %s", project.Name))

	created, err := s.loadProject(rc, project.ID)
	if err != nil {
		return nil, err
	}
	return toAPIProject(created), nil
}

// resolveUpdateProject applies a partial update: empty strings and nil values keep the stored value
func (s *Server) resolveUpdateProject(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		ProjectID    int              `json:"projectId"`
		ProjectInput api.ProjectInput `json:"projectInput"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}
	input := args.ProjectInput
	if err := s.validator.StructExcept(input, "Name"); err != nil {
		return nil, validationError(err)
	}
	if len(input.Name) > 200 {
		return nil, errBadInput("Invalid input: name must satisfy max=200")
	}

	project, err := s.loadProject(rc, args.ProjectID)
	if err != nil {
		return nil, err
	}

	if project.CreatorID != rc.userID() {
		member, err := s.isProjectMember(rc, project.ID, rc.userID())
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, errForbidden()
		}
	}

	updates := map[string]any{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Status != "" {
		updates["status"] = string(input.Status)
	}
	if input.Priority != "" {
		updates["priority"] = string(input.Priority)
	}
	if input.StartDate != nil {
		updates["start_date"] = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		updates["end_date"] = input.EndDate.UTC()
	}
	if input.Budget != nil {
		updates["budget"] = *input.Budget
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(rc).Model(&models.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
		name := project.Name
		if input.Name != "" {
			name = input.Name
		}
		s.logActivity(rc, rc.userID(), actionProjectUpdated, resourceProject, project.ID,
			fmt.Sprintf("Updated project: %s", name))
	}

	updated, err := s.loadProject(rc, project.ID)
	if err != nil {
		return nil, err
	}
	return toAPIProject(updated), nil
}

// resolveDeleteProject removes a project with its tasks and memberships. Only the creator may delete.
func (s *Server) resolveDeleteProject(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		ProjectID int `json:"projectId"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	project, err := s.loadProject(rc, args.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != rc.userID() {
		return nil, errForbidden()
	}

	err = s.db.WithContext(rc).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", project.ID)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, project.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(rc, rc.userID(), actionProjectDeleted, resourceProject, project.ID,
		fmt.Sprintf("Deleted project: %s", project.Name))

	return true, nil
}
