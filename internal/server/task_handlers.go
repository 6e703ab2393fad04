package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

var taskPreloads = []string{"Project", "Assignments.User"}

func (s *Server) loadTask(rc *requestContext, id int) (*models.Task, error) {
	var task models.Task
	if err := models.FindByIDWithPreload(s.db.WithContext(rc), id, &task, taskPreloads...); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Task")
		}
		return nil, err
	}
	return &task, nil
}

func (s *Server) projectExists(tx *gorm.DB, id int) error {
	var count int64
	if err := tx.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errNotFound("Project")
	}
	return nil
}

// recomputeProgress stores done/total*100 on the project, 0 for a project without tasks
func recomputeProgress(tx *gorm.DB, projectID int) error {
	var total, done int64
	if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", projectID, string(api.TaskDone)).
		Count(&done).Error; err != nil {
		return err
	}

	progress := 0.0
	if total > 0 {
		progress = float64(done) / float64(total) * 100
	}
	return tx.Model(&models.Project{}).Where("id = ?", projectID).UpdateColumn("progress", progress).Error
}

// resolveTasks lists tasks of one project, or of every project visible to the caller
func (s *Server) resolveTasks(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		ProjectID *int `json:"projectId"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	db := s.db.WithContext(rc)
	query := db.Model(&models.Task{})
	if args.ProjectID != nil {
		query = query.Where("project_id = ?", *args.ProjectID)
	} else {
		visible := visibleProjects(db.Session(&gorm.Session{NewDB: true}).Model(&models.Project{}), rc.userID()).Select("id")
		query = query.Where("project_id IN (?)", visible)
	}
	for _, p := range taskPreloads {
		query = query.Preload(p)
	}

	var tasks []models.Task
	if err := query.Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}

	out := make([]*api.Task, len(tasks))
	for i := range tasks {
		out[i] = toAPITask(&tasks[i])
	}
	return out, nil
}

// resolveTask returns null for an unknown id
func (s *Server) resolveTask(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		TaskID int `json:"taskId"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	task, err := s.loadTask(rc, args.TaskID)
	if err != nil {
		var gerr *gqlError
		if errors.As(err, &gerr) && gerr.Code == api.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return toAPITask(task), nil
}

func (s *Server) resolveCreateTask(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		TaskInput api.TaskInput `json:"taskInput"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}
	input := args.TaskInput
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}

	task := &models.Task{
		Title:          input.Title,
		Status:         string(api.TaskTodo),
		Priority:       string(api.PriorityMedium),
		ProjectID:      input.ProjectID,
		ParentTaskID:   input.ParentTaskID,
		EstimatedHours: input.EstimatedHours,
		ActualHours:    input.ActualHours,
		StartDate:      utcPtr(input.StartDate),
		DueDate:        utcPtr(input.DueDate),
		CreatedByID:    rc.userID(),
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != "" {
		task.Status = string(input.Status)
	}
	if input.Priority != "" {
		task.Priority = string(input.Priority)
	}
	if task.Status == string(api.TaskDone) {
		now := time.Now().UTC()
		task.CompletedAt = &now
	}

	err := s.db.WithContext(rc).Transaction(func(tx *gorm.DB) error {
		if err := s.projectExists(tx, input.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return recomputeProgress(tx, task.ProjectID)
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(rc, rc.userID(), actionTaskCreated, resourceTask, task.ID,
		fmt.Sprintf("Created task: %s", task.Title))

	created, err := s.loadTask(rc, task.ID)
	if err != nil {
		return nil, err
	}
	return toAPITask(created), nil
}

// resolveUpdateTask applies a partial update. Moving into done stamps completedAt
// and moving out of done clears it.
func (s *Server) resolveUpdateTask(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		TaskID    int           `json:"taskId"`
		TaskInput api.TaskInput `json:"taskInput"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}
	input := args.TaskInput
	if err := s.validator.StructExcept(input, "Title", "ProjectID"); err != nil {
		return nil, validationError(err)
	}
	if len(input.Title) > 200 {
		return nil, errBadInput("Invalid input: title must satisfy max=200")
	}
	if input.ProjectID < 0 {
		return nil, errBadInput("Invalid input: projectID must satisfy gt=0")
	}

	task, err := s.loadTask(rc, args.TaskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Priority != "" {
		updates["priority"] = string(input.Priority)
	}
	if input.ParentTaskID != nil {
		updates["parent_task_id"] = *input.ParentTaskID
	}
	if input.EstimatedHours != nil {
		updates["estimated_hours"] = *input.EstimatedHours
	}
	if input.ActualHours != nil {
		updates["actual_hours"] = *input.ActualHours
	}
	if input.StartDate != nil {
		updates["start_date"] = input.StartDate.UTC()
	}
	if input.DueDate != nil {
		updates["due_date"] = input.DueDate.UTC()
	}
	if input.Status != "" && string(input.Status) != task.Status {
		updates["status"] = string(input.Status)
		switch {
		case input.Status == api.TaskDone:
			updates["completed_at"] = time.Now().UTC()
		case task.Status == string(api.TaskDone):
			updates["completed_at"] = nil
		}
	}

	oldProjectID := task.ProjectID
	moved := input.ProjectID != 0 && input.ProjectID != oldProjectID
	if moved {
		updates["project_id"] = input.ProjectID
	}

	if len(updates) > 0 {
		err = s.db.WithContext(rc).Transaction(func(tx *gorm.DB) error {
			if moved {
				if err := s.projectExists(tx, input.ProjectID); err != nil {
					return err
				}
			}
			if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
				return err
			}
			if err := recomputeProgress(tx, oldProjectID); err != nil {
				return err
			}
			if moved {
				return recomputeProgress(tx, input.ProjectID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		title := task.Title
		if input.Title != "" {
			title = input.Title
		}
		s.logActivity(rc, rc.userID(), actionTaskUpdated, resourceTask, task.ID,
			fmt.Sprintf("Updated task: %s", title))
	}

	updated, err := s.loadTask(rc, task.ID)
	if err != nil {
		return nil, err
	}
	return toAPITask(updated), nil
}

func (s *Server) resolveDeleteTask(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		TaskID int `json:"taskId"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	task, err := s.loadTask(rc, args.TaskID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(rc).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
			return err
		}
		return recomputeProgress(tx, task.ProjectID)
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(rc, rc.userID(), actionTaskDeleted, resourceTask, task.ID,
		fmt.Sprintf("Deleted task: %s", task.Title))

	return true, nil
}

func (s *Server) resolveAssignTask(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		TaskID int `json:"taskId"`
		UserID int `json:"userId"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	db := s.db.WithContext(rc)

	var task models.Task
	if err := models.FindByID(db, args.TaskID, &task); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Task")
		}
		return nil, err
	}

	var user models.User
	if err := models.FindByID(db, args.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("User")
		}
		return nil, err
	}

	var count int64
	if err := db.Model(&models.TaskAssignment{}).
		Where("task_id = ? AND user_id = ?", task.ID, user.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errBadInput("Task already assigned to this user")
	}

	assignment := &models.TaskAssignment{
		TaskID:       task.ID,
		UserID:       user.ID,
		AssignedByID: rc.userID(),
	}
	if err := db.Create(assignment).Error; err != nil {
		return nil, err
	}

	s.logActivity(rc, rc.userID(), actionTaskAssigned, resourceTask, task.ID,
		fmt.Sprintf("Assigned task to %s", user.Username))

	return true, nil
}
