package server

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/board"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

// resolveDashboardStats summarises the projects visible to the caller and their tasks.
// tasksByStatus always lists every board column, in board order.
func (s *Server) resolveDashboardStats(rc *requestContext, _ json.RawMessage) (any, error) {
	db := s.db.WithContext(rc)
	uid := rc.userID()

	projects := func() *gorm.DB {
		return visibleProjects(db.Session(&gorm.Session{NewDB: true}).Model(&models.Project{}), uid)
	}
	tasks := func() *gorm.DB {
		return db.Session(&gorm.Session{NewDB: true}).Model(&models.Task{}).
			Where("project_id IN (?)", projects().Select("id"))
	}

	var stats api.DashboardStats
	var n int64

	if err := projects().Count(&n).Error; err != nil {
		return nil, err
	}
	stats.TotalProjects = int(n)

	if err := projects().Where("status = ?", string(api.ProjectInProgress)).Count(&n).Error; err != nil {
		return nil, err
	}
	stats.ActiveProjects = int(n)

	if err := projects().Where("status = ?", string(api.ProjectCompleted)).Count(&n).Error; err != nil {
		return nil, err
	}
	stats.CompletedProjects = int(n)

	if err := tasks().Count(&n).Error; err != nil {
		return nil, err
	}
	stats.TotalTasks = int(n)

	if err := tasks().Where("status = ?", string(api.TaskDone)).Count(&n).Error; err != nil {
		return nil, err
	}
	stats.CompletedTasks = int(n)

	if err := tasks().
		Where("due_date IS NOT NULL AND due_date < ? AND status <> ?", time.Now().UTC(), string(api.TaskDone)).
		Count(&n).Error; err != nil {
		return nil, err
	}
	stats.OverdueTasks = int(n)

	var rows []struct {
		Status string
		Count  int
	}
	if err := tasks().Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	byStatus := make(map[api.TaskStatus]int, len(rows))
	for _, row := range rows {
		byStatus[api.TaskStatus(row.Status)] = row.Count
	}
	stats.TasksByStatus = make([]api.TaskStatusCount, len(board.DefaultBuckets))
	for i, status := range board.DefaultBuckets {
		stats.TasksByStatus[i] = api.TaskStatusCount{Status: status, Count: byStatus[status]}
	}

	return &stats, nil
}
