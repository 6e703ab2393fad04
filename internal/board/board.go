// Package board partitions tasks into the status columns of a kanban board.
package board

import "github.com/taskdesk-dev/taskdesk/internal/api"

// DefaultBuckets is the fixed column order of the task board
var DefaultBuckets = []api.TaskStatus{
	api.TaskTodo,
	api.TaskInProgress,
	api.TaskInReview,
	api.TaskDone,
	api.TaskBlocked,
}

var titles = map[api.TaskStatus]string{
	api.TaskTodo:       "To Do",
	api.TaskInProgress: "In Progress",
	api.TaskInReview:   "In Review",
	api.TaskDone:       "Done",
	api.TaskBlocked:    "Blocked",
}

// Column is one status bucket and the tasks in it
type Column struct {
	Status api.TaskStatus `json:"status" yaml:"status"`
	Title  string         `json:"title" yaml:"title"`
	Tasks  []api.Task     `json:"tasks" yaml:"tasks"`
}

// Title returns the display title for a status, falling back to the raw value
func Title(status api.TaskStatus) string {
	if title, ok := titles[status]; ok {
		return title
	}
	return string(status)
}

// Group returns one column per bucket, in bucket order. Tasks keep their
// input order within a column, and empty columns are kept. Tasks whose
// status matches no bucket are left out.
func Group(tasks []api.Task, buckets []api.TaskStatus) []Column {
	columns := make([]Column, len(buckets))
	index := make(map[api.TaskStatus][]int, len(buckets))
	for i, status := range buckets {
		columns[i] = Column{
			Status: status,
			Title:  Title(status),
			Tasks:  []api.Task{},
		}
		index[status] = append(index[status], i)
	}

	for _, task := range tasks {
		for _, i := range index[task.Status] {
			columns[i].Tasks = append(columns[i].Tasks, task)
		}
	}

	return columns
}

// Counts returns the number of tasks per column status
func Counts(columns []Column) []api.TaskStatusCount {
	counts := make([]api.TaskStatusCount, len(columns))
	for i, col := range columns {
		counts[i] = api.TaskStatusCount{Status: col.Status, Count: len(col.Tasks)}
	}
	return counts
}
