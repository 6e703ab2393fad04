// Package api holds the wire types shared by the taskdesk client and server.
// Field names follow the GraphQL schema (camelCase).
package api

import "time"

// UserRole is the role of an account within the organisation
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleDeveloper UserRole = "developer"
	RoleViewer    UserRole = "viewer"
)

// Roles lists every valid role in display order
var Roles = []UserRole{RoleAdmin, RoleManager, RoleDeveloper, RoleViewer}

// User is the full account record returned by identity and auth operations
type User struct {
	ID         int        `json:"id" yaml:"id"`
	Email      string     `json:"email" yaml:"email"`
	Username   string     `json:"username" yaml:"username"`
	FullName   string     `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Role       UserRole   `json:"role" yaml:"role"`
	AvatarURL  string     `json:"avatarUrl,omitempty" yaml:"avatarUrl,omitempty"`
	Phone      string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	Department string     `json:"department,omitempty" yaml:"department,omitempty"`
	Position   string     `json:"position,omitempty" yaml:"position,omitempty"`
	IsActive   bool       `json:"isActive" yaml:"isActive"`
	CreatedAt  time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// DisplayName returns the full name when set, otherwise the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserSummary is the reduced user shape embedded in projects, tasks and activities
type UserSummary struct {
	ID        int    `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	FullName  string `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty" yaml:"avatarUrl,omitempty"`
}

// AuthPayload is the result of a credential exchange (login or register)
type AuthPayload struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// UserInput carries the registration fields
type UserInput struct {
	Email      string   `json:"email" validate:"required,email"`
	Username   string   `json:"username" validate:"required,min=3,max=50,username"`
	FullName   string   `json:"fullName" validate:"max=100"`
	Password   string   `json:"password" validate:"required,min=6"`
	Role       UserRole `json:"role,omitempty" validate:"omitempty,oneof=admin manager developer viewer"`
	Phone      string   `json:"phone,omitempty" validate:"max=20"`
	Department string   `json:"department,omitempty" validate:"max=100"`
	Position   string   `json:"position,omitempty" validate:"max=100"`
}

// ProfileInput carries the editable profile fields. Nil fields are left unchanged.
type ProfileInput struct {
	FullName   *string `json:"fullName,omitempty" validate:"omitempty,max=100"`
	AvatarURL  *string `json:"avatarUrl,omitempty" validate:"omitempty,max=500"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=100"`
	Position   *string `json:"position,omitempty" validate:"omitempty,max=100"`
}

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Priority is shared by projects and tasks
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Project is a project with its creator and members
type Project struct {
	ID          int           `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Status      ProjectStatus `json:"status" yaml:"status"`
	Priority    Priority      `json:"priority" yaml:"priority"`
	StartDate   *time.Time    `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate     *time.Time    `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Progress    float64       `json:"progress" yaml:"progress"`
	Budget      *float64      `json:"budget,omitempty" yaml:"budget,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Creator     *UserSummary  `json:"creator,omitempty" yaml:"creator,omitempty"`
	Members     []UserSummary `json:"members" yaml:"members"`
}

// ProjectInput carries project fields for create and update.
// On update, empty strings and nil pointers leave the stored value unchanged.
type ProjectInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description *string       `json:"description,omitempty"`
	Status      ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=planning in_progress on_hold completed cancelled"`
	Priority    Priority      `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	EndDate     *time.Time    `json:"endDate,omitempty"`
	Budget      *float64      `json:"budget,omitempty" validate:"omitempty,gte=0"`
}

// ProjectRef is the reduced project shape embedded in tasks
type ProjectRef struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TaskStatus is the board column a task belongs to
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskInReview   TaskStatus = "in_review"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// TaskStatuses lists every task status in board order
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskInReview, TaskDone, TaskBlocked}

// Task is a unit of work inside a project
type Task struct {
	ID             int           `json:"id" yaml:"id"`
	Title          string        `json:"title" yaml:"title"`
	Description    string        `json:"description,omitempty" yaml:"description,omitempty"`
	Status         TaskStatus    `json:"status" yaml:"status"`
	Priority       Priority      `json:"priority" yaml:"priority"`
	ParentTaskID   *int          `json:"parentTaskId,omitempty" yaml:"parentTaskId,omitempty"`
	EstimatedHours *int          `json:"estimatedHours,omitempty" yaml:"estimatedHours,omitempty"`
	ActualHours    *int          `json:"actualHours,omitempty" yaml:"actualHours,omitempty"`
	StartDate      *time.Time    `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	DueDate        *time.Time    `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      *time.Time    `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Project        *ProjectRef   `json:"project,omitempty" yaml:"project,omitempty"`
	Assignees      []UserSummary `json:"assignees" yaml:"assignees"`
}

// TaskInput carries task fields for create and update.
// On update, empty strings and nil pointers leave the stored value unchanged.
type TaskInput struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    *string    `json:"description,omitempty"`
	Status         TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress in_review done blocked"`
	Priority       Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	ProjectID      int        `json:"projectId" validate:"required,gt=0"`
	ParentTaskID   *int       `json:"parentTaskId,omitempty"`
	EstimatedHours *int       `json:"estimatedHours,omitempty" validate:"omitempty,gte=1"`
	ActualHours    *int       `json:"actualHours,omitempty" validate:"omitempty,gte=0"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
}

// TaskStatusCount is one bucket of the dashboard status histogram
type TaskStatusCount struct {
	Status TaskStatus `json:"status" yaml:"status"`
	Count  int        `json:"count" yaml:"count"`
}

// DashboardStats summarises projects and tasks visible to the caller
type DashboardStats struct {
	TotalProjects     int               `json:"totalProjects" yaml:"totalProjects"`
	ActiveProjects    int               `json:"activeProjects" yaml:"activeProjects"`
	CompletedProjects int               `json:"completedProjects" yaml:"completedProjects"`
	TotalTasks        int               `json:"totalTasks" yaml:"totalTasks"`
	CompletedTasks    int               `json:"completedTasks" yaml:"completedTasks"`
	OverdueTasks      int               `json:"overdueTasks" yaml:"overdueTasks"`
	TasksByStatus     []TaskStatusCount `json:"tasksByStatus" yaml:"tasksByStatus"`
}

// Activity is one entry of the user activity log
type Activity struct {
	ID           int          `json:"id" yaml:"id"`
	Action       string       `json:"action" yaml:"action"`
	ResourceType string       `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`
	ResourceID   *int         `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`
	Description  string       `json:"description" yaml:"description"`
	CreatedAt    time.Time    `json:"createdAt" yaml:"createdAt"`
	User         *UserSummary `json:"user,omitempty" yaml:"user,omitempty"`
}
