package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides the auto-increment primary key and creation time shared by all models
type BaseModel struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// ServerSettings holds server-wide state persisted across restarts.
// This is a singleton model (only one row should exist)
type ServerSettings struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Generated on first start (64 hex chars)
}

// User represents an account that can sign in
type User struct {
	BaseModel
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         string     `json:"role" gorm:"not null;default:developer"`
	AvatarURL    string     `json:"avatar_url"`
	Phone        string     `json:"phone"`
	Department   string     `json:"department"`
	Position     string     `json:"position"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	LastLogin    *time.Time `json:"last_login"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// Project groups tasks and members
type Project struct {
	BaseModel
	Name        string     `json:"name" gorm:"not null;index"`
	Description string     `json:"description"`
	Status      string     `json:"status" gorm:"not null;default:planning"`
	Priority    string     `json:"priority" gorm:"not null;default:medium"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatorID   int        `json:"creator_id" gorm:"not null;index"`
	Budget      *float64   `json:"budget"`
	Progress    float64    `json:"progress" gorm:"not null;default:0"` // 0-100, derived from task completion
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Creator *User           `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Members []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
}

// Project member roles
const (
	MemberRoleLead     = "lead"
	MemberRoleMember   = "member"
	MemberRoleObserver = "observer"
)

// ProjectMember links a user to a project
type ProjectMember struct {
	BaseModel
	ProjectID int    `json:"project_id" gorm:"not null;uniqueIndex:idx_project_member"`
	UserID    int    `json:"user_id" gorm:"not null;uniqueIndex:idx_project_member"`
	Role      string `json:"role" gorm:"not null;default:member"` // lead, member, observer

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Task is a unit of work inside a project
type Task struct {
	BaseModel
	Title          string     `json:"title" gorm:"not null"`
	Description    string     `json:"description"`
	Status         string     `json:"status" gorm:"not null;default:todo;index"`
	Priority       string     `json:"priority" gorm:"not null;default:medium"`
	ProjectID      int        `json:"project_id" gorm:"not null;index"`
	ParentTaskID   *int       `json:"parent_task_id"`
	EstimatedHours *int       `json:"estimated_hours"`
	ActualHours    *int       `json:"actual_hours"`
	StartDate      *time.Time `json:"start_date"`
	DueDate        *time.Time `json:"due_date"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedByID    int        `json:"created_by_id" gorm:"not null"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Project     *Project         `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Assignments []TaskAssignment `json:"assignments,omitempty" gorm:"foreignKey:TaskID"`
}

// TaskAssignment records that a user works on a task
type TaskAssignment struct {
	BaseModel
	TaskID       int `json:"task_id" gorm:"not null;uniqueIndex:idx_task_assignment"`
	UserID       int `json:"user_id" gorm:"not null;uniqueIndex:idx_task_assignment"`
	AssignedByID int `json:"assigned_by_id" gorm:"not null"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// UserActivityLog is an audit entry written by every mutation
type UserActivityLog struct {
	BaseModel
	UserID       int    `json:"user_id" gorm:"not null;index"`
	Action       string `json:"action" gorm:"not null"` // e.g. user_login, task_created
	ResourceType string `json:"resource_type"`          // project, task, user
	ResourceID   *int   `json:"resource_id"`
	Description  string `json:"description"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&ServerSettings{}, &User{}, &Project{}, &ProjectMember{},
		&Task{}, &TaskAssignment{}, &UserActivityLog{},
	}

	return db.AutoMigrate(models...)
}

// FindByID finds a record by primary key
func FindByID[T any](db *gorm.DB, id int, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id int, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
