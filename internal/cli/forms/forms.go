// Package forms validates user input collected by the CLI before it is sent
// to the server, with the field messages the web forms show.
package forms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

const dateLayout = "2006-01-02"

// FieldError is a single invalid field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of a form, in declaration order
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Message returns the message for field, or "" when the field is valid
func (e *ValidationError) Message(field string) string {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

var validate = api.NewValidator()

// check runs struct validation and maps each failure to "<Field>.<tag>" in messages
func check(form any, messages map[string]string) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out.Errors = append(out.Errors, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// RegisterForm is the sign-up form
type RegisterForm struct {
	Email           string `validate:"required,email"`
	Username        string `validate:"required,min=3,username"`
	FullName        string `validate:"required"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
	Role            string `validate:"omitempty,oneof=admin manager developer viewer"`
	Phone           string
	Department      string
	Position        string
}

var registerMessages = map[string]string{
	"Email.required":           "Email is required",
	"Email.email":              "Invalid email format",
	"Username.required":        "Username is required",
	"Username.min":             "Username must be at least 3 characters",
	"Username.username":        "Username may only contain letters, numbers, hyphens and underscores",
	"FullName.required":        "Full name is required",
	"Password.required":        "Password is required",
	"Password.min":             "Password must be at least 6 characters",
	"ConfirmPassword.required": "Please confirm your password",
	"ConfirmPassword.eqfield":  "Passwords must match",
	"Role.oneof":               "Role must be one of: admin, manager, developer, viewer",
}

// Validate checks the form
func (f *RegisterForm) Validate() error {
	return check(f, registerMessages)
}

// Input converts a validated form to the register mutation input
func (f *RegisterForm) Input() api.UserInput {
	role := api.UserRole(f.Role)
	if role == "" {
		role = api.RoleDeveloper
	}
	return api.UserInput{
		Email:      strings.TrimSpace(f.Email),
		Username:   strings.TrimSpace(f.Username),
		FullName:   strings.TrimSpace(f.FullName),
		Password:   f.Password,
		Role:       role,
		Phone:      f.Phone,
		Department: f.Department,
		Position:   f.Position,
	}
}

// ProjectForm is the create project form
type ProjectForm struct {
	Name        string `validate:"required"`
	Description string
	Status      string   `validate:"required,oneof=planning in_progress on_hold completed cancelled"`
	Priority    string   `validate:"required,oneof=low medium high urgent"`
	StartDate   string   `validate:"omitempty,datetime=2006-01-02"`
	EndDate     string   `validate:"omitempty,datetime=2006-01-02"`
	Budget      *float64 `validate:"omitempty,gte=0"`
}

var projectMessages = map[string]string{
	"Name.required":      "Project name is required",
	"Status.required":    "Status is required",
	"Status.oneof":       "Status must be one of: planning, in_progress, on_hold, completed, cancelled",
	"Priority.required":  "Priority is required",
	"Priority.oneof":     "Priority must be one of: low, medium, high, urgent",
	"StartDate.datetime": "Start date must be YYYY-MM-DD",
	"EndDate.datetime":   "End date must be YYYY-MM-DD",
	"Budget.gte":         "Budget must be positive",
}

// Validate checks the form
func (f *ProjectForm) Validate() error {
	return check(f, projectMessages)
}

// Input converts a validated form to the create project input
func (f *ProjectForm) Input() (api.ProjectInput, error) {
	start, err := parseDate(f.StartDate)
	if err != nil {
		return api.ProjectInput{}, err
	}
	end, err := parseDate(f.EndDate)
	if err != nil {
		return api.ProjectInput{}, err
	}
	return api.ProjectInput{
		Name:        strings.TrimSpace(f.Name),
		Description: optionalString(f.Description),
		Status:      api.ProjectStatus(f.Status),
		Priority:    api.Priority(f.Priority),
		StartDate:   start,
		EndDate:     end,
		Budget:      f.Budget,
	}, nil
}

// TaskForm is the create task form
type TaskForm struct {
	Title          string `validate:"required"`
	Description    string
	Status         string `validate:"required,oneof=todo in_progress in_review done blocked"`
	Priority       string `validate:"required,oneof=low medium high urgent"`
	ProjectID      int    `validate:"required,gt=0"`
	EstimatedHours *int   `validate:"omitempty,gte=1"`
	StartDate      string `validate:"omitempty,datetime=2006-01-02"`
	DueDate        string `validate:"omitempty,datetime=2006-01-02"`
}

var taskMessages = map[string]string{
	"Title.required":     "Task title is required",
	"Status.required":    "Status is required",
	"Status.oneof":       "Status must be one of: todo, in_progress, in_review, done, blocked",
	"Priority.required":  "Priority is required",
	"Priority.oneof":     "Priority must be one of: low, medium, high, urgent",
	"ProjectID.required": "Project is required",
	"ProjectID.gt":       "Project is required",
	"EstimatedHours.gte": "Estimated hours must be positive",
	"StartDate.datetime": "Start date must be YYYY-MM-DD",
	"DueDate.datetime":   "Due date must be YYYY-MM-DD",
}

// Validate checks the form
func (f *TaskForm) Validate() error {
	return check(f, taskMessages)
}

// Input converts a validated form to the create task input
func (f *TaskForm) Input() (api.TaskInput, error) {
	start, err := parseDate(f.StartDate)
	if err != nil {
		return api.TaskInput{}, err
	}
	due, err := parseDate(f.DueDate)
	if err != nil {
		return api.TaskInput{}, err
	}
	return api.TaskInput{
		Title:          strings.TrimSpace(f.Title),
		Description:    optionalString(f.Description),
		Status:         api.TaskStatus(f.Status),
		Priority:       api.Priority(f.Priority),
		ProjectID:      f.ProjectID,
		EstimatedHours: f.EstimatedHours,
		StartDate:      start,
		DueDate:        due,
	}, nil
}
