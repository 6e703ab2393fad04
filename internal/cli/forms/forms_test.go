package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

func validRegisterForm() RegisterForm {
	return RegisterForm{
		Email:           "alice@example.com",
		Username:        "alice_1",
		FullName:        "Alice Doe",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterForm_Valid(t *testing.T) {
	form := validRegisterForm()
	require.NoError(t, form.Validate())

	input := form.Input()
	assert.Equal(t, api.RoleDeveloper, input.Role, "role defaults to developer")
	assert.Equal(t, "alice_1", input.Username)
	assert.Equal(t, "secret1", input.Password)
}

func TestRegisterForm_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *RegisterForm)
		field   string
		message string
	}{
		{"missing email", func(f *RegisterForm) { f.Email = "" }, "Email", "Email is required"},
		{"bad email", func(f *RegisterForm) { f.Email = "alice" }, "Email", "Invalid email format"},
		{"short username", func(f *RegisterForm) { f.Username = "al" }, "Username", "Username must be at least 3 characters"},
		{"username charset", func(f *RegisterForm) { f.Username = "alice!" }, "Username", "Username may only contain letters, numbers, hyphens and underscores"},
		{"missing full name", func(f *RegisterForm) { f.FullName = "" }, "FullName", "Full name is required"},
		{"short password", func(f *RegisterForm) { f.Password = "abc"; f.ConfirmPassword = "abc" }, "Password", "Password must be at least 6 characters"},
		{"missing confirmation", func(f *RegisterForm) { f.ConfirmPassword = "" }, "ConfirmPassword", "Please confirm your password"},
		{"mismatched confirmation", func(f *RegisterForm) { f.ConfirmPassword = "secret2" }, "ConfirmPassword", "Passwords must match"},
		{"unknown role", func(f *RegisterForm) { f.Role = "owner" }, "Role", "Role must be one of: admin, manager, developer, viewer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validRegisterForm()
			tt.mutate(&form)

			err := form.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.message, verr.Message(tt.field))
		})
	}
}

func TestRegisterForm_ReportsEveryField(t *testing.T) {
	form := RegisterForm{}
	err := form.Validate()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 5)
	assert.Contains(t, err.Error(), "Email is required; Username is required")
}

func TestProjectForm(t *testing.T) {
	budget := 1500.0
	form := ProjectForm{Name: "Apollo", Status: "planning", Priority: "high", StartDate: "2026-01-05", Budget: &budget}
	require.NoError(t, form.Validate())

	input, err := form.Input()
	require.NoError(t, err)
	assert.Equal(t, "Apollo", input.Name)
	assert.Nil(t, input.Description)
	require.NotNil(t, input.StartDate)
	assert.Equal(t, 5, input.StartDate.Day())
	assert.Nil(t, input.EndDate)

	negative := -1.0
	bad := ProjectForm{Status: "archived", Priority: "high", EndDate: "05/01/2026", Budget: &negative}
	err = bad.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Project name is required", verr.Message("Name"))
	assert.Contains(t, verr.Message("Status"), "Status must be one of")
	assert.Equal(t, "End date must be YYYY-MM-DD", verr.Message("EndDate"))
	assert.Equal(t, "Budget must be positive", verr.Message("Budget"))
	assert.Empty(t, verr.Message("Priority"))
}

func TestTaskForm(t *testing.T) {
	hours := 4
	form := TaskForm{Title: " Write docs ", Description: "API", Status: "todo", Priority: "low", ProjectID: 3, EstimatedHours: &hours, DueDate: "2026-02-01"}
	require.NoError(t, form.Validate())

	input, err := form.Input()
	require.NoError(t, err)
	assert.Equal(t, "Write docs", input.Title)
	require.NotNil(t, input.Description)
	assert.Equal(t, "API", *input.Description)
	assert.Equal(t, 3, input.ProjectID)
	require.NotNil(t, input.DueDate)

	zero := 0
	bad := TaskForm{Status: "todo", Priority: "low", EstimatedHours: &zero}
	err = bad.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Task title is required", verr.Message("Title"))
	assert.Equal(t, "Project is required", verr.Message("ProjectID"))
	assert.Equal(t, "Estimated hours must be positive", verr.Message("EstimatedHours"))
}
