package api

import (
	"encoding/json"
	"strings"
)

// Operation names understood by the server. The client always sends one of
// these as operationName; the server dispatches on it.
const (
	OpGetMe               = "GetMe"
	OpGetUsers            = "GetUsers"
	OpLogin               = "Login"
	OpRegister            = "Register"
	OpUpdateProfile       = "UpdateProfile"
	OpGetProjects         = "GetProjects"
	OpGetProject          = "GetProject"
	OpCreateProject       = "CreateProject"
	OpUpdateProject       = "UpdateProject"
	OpDeleteProject       = "DeleteProject"
	OpGetTasks            = "GetTasks"
	OpGetTask             = "GetTask"
	OpCreateTask          = "CreateTask"
	OpUpdateTask          = "UpdateTask"
	OpDeleteTask          = "DeleteTask"
	OpAssignTask          = "AssignTask"
	OpGetDashboardStats   = "GetDashboardStats"
	OpGetRecentActivities = "GetRecentActivities"
)

// Error codes carried in Error.Extensions["code"]
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeInternal        = "INTERNAL"
)

// Request is the GraphQL-over-HTTP request envelope
type Request struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName"`
	Variables     json.RawMessage `json:"variables,omitempty"`
}

// Response is the GraphQL-over-HTTP response envelope
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Error is a single GraphQL error
type Error struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns the extensions code, or "" when none was set
func (e Error) Code() string {
	if e.Extensions == nil {
		return ""
	}
	code, _ := e.Extensions["code"].(string)
	return code
}

// Messages joins the messages of all errors
func Messages(errs []Error) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
