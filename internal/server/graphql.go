package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/auth"
)

const maxRequestBytes = 1 << 20

// gqlError is a resolver error reported to the caller with a code
type gqlError struct {
	Message string
	Code    string
}

func (e *gqlError) Error() string {
	return e.Message
}

func errUnauthenticated() error {
	return &gqlError{Message: "Not authenticated", Code: api.CodeUnauthenticated}
}

func errForbidden() error {
	return &gqlError{Message: "Not enough permissions", Code: api.CodeForbidden}
}

func errNotFound(what string) error {
	return &gqlError{Message: what + " not found", Code: api.CodeNotFound}
}

func errBadInput(format string, args ...any) error {
	return &gqlError{Message: fmt.Sprintf(format, args...), Code: api.CodeBadUserInput}
}

// requestContext carries what a resolver needs about the current request
type requestContext struct {
	context.Context
	session   *auth.SessionData
	requestID string
	log       zerolog.Logger
}

// userID returns the caller's id. Only valid in resolvers that require auth.
func (rc *requestContext) userID() int {
	return rc.session.UserID
}

// resolver answers one operation. field names the key under data.
type resolver struct {
	field       string
	requireAuth bool
	resolve     func(rc *requestContext, vars json.RawMessage) (any, error)
}

func (s *Server) registerResolvers() map[string]resolver {
	return map[string]resolver{
		api.OpGetMe:               {field: "me", requireAuth: true, resolve: s.resolveMe},
		api.OpGetUsers:            {field: "users", requireAuth: true, resolve: s.resolveUsers},
		api.OpLogin:               {field: "login", resolve: s.resolveLogin},
		api.OpRegister:            {field: "register", resolve: s.resolveRegister},
		api.OpUpdateProfile:       {field: "updateProfile", requireAuth: true, resolve: s.resolveUpdateProfile},
		api.OpGetProjects:         {field: "projects", requireAuth: true, resolve: s.resolveProjects},
		api.OpGetProject:          {field: "project", requireAuth: true, resolve: s.resolveProject},
		api.OpCreateProject:       {field: "createProject", requireAuth: true, resolve: s.resolveCreateProject},
		api.OpUpdateProject:       {field: "updateProject", requireAuth: true, resolve: s.resolveUpdateProject},
		api.OpDeleteProject:       {field: "deleteProject", requireAuth: true, resolve: s.resolveDeleteProject},
		api.OpGetTasks:            {field: "tasks", requireAuth: true, resolve: s.resolveTasks},
		api.OpGetTask:             {field: "task", requireAuth: true, resolve: s.resolveTask},
		api.OpCreateTask:          {field: "createTask", requireAuth: true, resolve: s.resolveCreateTask},
		api.OpUpdateTask:          {field: "updateTask", requireAuth: true, resolve: s.resolveUpdateTask},
		api.OpDeleteTask:          {field: "deleteTask", requireAuth: true, resolve: s.resolveDeleteTask},
		api.OpAssignTask:          {field: "assignTask", requireAuth: true, resolve: s.resolveAssignTask},
		api.OpGetDashboardStats:   {field: "dashboardStats", requireAuth: true, resolve: s.resolveDashboardStats},
		api.OpGetRecentActivities: {field: "recentActivities", requireAuth: true, resolve: s.resolveRecentActivities},
	}
}

func envelopeError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, api.Response{
		Data: json.RawMessage("null"),
		Errors: []api.Error{{
			Message:    message,
			Extensions: map[string]any{"code": api.CodeBadUserInput},
		}},
	})
}

// handleGraphQL dispatches on operationName. Resolver failures are reported
// in errors[] with status 200; a malformed envelope is a 400.
func (s *Server) handleGraphQL(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	var req api.Request
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		envelopeError(c, "Malformed request body")
		return
	}
	if req.OperationName == "" {
		envelopeError(c, "operationName is required")
		return
	}

	r, ok := s.resolvers[req.OperationName]
	if !ok {
		envelopeError(c, fmt.Sprintf("Unknown operation %q", req.OperationName))
		return
	}

	session, _ := GetSessionData(c)
	requestID := c.GetString(requestIDKey)
	rc := &requestContext{
		Context:   c.Request.Context(),
		session:   session,
		requestID: requestID,
		log: s.logger.With().
			Str("operation", req.OperationName).
			Str("request_id", requestID).
			Logger(),
	}

	start := time.Now()
	var (
		result any
		err    error
	)
	if r.requireAuth && session == nil {
		err = errUnauthenticated()
	} else {
		result, err = r.resolve(rc, req.Variables)
	}

	if err != nil {
		gerr := s.toGQLError(rc, err)
		s.metrics.ObserveOperation(req.OperationName, gerr.Code, time.Since(start))
		c.JSON(http.StatusOK, api.Response{
			Data: json.RawMessage("null"),
			Errors: []api.Error{{
				Message:    gerr.Message,
				Path:       []string{r.field},
				Extensions: map[string]any{"code": gerr.Code},
			}},
		})
		return
	}

	data, err := json.Marshal(map[string]any{r.field: result})
	if err != nil {
		rc.log.Error().Err(err).Msg("Failed to encode resolver result")
		s.metrics.ObserveOperation(req.OperationName, api.CodeInternal, time.Since(start))
		c.JSON(http.StatusInternalServerError, api.Response{
			Data:   json.RawMessage("null"),
			Errors: []api.Error{{Message: "Internal server error", Extensions: map[string]any{"code": api.CodeInternal}}},
		})
		return
	}

	s.metrics.ObserveOperation(req.OperationName, outcomeSuccess, time.Since(start))
	c.JSON(http.StatusOK, api.Response{Data: data})
}

// toGQLError passes coded errors through and hides everything else
func (s *Server) toGQLError(rc *requestContext, err error) *gqlError {
	var gerr *gqlError
	if errors.As(err, &gerr) {
		rc.log.Debug().Str("code", gerr.Code).Msg(gerr.Message)
		return gerr
	}

	rc.log.Error().Err(err).Msg("Resolver failed")
	return &gqlError{Message: "Internal server error", Code: api.CodeInternal}
}

// decodeVars unmarshals operation variables into out. Absent variables leave out untouched.
func decodeVars(vars json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(vars)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return errBadInput("Invalid variables: %v", err)
	}
	return nil
}

// validationError turns validator failures into a BAD_USER_INPUT error
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errBadInput("Invalid input: %v", err)
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			fields[i] = fmt.Sprintf("%s must satisfy %s=%s", lowerFirst(fe.Field()), fe.Tag(), fe.Param())
		} else {
			fields[i] = fmt.Sprintf("%s must satisfy %s", lowerFirst(fe.Field()), fe.Tag())
		}
	}
	return errBadInput("Invalid input: %s", strings.Join(fields, "; "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
