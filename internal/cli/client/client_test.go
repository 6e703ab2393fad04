package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// mockGraphQLServer answers each operation with the given handler output and counts calls
func mockGraphQLServer(t *testing.T, handle func(req api.Request, authHeader string) (int, any)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req api.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		atomic.AddInt32(&calls, 1)
		status, body := handle(req, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if s, ok := body.(string); ok {
			w.Write([]byte(s))
			return
		}
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNew_DefaultsToHTTPS(t *testing.T) {
	assert.Equal(t, "https://tasks.example.com", New("tasks.example.com/").BaseURL())
	assert.Equal(t, "http://localhost:8080", New("http://localhost:8080").BaseURL())
}

func TestNew_CacheReady(t *testing.T) {
	c := New("api.example.com")
	require.NotNil(t, c.cache)
	assert.Zero(t, c.cache.Len())
	assert.Positive(t, defaultCacheSize)
}

func TestLogin_SendsVariablesWithoutToken(t *testing.T) {
	srv, _ := mockGraphQLServer(t, func(req api.Request, auth string) (int, any) {
		assert.Equal(t, api.OpLogin, req.OperationName)
		assert.Contains(t, req.Query, "mutation Login")
		assert.Empty(t, auth)

		var vars map[string]string
		require.NoError(t, json.Unmarshal(req.Variables, &vars))
		assert.Equal(t, "alice", vars["usernameOrEmail"])
		assert.Equal(t, "secret", vars["password"])

		return http.StatusOK, map[string]any{
			"data": map[string]any{
				"login": map[string]any{
					"user":        map[string]any{"id": 1, "username": "alice", "email": "alice@example.com", "role": "developer", "isActive": true},
					"accessToken": "tok-1",
					"tokenType":   "bearer",
				},
			},
		}
	})

	c := New(srv.URL)
	payload, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	require.NotNil(t, payload.User)
	assert.Equal(t, 1, payload.User.ID)
	assert.Equal(t, "alice", payload.User.Username)
	assert.Equal(t, "tok-1", payload.AccessToken)
	assert.Equal(t, "bearer", payload.TokenType)
}

func TestMe_AttachesBearerToken(t *testing.T) {
	srv, _ := mockGraphQLServer(t, func(req api.Request, auth string) (int, any) {
		assert.Equal(t, api.OpGetMe, req.OperationName)
		if auth != "Bearer abc" {
			return http.StatusOK, map[string]any{"data": map[string]any{"me": nil}}
		}
		return http.StatusOK, map[string]any{"data": map[string]any{"me": map[string]any{"id": 1, "username": "alice"}}}
	})

	c := New(srv.URL)
	c.SetTokenSource(staticToken("abc"))
	user, err := c.Me(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	c.SetTokenSource(staticToken(""))
	user, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestMe_BypassesCache(t *testing.T) {
	srv, calls := mockGraphQLServer(t, func(api.Request, string) (int, any) {
		return http.StatusOK, map[string]any{"data": map[string]any{"me": map[string]any{"id": 1}}}
	})

	c := New(srv.URL)
	_, err := c.Me(context.Background())
	require.NoError(t, err)
	_, err = c.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestQuery_CachesUntilMutationOrClear(t *testing.T) {
	srv, calls := mockGraphQLServer(t, func(req api.Request, _ string) (int, any) {
		switch req.OperationName {
		case api.OpGetProjects:
			return http.StatusOK, map[string]any{"data": map[string]any{"projects": []map[string]any{{"id": 1, "name": "Apollo", "status": "planning"}}}}
		case api.OpDeleteProject:
			return http.StatusOK, map[string]any{"data": map[string]any{"deleteProject": true}}
		}
		t.Errorf("unexpected operation %s", req.OperationName)
		return http.StatusOK, map[string]any{"data": nil}
	})

	c := New(srv.URL)
	ctx := context.Background()

	projects, err := c.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Apollo", projects[0].Name)

	_, err = c.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second query should be served from cache")

	require.NoError(t, c.DeleteProject(ctx, 1))
	_, err = c.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "mutation should invalidate the cache")

	c.ClearCache()
	_, err = c.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
}

func TestQuery_CacheKeyIncludesVariables(t *testing.T) {
	srv, calls := mockGraphQLServer(t, func(req api.Request, _ string) (int, any) {
		var vars struct {
			ProjectID *int `json:"projectId"`
		}
		json.Unmarshal(req.Variables, &vars)
		id := 0
		if vars.ProjectID != nil {
			id = *vars.ProjectID
		}
		return http.StatusOK, map[string]any{"data": map[string]any{"tasks": []map[string]any{{"id": id, "status": "todo"}}}}
	})

	c := New(srv.URL)
	one, two := 1, 2

	tasks, err := c.Tasks(context.Background(), &one)
	require.NoError(t, err)
	assert.Equal(t, 1, tasks[0].ID)

	tasks, err = c.Tasks(context.Background(), &two)
	require.NoError(t, err)
	assert.Equal(t, 2, tasks[0].ID)

	_, err = c.Tasks(context.Background(), &one)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestExecute_GraphQLErrors(t *testing.T) {
	srv, _ := mockGraphQLServer(t, func(api.Request, string) (int, any) {
		return http.StatusOK, map[string]any{
			"data": nil,
			"errors": []map[string]any{{
				"message":    "Not authenticated",
				"extensions": map[string]any{"code": api.CodeUnauthenticated},
			}},
		}
	})

	c := New(srv.URL)
	_, err := c.Projects(context.Background())
	require.Error(t, err)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, api.OpGetProjects, respErr.Operation)
	assert.Equal(t, "Not authenticated", err.Error())
	assert.True(t, IsUnauthenticated(err))
}

func TestExecute_HTTPError(t *testing.T) {
	srv, _ := mockGraphQLServer(t, func(api.Request, string) (int, any) {
		return http.StatusBadGateway, `{"error": "upstream down"}`
	})

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "alice", "secret")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "upstream down")
	assert.False(t, IsUnauthenticated(err))
}

func TestExecute_TransportError(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestDashboardStats(t *testing.T) {
	srv, _ := mockGraphQLServer(t, func(req api.Request, _ string) (int, any) {
		assert.Equal(t, api.OpGetDashboardStats, req.OperationName)
		return http.StatusOK, `{"data":{"dashboardStats":{"totalProjects":3,"activeProjects":1,"completedProjects":1,"totalTasks":4,"completedTasks":2,"overdueTasks":1,"tasksByStatus":[{"status":"done","count":2}]}}}`
	})

	stats, err := New(srv.URL).DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProjects)
	assert.Equal(t, 1, stats.OverdueTasks)
	require.Len(t, stats.TasksByStatus, 1)
	assert.Equal(t, api.TaskDone, stats.TasksByStatus[0].Status)
}
