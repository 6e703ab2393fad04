package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/cli/config"
	"github.com/taskdesk-dev/taskdesk/internal/session"
)

const validToken = "tok-valid"

// memoryTokenStore is a simple in-memory token store for testing
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]string)}
}

func (m *memoryTokenStore) forServer(serverURL string) session.TokenStore {
	return &serverTokenStore{parent: m, serverURL: serverURL}
}

func (m *memoryTokenStore) get(serverURL string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[serverURL]
}

type serverTokenStore struct {
	parent    *memoryTokenStore
	serverURL string
}

func (s *serverTokenStore) LoadToken() (string, error) {
	return s.parent.get(s.serverURL), nil
}

func (s *serverTokenStore) SaveToken(token string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.tokens[s.serverURL] = token
	return nil
}

func (s *serverTokenStore) DeleteToken() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	delete(s.parent.tokens, s.serverURL)
	return nil
}

// fakeBackend answers the GraphQL operations the CLI sends
type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	projects []api.Project
	tasks    []api.Task
	calls    map[string]int
	lastVars map[string]json.RawMessage
}

var alice = api.User{ID: 1, Email: "alice@example.com", Username: "alice", FullName: "Alice Doe", Role: api.RoleDeveloper, IsActive: true}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		t:        t,
		calls:    make(map[string]int),
		lastVars: make(map[string]json.RawMessage),
	}
	srv := httptest.NewServer(http.HandlerFunc(b.serveHTTP))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) callCount(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *fakeBackend) vars(op string) json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastVars[op]
}

func (b *fakeBackend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req api.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.calls[req.OperationName]++
	b.lastVars[req.OperationName] = req.Variables
	b.mu.Unlock()

	authed := r.Header.Get("Authorization") == "Bearer "+validToken

	reply := func(field string, value any) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{field: value}})
	}
	fail := func(code, msg string) {
		json.NewEncoder(w).Encode(map[string]any{
			"data":   nil,
			"errors": []map[string]any{{"message": msg, "extensions": map[string]any{"code": code}}},
		})
	}

	switch req.OperationName {
	case api.OpLogin:
		var vars struct {
			UsernameOrEmail string `json:"usernameOrEmail"`
			Password        string `json:"password"`
		}
		json.Unmarshal(req.Variables, &vars)
		if vars.UsernameOrEmail != "alice" || vars.Password != "secret1" {
			fail(api.CodeUnauthenticated, "Invalid credentials")
			return
		}
		reply("login", api.AuthPayload{User: &alice, AccessToken: validToken, TokenType: "bearer"})
		return
	case api.OpRegister:
		var vars struct {
			UserInput api.UserInput `json:"userInput"`
		}
		json.Unmarshal(req.Variables, &vars)
		user := alice
		user.Email = vars.UserInput.Email
		user.Username = vars.UserInput.Username
		user.FullName = vars.UserInput.FullName
		user.Role = vars.UserInput.Role
		reply("register", api.AuthPayload{User: &user, AccessToken: validToken, TokenType: "bearer"})
		return
	}

	if !authed {
		if req.OperationName == api.OpGetMe {
			reply("me", nil)
			return
		}
		fail(api.CodeUnauthenticated, "Not authenticated")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch req.OperationName {
	case api.OpGetMe:
		reply("me", alice)
	case api.OpGetProjects:
		reply("projects", b.projects)
	case api.OpCreateProject:
		var vars struct {
			ProjectInput api.ProjectInput `json:"projectInput"`
		}
		json.Unmarshal(req.Variables, &vars)
		p := api.Project{ID: len(b.projects) + 1, Name: vars.ProjectInput.Name, Status: vars.ProjectInput.Status, Priority: vars.ProjectInput.Priority, Members: []api.UserSummary{{ID: 1, Username: "alice"}}}
		b.projects = append(b.projects, p)
		reply("createProject", p)
	case api.OpGetTasks:
		var vars struct {
			ProjectID *int `json:"projectId"`
		}
		json.Unmarshal(req.Variables, &vars)
		out := []api.Task{}
		for _, task := range b.tasks {
			if vars.ProjectID == nil || (task.Project != nil && task.Project.ID == *vars.ProjectID) {
				out = append(out, task)
			}
		}
		reply("tasks", out)
	case api.OpUpdateTask:
		var vars struct {
			TaskID    int           `json:"taskId"`
			TaskInput api.TaskInput `json:"taskInput"`
		}
		json.Unmarshal(req.Variables, &vars)
		for i := range b.tasks {
			if b.tasks[i].ID == vars.TaskID {
				if vars.TaskInput.Status != "" {
					b.tasks[i].Status = vars.TaskInput.Status
				}
				reply("updateTask", b.tasks[i])
				return
			}
		}
		fail(api.CodeNotFound, "Task not found")
	case api.OpUpdateProfile:
		var vars struct {
			ProfileInput api.ProfileInput `json:"profileInput"`
		}
		json.Unmarshal(req.Variables, &vars)
		user := alice
		if vars.ProfileInput.Department != nil {
			user.Department = *vars.ProfileInput.Department
		}
		reply("updateProfile", user)
	default:
		b.t.Errorf("unexpected operation %s", req.OperationName)
		fail(api.CodeInternal, "unexpected operation")
	}
}

type testEnv struct {
	opts    *Options
	out     *bytes.Buffer
	tokens  *memoryTokenStore
	backend *fakeBackend
	url     string
}

// newTestEnv points the CLI at a fake backend with a temp HOME and working directory
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKDESK_SERVER", "")
	t.Setenv("TASKDESK_USER", "")
	t.Setenv("TASKDESK_PASSWORD", "")
	chdir(t, t.TempDir())

	backend, srv := newFakeBackend(t)
	tokens := newMemoryTokenStore()
	var out bytes.Buffer

	opts := &Options{
		Server: srv.URL,
		Output: "table",
		Out:    &out,
		Err:    &out,
		Logger: zerolog.Nop(),
		OpenStore: func(kind, serverURL string) (session.TokenStore, error) {
			return tokens.forServer(serverURL), nil
		},
		Interactive: func() bool { return false },
		PromptServer: func(*config.Config) (*config.Server, error) {
			t.Fatal("server prompt should not be shown")
			return nil, nil
		},
	}

	return &testEnv{opts: opts, out: &out, tokens: tokens, backend: backend, url: srv.URL}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.tokens.forServer(e.url).SaveToken(validToken))
}

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
