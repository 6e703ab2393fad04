package client

import (
	"context"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

const userFields = `id email username fullName role avatarUrl phone department position isActive createdAt updatedAt`

const userSummaryFields = `id username fullName avatarUrl`

const projectFields = `id name description status priority startDate endDate progress budget createdAt updatedAt
      creator { ` + userSummaryFields + ` }
      members { ` + userSummaryFields + ` }`

const taskFields = `id title description status priority parentTaskId estimatedHours actualHours startDate dueDate completedAt createdAt updatedAt
      project { id name }
      assignees { ` + userSummaryFields + ` }`

const (
	getMeDocument = `query GetMe { me { ` + userFields + ` } }`

	getUsersDocument = `query GetUsers { users { ` + userFields + ` } }`

	loginDocument = `mutation Login($usernameOrEmail: String!, $password: String!) {
  login(usernameOrEmail: $usernameOrEmail, password: $password) { user { ` + userFields + ` } accessToken tokenType }
}`

	registerDocument = `mutation Register($userInput: UserInput!) {
  register(userInput: $userInput) { user { ` + userFields + ` } accessToken tokenType }
}`

	updateProfileDocument = `mutation UpdateProfile($profileInput: ProfileInput!) {
  updateProfile(profileInput: $profileInput) { ` + userFields + ` }
}`

	getProjectsDocument = `query GetProjects { projects { ` + projectFields + ` } }`

	getProjectDocument = `query GetProject($projectId: Int!) { project(projectId: $projectId) { ` + projectFields + ` } }`

	createProjectDocument = `mutation CreateProject($projectInput: ProjectInput!) {
  createProject(projectInput: $projectInput) { ` + projectFields + ` }
}`

	updateProjectDocument = `mutation UpdateProject($projectId: Int!, $projectInput: ProjectInput!) {
  updateProject(projectId: $projectId, projectInput: $projectInput) { ` + projectFields + ` }
}`

	deleteProjectDocument = `mutation DeleteProject($projectId: Int!) { deleteProject(projectId: $projectId) }`

	getTasksDocument = `query GetTasks($projectId: Int) { tasks(projectId: $projectId) { ` + taskFields + ` } }`

	getTaskDocument = `query GetTask($taskId: Int!) { task(taskId: $taskId) { ` + taskFields + ` } }`

	createTaskDocument = `mutation CreateTask($taskInput: TaskInput!) {
  createTask(taskInput: $taskInput) { ` + taskFields + ` }
}`

	updateTaskDocument = `mutation UpdateTask($taskId: Int!, $taskInput: TaskInput!) {
  updateTask(taskId: $taskId, taskInput: $taskInput) { ` + taskFields + ` }
}`

	deleteTaskDocument = `mutation DeleteTask($taskId: Int!) { deleteTask(taskId: $taskId) }`

	assignTaskDocument = `mutation AssignTask($taskId: Int!, $userId: Int!) { assignTask(taskId: $taskId, userId: $userId) }`

	getDashboardStatsDocument = `query GetDashboardStats {
  dashboardStats { totalProjects activeProjects completedProjects totalTasks completedTasks overdueTasks tasksByStatus { status count } }
}`

	getRecentActivitiesDocument = `query GetRecentActivities($limit: Int = 10) {
  recentActivities(limit: $limit) { id action resourceType resourceId description createdAt user { ` + userSummaryFields + ` } }
}`
)

// Me returns the user the attached token belongs to. It always goes to the
// network so a revoked token is never masked by a cached identity.
func (c *Client) Me(ctx context.Context) (*api.User, error) {
	var data struct {
		Me *api.User `json:"me"`
	}
	if err := c.QueryNoCache(ctx, api.OpGetMe, getMeDocument, nil, &data); err != nil {
		return nil, err
	}
	return data.Me, nil
}

// Users lists every account
func (c *Client) Users(ctx context.Context) ([]api.User, error) {
	var data struct {
		Users []api.User `json:"users"`
	}
	if err := c.Query(ctx, api.OpGetUsers, getUsersDocument, nil, &data); err != nil {
		return nil, err
	}
	return data.Users, nil
}

// Login exchanges a username or email and password for an access token
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*api.AuthPayload, error) {
	vars := map[string]any{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}
	var data struct {
		Login *api.AuthPayload `json:"login"`
	}
	if err := c.Mutate(ctx, api.OpLogin, loginDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.Login, nil
}

// Register creates an account and returns an access token for it
func (c *Client) Register(ctx context.Context, input api.UserInput) (*api.AuthPayload, error) {
	vars := map[string]any{"userInput": input}
	var data struct {
		Register *api.AuthPayload `json:"register"`
	}
	if err := c.Mutate(ctx, api.OpRegister, registerDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.Register, nil
}

// UpdateProfile edits the caller's profile fields
func (c *Client) UpdateProfile(ctx context.Context, input api.ProfileInput) (*api.User, error) {
	vars := map[string]any{"profileInput": input}
	var data struct {
		UpdateProfile *api.User `json:"updateProfile"`
	}
	if err := c.Mutate(ctx, api.OpUpdateProfile, updateProfileDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.UpdateProfile, nil
}

// Projects lists the projects the caller created or is a member of
func (c *Client) Projects(ctx context.Context) ([]api.Project, error) {
	var data struct {
		Projects []api.Project `json:"projects"`
	}
	if err := c.Query(ctx, api.OpGetProjects, getProjectsDocument, nil, &data); err != nil {
		return nil, err
	}
	return data.Projects, nil
}

// Project returns a single project, or nil when it does not exist
func (c *Client) Project(ctx context.Context, projectID int) (*api.Project, error) {
	vars := map[string]any{"projectId": projectID}
	var data struct {
		Project *api.Project `json:"project"`
	}
	if err := c.Query(ctx, api.OpGetProject, getProjectDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.Project, nil
}

// CreateProject creates a project with the caller as lead
func (c *Client) CreateProject(ctx context.Context, input api.ProjectInput) (*api.Project, error) {
	vars := map[string]any{"projectInput": input}
	var data struct {
		CreateProject *api.Project `json:"createProject"`
	}
	if err := c.Mutate(ctx, api.OpCreateProject, createProjectDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.CreateProject, nil
}

// UpdateProject applies a partial update to a project
func (c *Client) UpdateProject(ctx context.Context, projectID int, input api.ProjectInput) (*api.Project, error) {
	vars := map[string]any{"projectId": projectID, "projectInput": input}
	var data struct {
		UpdateProject *api.Project `json:"updateProject"`
	}
	if err := c.Mutate(ctx, api.OpUpdateProject, updateProjectDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.UpdateProject, nil
}

// DeleteProject deletes a project the caller created
func (c *Client) DeleteProject(ctx context.Context, projectID int) error {
	vars := map[string]any{"projectId": projectID}
	return c.Mutate(ctx, api.OpDeleteProject, deleteProjectDocument, vars, nil)
}

// Tasks lists tasks, optionally limited to one project
func (c *Client) Tasks(ctx context.Context, projectID *int) ([]api.Task, error) {
	vars := map[string]any{}
	if projectID != nil {
		vars["projectId"] = *projectID
	}
	var data struct {
		Tasks []api.Task `json:"tasks"`
	}
	if err := c.Query(ctx, api.OpGetTasks, getTasksDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.Tasks, nil
}

// Task returns a single task, or nil when it does not exist
func (c *Client) Task(ctx context.Context, taskID int) (*api.Task, error) {
	vars := map[string]any{"taskId": taskID}
	var data struct {
		Task *api.Task `json:"task"`
	}
	if err := c.Query(ctx, api.OpGetTask, getTaskDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.Task, nil
}

// CreateTask creates a task in a project
func (c *Client) CreateTask(ctx context.Context, input api.TaskInput) (*api.Task, error) {
	vars := map[string]any{"taskInput": input}
	var data struct {
		CreateTask *api.Task `json:"createTask"`
	}
	if err := c.Mutate(ctx, api.OpCreateTask, createTaskDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.CreateTask, nil
}

// UpdateTask applies a partial update to a task
func (c *Client) UpdateTask(ctx context.Context, taskID int, input api.TaskInput) (*api.Task, error) {
	vars := map[string]any{"taskId": taskID, "taskInput": input}
	var data struct {
		UpdateTask *api.Task `json:"updateTask"`
	}
	if err := c.Mutate(ctx, api.OpUpdateTask, updateTaskDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.UpdateTask, nil
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, taskID int) error {
	vars := map[string]any{"taskId": taskID}
	return c.Mutate(ctx, api.OpDeleteTask, deleteTaskDocument, vars, nil)
}

// AssignTask assigns a user to a task
func (c *Client) AssignTask(ctx context.Context, taskID, userID int) error {
	vars := map[string]any{"taskId": taskID, "userId": userID}
	return c.Mutate(ctx, api.OpAssignTask, assignTaskDocument, vars, nil)
}

// DashboardStats returns project and task totals
func (c *Client) DashboardStats(ctx context.Context) (*api.DashboardStats, error) {
	var data struct {
		DashboardStats *api.DashboardStats `json:"dashboardStats"`
	}
	if err := c.Query(ctx, api.OpGetDashboardStats, getDashboardStatsDocument, nil, &data); err != nil {
		return nil, err
	}
	return data.DashboardStats, nil
}

// RecentActivities returns the newest activity log entries
func (c *Client) RecentActivities(ctx context.Context, limit int) ([]api.Activity, error) {
	vars := map[string]any{"limit": limit}
	var data struct {
		RecentActivities []api.Activity `json:"recentActivities"`
	}
	if err := c.Query(ctx, api.OpGetRecentActivities, getRecentActivitiesDocument, vars, &data); err != nil {
		return nil, err
	}
	return data.RecentActivities, nil
}
