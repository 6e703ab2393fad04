package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

func ids(tasks []api.Task) []int {
	out := make([]int, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestGroup_FixedColumnOrder(t *testing.T) {
	tasks := []api.Task{
		{ID: 1, Status: api.TaskDone},
		{ID: 2, Status: api.TaskTodo},
		{ID: 3, Status: api.TaskDone},
	}

	columns := Group(tasks, DefaultBuckets)

	require.Len(t, columns, 5)
	assert.Equal(t, api.TaskTodo, columns[0].Status)
	assert.Equal(t, []int{2}, ids(columns[0].Tasks))
	assert.Empty(t, columns[1].Tasks)
	assert.Empty(t, columns[2].Tasks)
	assert.Equal(t, []int{1, 3}, ids(columns[3].Tasks))
	assert.Empty(t, columns[4].Tasks)
}

func TestGroup_EmptyInputKeepsAllColumns(t *testing.T) {
	columns := Group(nil, DefaultBuckets)

	require.Len(t, columns, len(DefaultBuckets))
	for i, col := range columns {
		assert.Equal(t, DefaultBuckets[i], col.Status)
		assert.NotNil(t, col.Tasks)
		assert.Empty(t, col.Tasks)
	}
	assert.Equal(t, "To Do", columns[0].Title)
	assert.Equal(t, "Blocked", columns[4].Title)
}

func TestGroup_UnknownStatusIsLeftOut(t *testing.T) {
	tasks := []api.Task{
		{ID: 1, Status: "archived"},
		{ID: 2, Status: api.TaskBlocked},
	}

	columns := Group(tasks, DefaultBuckets)

	total := 0
	for _, col := range columns {
		total += len(col.Tasks)
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, []int{2}, ids(columns[4].Tasks))
}

// Every task lands in exactly one column and relative order is kept
func TestGroup_Completeness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		tasks := make([]api.Task, n)
		for i := range tasks {
			tasks[i] = api.Task{ID: i + 1, Status: DefaultBuckets[rng.Intn(len(DefaultBuckets))]}
		}

		columns := Group(tasks, DefaultBuckets)
		require.Len(t, columns, 5)

		seen := make(map[int]int)
		for ci, col := range columns {
			assert.Equal(t, DefaultBuckets[ci], col.Status)
			prev := 0
			for _, task := range col.Tasks {
				assert.Equal(t, col.Status, task.Status)
				assert.Greater(t, task.ID, prev, "input order must be preserved")
				prev = task.ID
				seen[task.ID]++
			}
		}

		assert.Len(t, seen, n)
		for id, count := range seen {
			assert.Equal(t, 1, count, "task %d placed %d times", id, count)
		}
	}
}

func TestGroup_DoesNotMutateInput(t *testing.T) {
	tasks := []api.Task{{ID: 1, Status: api.TaskDone}, {ID: 2, Status: api.TaskTodo}}
	before := append([]api.Task(nil), tasks...)

	Group(tasks, DefaultBuckets)

	assert.Equal(t, before, tasks)
}

func TestCounts(t *testing.T) {
	tasks := []api.Task{
		{ID: 1, Status: api.TaskDone},
		{ID: 2, Status: api.TaskTodo},
		{ID: 3, Status: api.TaskDone},
	}

	counts := Counts(Group(tasks, DefaultBuckets))

	assert.Equal(t, []api.TaskStatusCount{
		{Status: api.TaskTodo, Count: 1},
		{Status: api.TaskInProgress, Count: 0},
		{Status: api.TaskInReview, Count: 0},
		{Status: api.TaskDone, Count: 2},
		{Status: api.TaskBlocked, Count: 0},
	}, counts)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "In Review", Title(api.TaskInReview))
	assert.Equal(t, "archived", Title("archived"))
}
