package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktree/internal/models"
	"tasktree/internal/storage/sqlite"
	"tasktree/internal/tasks"
)

func newService(t *testing.T) *tasks.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return tasks.New(store, logger)
}

func mustCreate(t *testing.T, svc *tasks.Service, description string, parentID *int64) models.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), description, parentID)
	require.NoError(t, err)
	return task
}

func ptr(v int64) *int64 { return &v }

// requireFinishInvariant walks the full tree and checks that finish_timestamp
// is set exactly on terminal statuses.
func requireFinishInvariant(t *testing.T, svc *tasks.Service) {
	t.Helper()
	tree, err := svc.ListAll(context.Background())
	require.NoError(t, err)

	var walk func(nodes []*models.TaskNode)
	walk = func(nodes []*models.TaskNode) {
		for _, n := range nodes {
			if n.Status.Terminal() {
				require.NotNil(t, n.FinishTimestamp, "task %d: terminal status %s without finish timestamp", n.ID, n.Status)
			} else {
				require.Nil(t, n.FinishTimestamp, "task %d: status %s with finish timestamp", n.ID, n.Status)
			}
			walk(n.Children)
		}
	}
	walk(tree)
}

func TestCreateValidatesDescription(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "   ", nil)
	assert.ErrorIs(t, err, tasks.ErrEmptyDescription)

	_, err = svc.Create(ctx, strings.Repeat("x", models.MaxDescriptionLen+1), nil)
	assert.ErrorIs(t, err, tasks.ErrDescriptionTooLong)

	tree, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestCreateDescriptionLimitCountsCharacters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// 500 two-byte characters must pass the cap; it is a character limit,
	// not a byte limit.
	atLimit := strings.Repeat("é", models.MaxDescriptionLen)
	task, err := svc.Create(ctx, atLimit, nil)
	require.NoError(t, err)
	assert.Equal(t, atLimit, task.Description)

	_, err = svc.Create(ctx, strings.Repeat("é", models.MaxDescriptionLen+1), nil)
	assert.ErrorIs(t, err, tasks.ErrDescriptionTooLong)
}

func TestCreateStoresDescriptionVerbatim(t *testing.T) {
	svc := newService(t)

	task := mustCreate(t, svc, "  fix the  door  ", nil)
	assert.Equal(t, "  fix the  door  ", task.Description)
}

func TestCreateRootTask(t *testing.T) {
	svc := newService(t)

	task := mustCreate(t, svc, "write report", nil)
	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, models.StatusActive, task.Status)
	assert.NotEmpty(t, task.StartTimestamp)
	assert.Nil(t, task.FinishTimestamp)
	assert.Nil(t, task.ParentID)
}

func TestCreateUnderUnknownParent(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(context.Background(), "child", ptr(42))
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestCreateUnderNonActiveParent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, "root", nil)
	_, err := svc.Transition(ctx, root.ID, "COMPLETED")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "too late", &root.ID)
	var conflict *tasks.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "COMPLETED")

	// The conflict must not have created a row.
	tree, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Children)
}

func TestListFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, "root", nil)
	child := mustCreate(t, svc, "child", &root.ID)
	other := mustCreate(t, svc, "other", nil)

	_, err := svc.Transition(ctx, child.ID, "COMPLETED")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, other.ID, "CLEAR")
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nonCleared, err := svc.ListNonCleared(ctx)
	require.NoError(t, err)
	require.Len(t, nonCleared, 1)
	assert.Equal(t, root.ID, nonCleared[0].ID)
	assert.Len(t, nonCleared[0].Children, 1)

	activeOnly, err := svc.ListActiveOnly(ctx)
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	assert.Equal(t, root.ID, activeOnly[0].ID)
	assert.Empty(t, activeOnly[0].Children)

	requireFinishInvariant(t, svc)
}

func TestSchemaIntrospection(t *testing.T) {
	svc := newService(t)

	schema, err := svc.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tasks", schema.TableName)
	assert.Contains(t, schema.CreateStatement, "CREATE TABLE")

	names := make([]string, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"id", "description", "start_timestamp", "status", "finish_timestamp", "parent_id"}, names)
}
