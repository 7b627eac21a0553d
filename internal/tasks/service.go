package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"tasktree/internal/models"
)

// Store is the persistence port the service depends on. The sqlite adapter
// implements it; multi-row status updates must be atomic.
type Store interface {
	CreateTask(ctx context.Context, description string, parentID *int64, startTimestamp string) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	ListTasks(ctx context.Context, filter models.ListFilter) ([]models.Task, error)
	CountActiveChildren(ctx context.Context, id int64) (int64, error)
	ListChildIDs(ctx context.Context, parentID int64) ([]int64, error)
	UpdateStatusAll(ctx context.Context, ids []int64, status models.Status, finishTimestamp *string) error
	Schema(ctx context.Context) (models.TableSchema, error)
}

// Service orchestrates task creation, status transitions and tree listings.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New constructs the task service.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) timestamp() string {
	return s.now().Format(models.TimestampLayout)
}

// Create validates the description and the parent precondition, then inserts
// a new ACTIVE task. Subtasks may only be added under an ACTIVE parent.
// The description is stored verbatim; only the emptiness check looks at the
// trimmed form, and the length cap counts characters, not bytes.
func (s *Service) Create(ctx context.Context, description string, parentID *int64) (models.Task, error) {
	if strings.TrimSpace(description) == "" {
		return models.Task{}, ErrEmptyDescription
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLen {
		return models.Task{}, ErrDescriptionTooLong
	}

	if parentID != nil {
		parent, err := s.store.GetTask(ctx, *parentID)
		if err != nil {
			return models.Task{}, storeErr(err)
		}
		if parent.Status != models.StatusActive {
			return models.Task{}, &ConflictError{
				Reason:  "cannot create a subtask",
				Message: fmt.Sprintf("parent task (ID %d) is not ACTIVE, current status: %s", parent.ID, parent.Status),
			}
		}
	}

	task, err := s.store.CreateTask(ctx, description, parentID, s.timestamp())
	if err != nil {
		return models.Task{}, storeErr(err)
	}

	s.logger.Info("task created", slog.Int64("id", task.ID))
	return task, nil
}

// ListAll returns every task, including cleared ones, as a nested tree.
func (s *Service) ListAll(ctx context.Context) ([]*models.TaskNode, error) {
	return s.list(ctx, models.FilterAll)
}

// ListNonCleared returns the tree of tasks whose status is not CLEAR.
func (s *Service) ListNonCleared(ctx context.Context) ([]*models.TaskNode, error) {
	return s.list(ctx, models.FilterNonClear)
}

// ListActiveOnly returns the tree of ACTIVE tasks.
func (s *Service) ListActiveOnly(ctx context.Context) ([]*models.TaskNode, error) {
	return s.list(ctx, models.FilterActiveOnly)
}

func (s *Service) list(ctx context.Context, filter models.ListFilter) ([]*models.TaskNode, error) {
	flat, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	return BuildTree(flat), nil
}

// Schema exposes the tasks table definition for introspection.
func (s *Service) Schema(ctx context.Context) (models.TableSchema, error) {
	schema, err := s.store.Schema(ctx)
	if err != nil {
		return models.TableSchema{}, storeErr(err)
	}
	return schema, nil
}
