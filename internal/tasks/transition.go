package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"tasktree/internal/models"
)

// TransitionResult reports which rows a transition touched and the status
// they ended up in.
type TransitionResult struct {
	UpdatedIDs []int64
	Status     models.Status
}

// Transition validates and applies a requested status change.
//
// COMPLETED requires zero ACTIVE direct children. ABANDONED and CLEAR sweep
// the whole descendant closure in one atomic write, with no child-activity
// check: a terminal sweep is always permitted. ACTIVE reopens the single
// target task and clears its finish timestamp.
func (s *Service) Transition(ctx context.Context, id int64, rawStatus string) (TransitionResult, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	if _, err := s.store.GetTask(ctx, id); err != nil {
		return TransitionResult{}, storeErr(err)
	}

	switch status {
	case models.StatusCompleted:
		active, err := s.store.CountActiveChildren(ctx, id)
		if err != nil {
			return TransitionResult{}, storeErr(err)
		}
		if active > 0 {
			return TransitionResult{}, &ConflictError{
				Reason:  "cannot set task to COMPLETED",
				Message: fmt.Sprintf("this task has %d active direct child task(s)", active),
			}
		}
	case models.StatusAbandoned, models.StatusClear:
		ids, err := s.descendantClosure(ctx, id)
		if err != nil {
			return TransitionResult{}, err
		}
		return s.apply(ctx, ids, status)
	}

	return s.apply(ctx, []int64{id}, status)
}

func (s *Service) apply(ctx context.Context, ids []int64, status models.Status) (TransitionResult, error) {
	var finish *string
	if status.Terminal() {
		ts := s.timestamp()
		finish = &ts
	}

	if err := s.store.UpdateStatusAll(ctx, ids, status, finish); err != nil {
		return TransitionResult{}, storeErr(err)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.logger.Info("status updated",
		slog.String("status", string(status)),
		slog.Int("tasks", len(ids)))
	return TransitionResult{UpdatedIDs: ids, Status: status}, nil
}

// descendantClosure collects id and every task reachable through child links,
// breadth-first. The visited set guarantees termination even if the parent
// links were ever corrupted into a cycle.
func (s *Service) descendantClosure(ctx context.Context, id int64) ([]int64, error) {
	visited := map[int64]struct{}{id: {}}
	queue := []int64{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.store.ListChildIDs(ctx, current)
		if err != nil {
			return nil, storeErr(err)
		}
		for _, child := range children {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	ids := make([]int64, 0, len(visited))
	for v := range visited {
		ids = append(ids, v)
	}
	return ids, nil
}
