// Package store owns the in-memory task collection. Every mutation replaces
// the collection as a whole; optimistic mutations restore the previous
// collection when the backend rejects them.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// Gateway persists tasks. *api.Client satisfies it.
type Gateway interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	GetTask(ctx context.Context, id int) (task.Task, error)
	CreateTask(ctx context.Context, draft task.Task) (task.Task, error)
	UpdateTask(ctx context.Context, t task.Task) (task.Task, error)
	UpdateTaskStatus(ctx context.Context, id int, status task.Status) (task.Task, error)
	UpdateSubtaskStatus(ctx context.Context, subtaskID int, done bool) error
	DeleteTask(ctx context.Context, id int) error
}

// User-facing messages, one per failing operation.
const (
	msgLoad          = "Something went wrong fetching all tasks"
	msgFetch         = "Something went wrong fetching the task"
	msgAdd           = "Something went wrong storing the task"
	msgUpdate        = "Something went wrong updating the task"
	msgUpdateStatus  = "Something went wrong updating the task status"
	msgUpdateSubtask = "Something went wrong updating the subtask"
	msgRemove        = "Something went wrong deleting the task"
)

// Store is the canonical task collection. It is safe for concurrent use.
// Mutations on the same task id are serialized; mutations on different ids
// run concurrently.
type Store struct {
	gw       Gateway
	reporter Reporter
	logger   *slog.Logger

	mu    sync.RWMutex
	tasks []task.Task

	// notifyMu orders commits and their notifications so observers see
	// snapshots in commit order.
	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     []*subscription
	nextSub  int

	ids keyedMutex
}

// Option configures a Store.
type Option func(*Store)

// WithReporter sets the collaborator that shows failures to the user.
func WithReporter(r Reporter) Option {
	return func(s *Store) { s.reporter = r }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty Store backed by gw.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:    gw,
		tasks: []task.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.logger)
	}
	return s
}

// Snapshot returns the current collection. The returned tasks must be
// treated as read-only; use Task.Clone before modifying one.
func (s *Store) Snapshot() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id int) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := task.IndexByID(s.tasks, id)
	if i < 0 {
		return task.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// LoadAll replaces the collection with the backend's tasks. On failure the
// collection is left unchanged.
func (s *Store) LoadAll(ctx context.Context) error {
	tasks, err := s.gw.ListTasks(ctx)
	if err != nil {
		return s.fail(msgLoad, err, nil)
	}
	next := make([]task.Task, len(tasks))
	for i, t := range tasks {
		t = t.Clone()
		t.Normalize()
		next[i] = t
	}
	s.commit(func([]task.Task) []task.Task { return next })
	s.logger.Debug("tasks loaded", "count", len(next))
	return nil
}

// Fetch loads a single task and stores it in place, appending it when the
// collection does not hold it yet.
func (s *Store) Fetch(ctx context.Context, id int) (task.Task, error) {
	unlock := s.ids.Lock(id)
	defer unlock()

	t, err := s.gw.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, s.fail(msgFetch, err, nil)
	}
	t.Normalize()
	s.commit(func(cur []task.Task) []task.Task {
		return upsert(cur, t)
	})
	return t.Clone(), nil
}

// Add validates and persists a draft, then appends the stored task unless
// a task with the same id is already present. Invalid drafts never reach
// the gateway.
func (s *Store) Add(ctx context.Context, draft task.Task) (task.Task, error) {
	draft = draft.Clone()
	if draft.Color == "" {
		draft.Color = task.DefaultColor
	}
	draft.Normalize()
	if err := task.Validate(&draft); err != nil {
		return task.Task{}, s.fail(msgAdd, err, nil)
	}

	created, err := s.gw.CreateTask(ctx, draft)
	if err != nil {
		// Nothing was applied locally, so there is nothing to restore.
		return task.Task{}, s.fail(msgAdd, err, nil)
	}
	created.Normalize()

	s.commit(func(cur []task.Task) []task.Task {
		if task.IndexByID(cur, created.ID) >= 0 {
			s.logger.Debug("duplicate task ignored", "id", created.ID)
			return cur
		}
		next := make([]task.Task, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, created)
	})
	return created.Clone(), nil
}

// UpdateFull persists every writable field of t and then replaces the
// stored task by id. The change is not applied before the backend accepts
// it, so a failure leaves the collection untouched.
func (s *Store) UpdateFull(ctx context.Context, t task.Task) (task.Task, error) {
	if t.IsDraft() {
		return task.Task{}, s.fail(msgUpdate, clierr.New(clierr.InvalidTaskID, "task has no id"), nil)
	}
	t = t.Clone()
	t.Normalize()
	if err := task.Validate(&t); err != nil {
		return task.Task{}, s.fail(msgUpdate, err, nil)
	}

	unlock := s.ids.Lock(t.ID)
	defer unlock()

	updated, err := s.gw.UpdateTask(ctx, t)
	if err != nil {
		return task.Task{}, s.fail(msgUpdate, err, nil)
	}
	updated.Normalize()
	s.commit(func(cur []task.Task) []task.Task {
		return replace(cur, updated.ID, func(task.Task) task.Task { return updated })
	})
	return updated.Clone(), nil
}

// UpdateStatus moves a task to another column. The local collection changes
// immediately; the backend's returned status wins on success and the whole
// previous collection is restored on failure.
func (s *Store) UpdateStatus(ctx context.Context, id int, status task.Status) error {
	if err := task.ValidateStatus(status); err != nil {
		return s.fail(msgUpdateStatus, err, nil)
	}

	unlock := s.ids.Lock(id)
	defer unlock()

	prev, ok := s.optimistic(func(cur []task.Task) ([]task.Task, bool) {
		if task.IndexByID(cur, id) < 0 {
			return cur, false
		}
		return replace(cur, id, func(t task.Task) task.Task {
			t.Status = status
			return t
		}), true
	})
	if !ok {
		return s.fail(msgUpdateStatus, task.NotFound(id), nil)
	}

	returned, err := s.gw.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		return s.fail(msgUpdateStatus, err, prev)
	}

	// The backend's status is authoritative.
	if returned.Status != "" && returned.Status != status {
		s.logger.Debug("status reconciled", "id", id, "sent", status, "stored", returned.Status)
		s.commit(func(cur []task.Task) []task.Task {
			return replace(cur, id, func(t task.Task) task.Task {
				t.Status = returned.Status
				return t
			})
		})
	}
	return nil
}

// UpdateSubtaskStatus checks or unchecks a subtask. The local change is kept
// as final on success; the whole previous collection is restored on failure.
func (s *Store) UpdateSubtaskStatus(ctx context.Context, taskID, subtaskID int, done bool) error {
	unlock := s.ids.Lock(taskID)
	defer unlock()

	var lookupErr error
	prev, ok := s.optimistic(func(cur []task.Task) ([]task.Task, bool) {
		i := task.IndexByID(cur, taskID)
		if i < 0 {
			lookupErr = task.NotFound(taskID)
			return cur, false
		}
		if cur[i].SubtaskIndex(subtaskID) < 0 {
			lookupErr = task.SubtaskNotFound(taskID, subtaskID)
			return cur, false
		}
		return replace(cur, taskID, func(t task.Task) task.Task {
			t.Subtasks[t.SubtaskIndex(subtaskID)].Status = done
			return t
		}), true
	})
	if !ok {
		return s.fail(msgUpdateSubtask, lookupErr, nil)
	}

	if err := s.gw.UpdateSubtaskStatus(ctx, subtaskID, done); err != nil {
		return s.fail(msgUpdateSubtask, err, prev)
	}
	return nil
}

// Remove deletes a task. It disappears locally at once and the whole
// previous collection is restored if the backend refuses.
func (s *Store) Remove(ctx context.Context, id int) error {
	unlock := s.ids.Lock(id)
	defer unlock()

	prev, ok := s.optimistic(func(cur []task.Task) ([]task.Task, bool) {
		i := task.IndexByID(cur, id)
		if i < 0 {
			return cur, false
		}
		return slices.Delete(slices.Clone(cur), i, i+1), true
	})
	if !ok {
		return s.fail(msgRemove, task.NotFound(id), nil)
	}

	if err := s.gw.DeleteTask(ctx, id); err != nil {
		return s.fail(msgRemove, err, prev)
	}
	return nil
}

// optimistic applies fn and returns the collection it replaced. When fn
// reports false nothing is committed.
func (s *Store) optimistic(fn func([]task.Task) ([]task.Task, bool)) ([]task.Task, bool) {
	var prev []task.Task
	applied := false
	s.commit(func(cur []task.Task) []task.Task {
		next, ok := fn(cur)
		if !ok {
			return nil
		}
		prev, applied = cur, true
		return next
	})
	return prev, applied
}

// commit swaps in the collection fn derives from the current one and then
// notifies subscribers. A nil result means no change.
func (s *Store) commit(fn func([]task.Task) []task.Task) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := fn(s.tasks)
	if next == nil {
		s.mu.Unlock()
		return
	}
	s.tasks = next
	s.mu.Unlock()

	s.notify(slices.Clone(next))
}

// fail restores prev when it is non-nil, reports msg and returns err as a
// *clierr.Error.
func (s *Store) fail(msg string, err error, prev []task.Task) error {
	if prev != nil {
		s.commit(func([]task.Task) []task.Task { return prev })
		s.logger.Debug("collection restored", "reason", err)
	}
	s.reporter.ShowError(msg)

	var ce *clierr.Error
	if errors.As(err, &ce) {
		return ce
	}
	return clierr.Wrap(clierr.TransportFailure, msg, err)
}

// replace returns a copy of tasks in which the task with the given id is
// replaced by fn applied to a deep copy of it.
func replace(tasks []task.Task, id int, fn func(task.Task) task.Task) []task.Task {
	next := slices.Clone(tasks)
	for i := range next {
		if next[i].ID == id {
			t := fn(next[i].Clone())
			t.Normalize()
			next[i] = t
		}
	}
	return next
}

func upsert(tasks []task.Task, t task.Task) []task.Task {
	if task.IndexByID(tasks, t.ID) >= 0 {
		return replace(tasks, t.ID, func(task.Task) task.Task { return t })
	}
	next := make([]task.Task, 0, len(tasks)+1)
	next = append(next, tasks...)
	return append(next, t.Clone())
}
