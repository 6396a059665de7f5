package devserver

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var (
	errNotFound  = errors.New("not found")
	errConflict  = errors.New("already exists")
	errBadMember = errors.New("unknown member")
)

type account struct {
	user         task.User
	passwordHash []byte // nil for contacts, which cannot sign in
}

// memStore is the server's data. Tasks keep member ids only and are
// expanded on every read, so contact edits show up in tasks.
type memStore struct {
	mu sync.RWMutex

	accounts []account
	members  []task.Member
	tasks    []task.Task

	nextUser    int
	nextMember  int
	nextTask    int
	nextSubtask int
}

func newMemStore() *memStore {
	// Distinct ranges make member/user id mix-ups visible.
	return &memStore{nextUser: 100, nextMember: 1, nextTask: 1, nextSubtask: 1}
}

func (m *memStore) createAccount(u task.User, hash []byte, phone, color string) (task.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Email, u.Email) || strings.EqualFold(a.user.Username, u.Username) {
			return task.Member{}, errConflict
		}
	}

	u.ID = m.nextUser
	m.nextUser++
	m.accounts = append(m.accounts, account{user: u, passwordHash: hash})

	member := task.Member{ID: m.nextMember, User: u, PhoneNumber: phone, Color: color}
	m.nextMember++
	m.members = append(m.members, member)
	return member, nil
}

func (m *memStore) accountByEmail(email string) (account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return a, true
		}
	}
	return account{}, false
}

func (m *memStore) userByID(id int) (task.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return task.User{}, false
}

func (m *memStore) listMembers() []task.Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.members)
}

func (m *memStore) listTasks() []task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]task.Task, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = m.expand(t)
	}
	return out
}

func (m *memStore) getTask(id int) (task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := task.IndexByID(m.tasks, id)
	if i < 0 {
		return task.Task{}, errNotFound
	}
	return m.expand(m.tasks[i]), nil
}

// createTask stores t, assigning ids to the task and its subtasks.
func (m *memStore) createTask(t task.Task, now time.Time) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkMembers(t.Members); err != nil {
		return task.Task{}, err
	}
	t.ID = m.nextTask
	m.nextTask++
	if t.CreatedAt == nil {
		ts := now.UTC()
		t.CreatedAt = &ts
	}
	m.assignSubtaskIDs(&t, nil)
	t.Normalize()
	m.tasks = append(m.tasks, t)
	return m.expand(t), nil
}

// updateTask applies fn to a copy of the stored task and saves the result.
func (m *memStore) updateTask(id int, fn func(*task.Task) error) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := task.IndexByID(m.tasks, id)
	if i < 0 {
		return task.Task{}, errNotFound
	}
	prev := m.tasks[i]
	t := prev.Clone()
	if err := fn(&t); err != nil {
		return task.Task{}, err
	}
	if err := m.checkMembers(t.Members); err != nil {
		return task.Task{}, err
	}
	t.ID = id
	m.assignSubtaskIDs(&t, prev.Subtasks)
	t.Normalize()
	m.tasks[i] = t
	return m.expand(t), nil
}

func (m *memStore) deleteTask(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := task.IndexByID(m.tasks, id)
	if i < 0 {
		return errNotFound
	}
	m.tasks = slices.Delete(m.tasks, i, i+1)
	return nil
}

func (m *memStore) setSubtaskStatus(id int, done bool) (task.Subtask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		j := m.tasks[i].SubtaskIndex(id)
		if j < 0 {
			continue
		}
		t := m.tasks[i].Clone()
		t.Subtasks[j].Status = done
		t.Normalize()
		m.tasks[i] = t
		return t.Subtasks[j], nil
	}
	return task.Subtask{}, errNotFound
}

// assignSubtaskIDs keeps ids that belong to the task already and numbers
// the rest.
func (m *memStore) assignSubtaskIDs(t *task.Task, existing []task.Subtask) {
	for i := range t.Subtasks {
		id := t.Subtasks[i].ID
		if id != 0 && slices.ContainsFunc(existing, func(s task.Subtask) bool { return s.ID == id }) {
			continue
		}
		t.Subtasks[i].ID = m.nextSubtask
		m.nextSubtask++
	}
}

func (m *memStore) checkMembers(members []task.Member) error {
	for _, ref := range members {
		if !slices.ContainsFunc(m.members, func(x task.Member) bool { return x.ID == ref.ID }) {
			return errBadMember
		}
	}
	return nil
}

// expand replaces member references with the current member records.
// Callers hold m.mu.
func (m *memStore) expand(t task.Task) task.Task {
	t = t.Clone()
	for i, ref := range t.Members {
		if j := slices.IndexFunc(m.members, func(x task.Member) bool { return x.ID == ref.ID }); j >= 0 {
			t.Members[i] = m.members[j]
		}
	}
	t.Normalize()
	return t
}
