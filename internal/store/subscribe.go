package store

import (
	"slices"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

type subscription struct {
	id int
	fn func([]task.Task)
}

// Subscribe registers fn to receive the collection after every committed
// mutation, including rollbacks. Subscribers run in subscription order on
// the mutating goroutine and must not call back into a Store mutation.
// The returned function cancels the subscription.
func (s *Store) Subscribe(fn func([]task.Task)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	sub := &subscription{id: s.nextSub, fn: fn}
	s.subs = append(s.subs, sub)

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(x *subscription) bool { return x.id == sub.id })
	}
}

func (s *Store) notify(snapshot []task.Task) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}
