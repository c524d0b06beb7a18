package faketaskrepo

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/tasks"
)

var _ tasks.Repo = (*FakeTaskRepo)(nil)

// FakeTaskRepo mirrors the API's task semantics in memory, including the
// completion date bookkeeping on status changes.
type FakeTaskRepo struct {
	tasks  map[int64]*tasks.Task
	nextID int64
	clock  clockwork.Clock
	err    error
	lock   sync.RWMutex
}

func NewFakeTaskRepo(clock clockwork.Clock) *FakeTaskRepo {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FakeTaskRepo{
		tasks:  make(map[int64]*tasks.Task),
		nextID: 1,
		clock:  clock,
	}
}

// FailWith makes every call return err until reset with nil.
func (r *FakeTaskRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

func (r *FakeTaskRepo) List(_ context.Context, filter tasks.Filter) ([]*tasks.Task, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.err != nil {
		return nil, r.err
	}

	list := make([]*tasks.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.Matches(t) {
			cp := *t
			list = append(list, &cp)
		}
	}
	tasks.SortByCreated(list)
	return list, nil
}

func (r *FakeTaskRepo) Create(_ context.Context, req tasks.CreateRequest) (*tasks.Task, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	now := r.clock.Now()
	t := &tasks.Task{
		ID:        r.nextID,
		Title:     req.Title,
		Deadline:  req.Deadline,
		Status:    tasks.StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.nextID++
	r.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (r *FakeTaskRepo) Update(_ context.Context, id int64, req tasks.UpdateRequest) (*tasks.Task, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	t, ok := r.tasks[id]
	if !ok {
		return nil, todoerrors.ErrNotFound
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Deadline != nil {
		t.Deadline = *req.Deadline
	}
	if req.Status != nil {
		t.Status = *req.Status
		switch t.Status {
		case tasks.StatusCompleted:
			today, _ := tasks.ParseDate(r.clock.Now().Format("2006-01-02"))
			t.CompletionDate = &today
		case tasks.StatusInProgress:
			t.CompletionDate = nil
		}
	}
	t.UpdatedAt = r.clock.Now()
	cp := *t
	return &cp, nil
}

func (r *FakeTaskRepo) Delete(_ context.Context, id int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return r.err
	}

	if _, ok := r.tasks[id]; !ok {
		return todoerrors.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}
