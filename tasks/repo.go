package tasks

import "context"

// Repo is the task API as seen by the views. The remote implementation is
// apiclient.Client; repofake holds an in-memory one.
type Repo interface {
	List(ctx context.Context, filter Filter) ([]*Task, error)
	Create(ctx context.Context, req CreateRequest) (*Task, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Task, error)
	Delete(ctx context.Context, id int64) error
}
