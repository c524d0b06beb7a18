package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-todo-client/tasks"
)

var _ tasks.Repo = (*Client)(nil)

func (c *Client) List(ctx context.Context, filter tasks.Filter) ([]*tasks.Task, error) {
	path := pathTasks
	if filter.Status != "" {
		path += "?" + url.Values{"status": {string(filter.Status)}}.Encode()
	}
	var list []*tasks.Task
	if err := c.do(ctx, c.authed, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	tasks.SortByCreated(list)
	return list, nil
}

func (c *Client) Create(ctx context.Context, req tasks.CreateRequest) (*tasks.Task, error) {
	var task tasks.Task
	if err := c.do(ctx, c.authed, http.MethodPost, pathTasks, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Update(ctx context.Context, id int64, req tasks.UpdateRequest) (*tasks.Task, error) {
	var task tasks.Task
	if err := c.do(ctx, c.authed, http.MethodPut, fmt.Sprintf(pathTask, id), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, c.authed, http.MethodDelete, fmt.Sprintf(pathTask, id), nil, nil)
}
