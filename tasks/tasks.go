package tasks

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// ParseStatus accepts the API spelling in any case. An empty string is
// returned as the zero Status, meaning "any status" in filters.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusCompleted:
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Toggle flips a task between in progress and completed.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusInProgress
	}
	return StatusCompleted
}

func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return "All"
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Task struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Deadline       Date      `json:"deadline"`
	Status         Status    `json:"status"`
	CompletionDate *Date     `json:"completion_date,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Filter narrows a task listing. The zero value lists everything.
type Filter struct {
	Status Status
}

// Matches reports whether task passes the filter.
func (f Filter) Matches(task *Task) bool {
	return f.Status == "" || task.Status == f.Status
}

// CreateRequest is the body sent to POST /tasks/.
type CreateRequest struct {
	Title    string `json:"title"`
	Deadline Date   `json:"deadline"`
}

// UpdateRequest is the body sent to PUT /tasks/{id}. Nil fields are left
// unchanged by the API.
type UpdateRequest struct {
	Title    *string `json:"title,omitempty"`
	Deadline *Date   `json:"deadline,omitempty"`
	Status   *Status `json:"status,omitempty"`
}

// SortByCreated orders tasks oldest first, the order the list is shown in.
func SortByCreated(list []*Task) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
