package tasks_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-todo-client/internal/utils"
	"github.com/jrsteele09/go-todo-client/tasks"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := tasks.ParseStatus("completed")
	require.NoError(t, err)
	require.Equal(t, tasks.StatusCompleted, s)

	s, err = tasks.ParseStatus("")
	require.NoError(t, err)
	require.Equal(t, tasks.Status(""), s)

	_, err = tasks.ParseStatus("DONE")
	require.Error(t, err)
}

func TestStatus_Toggle(t *testing.T) {
	require.Equal(t, tasks.StatusCompleted, tasks.StatusInProgress.Toggle())
	require.Equal(t, tasks.StatusInProgress, tasks.StatusCompleted.Toggle())
	require.Equal(t, "In Progress", tasks.StatusInProgress.Label())
	require.Equal(t, "All", tasks.Status("").Label())
}

func TestTask_UnmarshalAPIRecord(t *testing.T) {
	body := `{
		"id": 3,
		"title": "Write report",
		"deadline": "2026-04-01",
		"status": "COMPLETED",
		"completion_date": "2026-03-30",
		"created_at": "2026-03-01T10:00:00.123456Z",
		"updated_at": "2026-03-30T08:00:00+00:00"
	}`

	var task tasks.Task
	require.NoError(t, json.Unmarshal([]byte(body), &task))
	require.Equal(t, int64(3), task.ID)
	require.Equal(t, "2026-04-01", task.Deadline.String())
	require.True(t, task.Completed())
	require.NotNil(t, task.CompletionDate)
	require.Equal(t, "2026-03-30", task.CompletionDate.String())
	require.Equal(t, 2026, task.CreatedAt.Year())
}

func TestTask_NullCompletionDate(t *testing.T) {
	var task tasks.Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"deadline":"2026-04-01","completion_date":null,"created_at":"2026-03-01T10:00:00Z"}`), &task))
	require.True(t, task.CompletionDate == nil || task.CompletionDate.IsZero())
}

func TestTask_MarshalKeepsTimestamps(t *testing.T) {
	deadline, err := tasks.ParseDate("2026-04-01")
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	b, err := json.Marshal(tasks.Task{ID: 1, Title: "x", Deadline: deadline, Status: tasks.StatusInProgress, CreatedAt: created})
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &fields))
	require.Contains(t, fields, "created_at")
	require.Contains(t, fields, "updated_at")
	require.NotContains(t, fields, "completion_date")
}

func TestUpdateRequest_OmitsUnsetFields(t *testing.T) {
	status := tasks.StatusCompleted
	b, err := json.Marshal(tasks.UpdateRequest{Status: &status})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"COMPLETED"}`, string(b))

	deadline, err := tasks.ParseDate("2026-05-05")
	require.NoError(t, err)
	b, err = json.Marshal(tasks.UpdateRequest{Title: utils.Ptr("New"), Deadline: &deadline})
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"New","deadline":"2026-05-05"}`, string(b))
}

func TestSortByCreated(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []*tasks.Task{
		{ID: 3, CreatedAt: base.Add(3 * time.Hour)},
		{ID: 1, CreatedAt: base.Add(1 * time.Hour)},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour)},
	}
	tasks.SortByCreated(list)
	require.Equal(t, []int64{1, 2, 3}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestParseDate(t *testing.T) {
	_, err := tasks.ParseDate("01/02/2026")
	require.Error(t, err)
}
