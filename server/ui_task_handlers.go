package server

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-todo-client/apiclient"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/tasks"
	"github.com/jrsteele09/go-todo-client/users"
	"github.com/rs/zerolog/log"
)

const sessionExpiredMessage = "Your session has expired. Please log in again."

// TaskRow is one task as shown in the list.
type TaskRow struct {
	ID             int64
	Title          string
	Deadline       string
	Status         string
	StatusLabel    string
	CompletionDate string
	Completed      bool
}

type FilterOption struct {
	Value  string
	Label  string
	Active bool
}

// HomePageData is the template model for the task list. Editing is set
// when the form is populated from an existing task.
type HomePageData struct {
	pageData
	Greeting string
	Filter   string
	Filters  []FilterOption
	Tasks    []TaskRow
	Form     users.TaskForm
	Editing  *TaskRow
	Action   string
}

func newTaskRow(t *tasks.Task) TaskRow {
	row := TaskRow{
		ID:          t.ID,
		Title:       t.Title,
		Deadline:    t.Deadline.String(),
		Status:      string(t.Status),
		StatusLabel: t.Status.Label(),
		Completed:   t.Completed(),
	}
	if t.CompletionDate != nil {
		row.CompletionDate = t.CompletionDate.String()
	}
	return row
}

func filterOptions(active tasks.Status) []FilterOption {
	var options []FilterOption
	for _, status := range []tasks.Status{"", tasks.StatusInProgress, tasks.StatusCompleted} {
		options = append(options, FilterOption{
			Value:  string(status),
			Label:  status.Label(),
			Active: status == active,
		})
	}
	return options
}

// requestFilter reads the status filter from the query or a hidden form
// field. Unknown values show everything.
func requestFilter(r *http.Request) tasks.Status {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		raw = r.FormValue("filter")
	}
	status, err := tasks.ParseStatus(raw)
	if err != nil {
		return ""
	}
	return status
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// HomeHandler renders the task list (GET /)
func (s *Server) HomeHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderHome(w, r, tmpl, 0)
	}
}

// EditTaskHandler renders the task list with the form populated from one
// task (GET /tasks/{id}/edit)
func (s *Server) EditTaskHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.renderHome(w, r, tmpl, id)
	}
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, tmpl *template.Template, editID int64) {
	session, _ := SessionFromContext(r.Context())
	filter := requestFilter(r)
	flash := s.popFlash(r.Context())

	data := HomePageData{
		pageData: s.newPageData("To-Do List", flash),
		Greeting: users.GreetingName(session.DisplayName),
		Filter:   string(filter),
		Filters:  filterOptions(filter),
		Action:   RouteTasks,
	}

	list, err := s.tasks.List(r.Context(), tasks.Filter{Status: filter})
	if err != nil {
		if s.expireSession(w, r, err) {
			return
		}
		log.Err(err).Msg("Failed to load tasks")
		data.Error = "Could not load tasks."
	}
	for _, t := range list {
		row := newTaskRow(t)
		data.Tasks = append(data.Tasks, row)
		if t.ID == editID {
			editing := row
			data.Editing = &editing
			data.Form = users.TaskForm{Title: t.Title, Deadline: row.Deadline}
			data.Action = "/tasks/" + strconv.FormatInt(t.ID, 10)
		}
	}
	if editID != 0 && data.Editing == nil && data.Error == "" {
		data.Error = "Task not found."
	}

	renderPage(w, http.StatusOK, tmpl, data)
}

// CreateTaskHandler adds a task (POST /tasks)
func (s *Server) CreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := homeURL(string(requestFilter(r)))

		form := users.TaskForm{Title: r.FormValue("title"), Deadline: r.FormValue("deadline")}
		if err := users.Validate(form); err != nil {
			s.flashError(r.Context(), err.Error())
			redirectSuccess(w, r, back)
			return
		}
		req, err := form.CreateRequest()
		if err != nil {
			s.flashError(r.Context(), err.Error())
			redirectSuccess(w, r, back)
			return
		}

		if _, err := s.tasks.Create(r.Context(), req); err != nil {
			s.taskFailed(w, r, err, "Could not add the task.", back)
			return
		}
		redirectSuccess(w, r, back)
	}
}

// UpdateTaskHandler saves the title and deadline of a task (POST /tasks/{id})
func (s *Server) UpdateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := homeURL(string(requestFilter(r)))

		form := users.TaskForm{Title: r.FormValue("title"), Deadline: r.FormValue("deadline")}
		if err := users.Validate(form); err != nil {
			s.flashError(r.Context(), err.Error())
			redirectSuccess(w, r, "/tasks/"+strconv.FormatInt(id, 10)+"/edit")
			return
		}
		req, err := form.UpdateRequest()
		if err != nil {
			s.flashError(r.Context(), err.Error())
			redirectSuccess(w, r, back)
			return
		}

		if _, err := s.tasks.Update(r.Context(), id, req); err != nil {
			s.taskFailed(w, r, err, "Could not update the task.", back)
			return
		}
		redirectSuccess(w, r, back)
	}
}

// ToggleTaskStatusHandler flips a task between in progress and completed
// (POST /tasks/{id}/status). The form posts the status the task had when
// the page was rendered.
func (s *Server) ToggleTaskStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := homeURL(string(requestFilter(r)))

		current, err := tasks.ParseStatus(r.FormValue("status"))
		if err != nil || !current.Valid() {
			s.flashError(r.Context(), "Unknown task status.")
			redirectSuccess(w, r, back)
			return
		}
		next := current.Toggle()

		if _, err := s.tasks.Update(r.Context(), id, tasks.UpdateRequest{Status: &next}); err != nil {
			s.taskFailed(w, r, err, "Could not update the task.", back)
			return
		}
		redirectSuccess(w, r, back)
	}
}

// DeleteTaskHandler removes a task (POST /tasks/{id}/delete)
func (s *Server) DeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		back := homeURL(string(requestFilter(r)))

		if err := s.tasks.Delete(r.Context(), id); err != nil {
			s.taskFailed(w, r, err, "Could not delete the task.", back)
			return
		}
		redirectSuccess(w, r, back)
	}
}

// taskFailed logs a failed task call and reports it on the next page.
func (s *Server) taskFailed(w http.ResponseWriter, r *http.Request, err error, msg, back string) {
	if s.expireSession(w, r, err) {
		return
	}
	if todoerrors.Is(err, todoerrors.ErrNotFound) {
		msg = "Task not found."
	}
	log.Err(err).Str("path", r.URL.Path).Msg("Task request failed")
	s.flashError(r.Context(), msg)
	redirectSuccess(w, r, back)
}

// expireSession logs the user out when the stored token can no longer
// authorize requests. It reports whether a response was written.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apiclient.SessionRejected(err) {
		return false
	}
	log.Info().Err(err).Msg("stored token no longer usable, logging out")
	s.flashError(r.Context(), sessionExpiredMessage)
	s.auth.Logout(func(route string) {
		redirectReplace(w, r, route)
	})
	return true
}
