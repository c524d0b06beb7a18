package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-todo-client/apiclient"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/internal/utils"
	"github.com/jrsteele09/go-todo-client/tasks"
	"github.com/jrsteele09/go-todo-client/users"
	"github.com/spf13/cobra"
)

var (
	listStatus   string
	taskDeadline string
	editTitle    string
	deleteYes    bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage your tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := tasks.ParseStatus(listStatus)
		if err != nil {
			return err
		}
		if _, err := todo.requireSession(cmd.Context()); err != nil {
			return err
		}

		list, err := todo.client.List(cmd.Context(), tasks.Filter{Status: status})
		if err != nil {
			return taskError(err, "Could not load tasks.")
		}
		printTasks(cmd.OutOrStdout(), list)
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form := users.TaskForm{Title: strings.Join(args, " "), Deadline: taskDeadline}
		if err := users.Validate(form); err != nil {
			return err
		}
		req, err := form.CreateRequest()
		if err != nil {
			return err
		}
		if _, err := todo.requireSession(cmd.Context()); err != nil {
			return err
		}

		task, err := todo.client.Create(cmd.Context(), req)
		if err != nil {
			return taskError(err, "Could not add the task.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task %d\n", task.ID)
		return nil
	},
}

var tasksEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the title or deadline of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		var req tasks.UpdateRequest
		if editTitle != "" {
			req.Title = utils.Ptr(strings.TrimSpace(editTitle))
		}
		if taskDeadline != "" {
			deadline, err := tasks.ParseDate(taskDeadline)
			if err != nil {
				return err
			}
			req.Deadline = utils.Ptr(deadline)
		}
		if req.Title == nil && req.Deadline == nil {
			return errors.New("nothing to change, pass --title or --deadline")
		}
		if _, err := todo.requireSession(cmd.Context()); err != nil {
			return err
		}

		if _, err := todo.client.Update(cmd.Context(), id, req); err != nil {
			return taskError(err, "Could not update the task.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
		return nil
	},
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd.Context(), cmd.OutOrStdout(), args[0], tasks.StatusCompleted)
	},
}

var tasksUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Mark a task as in progress again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd.Context(), cmd.OutOrStdout(), args[0], tasks.StatusInProgress)
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		if !deleteYes {
			ok, err := newPrompter(cmd).confirm("Are you sure you want to delete this task?")
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		if _, err := todo.requireSession(cmd.Context()); err != nil {
			return err
		}

		if err := todo.client.Delete(cmd.Context(), id); err != nil {
			return taskError(err, "Could not delete the task.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&listStatus, "status", "", "Only show IN_PROGRESS or COMPLETED tasks")
	tasksAddCmd.Flags().StringVar(&taskDeadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	tasksEditCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	tasksEditCmd.Flags().StringVar(&taskDeadline, "deadline", "", "New deadline (YYYY-MM-DD)")
	tasksDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
	_ = tasksAddCmd.MarkFlagRequired("deadline")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksEditCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksUndoCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)
}

func setStatus(ctx context.Context, out io.Writer, arg string, status tasks.Status) error {
	id, err := parseTaskID(arg)
	if err != nil {
		return err
	}
	if _, err := todo.requireSession(ctx); err != nil {
		return err
	}
	task, err := todo.client.Update(ctx, id, tasks.UpdateRequest{Status: &status})
	if err != nil {
		return taskError(err, "Could not update the task.")
	}
	fmt.Fprintf(out, "Task %d is %s\n", task.ID, strings.ToLower(task.Status.Label()))
	return nil
}

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// taskError maps a failed task call to what the user should see. A
// rejected or missing token ends the stored session.
func taskError(err error, msg string) error {
	if apiclient.SessionRejected(err) {
		todo.manager.Logout(nil)
		return errors.New("Your session has expired. Please log in again.")
	}
	if todoerrors.Is(err, todoerrors.ErrNotFound) {
		return errors.New("Task not found.")
	}
	return fmt.Errorf("%s %w", msg, err)
}

func printTasks(out io.Writer, list []*tasks.Task) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDEADLINE\tCOMPLETED\tTITLE")
	for _, t := range list {
		completed := "-"
		if t.CompletionDate != nil {
			completed = t.CompletionDate.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Status.Label(), t.Deadline.String(), completed, t.Title)
	}
	_ = w.Flush()
}
