package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowboard/internal/board"
	"flowboard/internal/i18n"
	"flowboard/internal/storage"
	"flowboard/internal/tui"
)

var (
	addStatus   string
	addPriority string
	addDue      string
	addDesc     string
	addLabels   []string
	listRender  bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the board directly, without the assistant",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks column by column",
	Args:  cobra.NoArgs,
	RunE: withBoard(func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error {
		tasks, err := svc.List(ctx)
		if err != nil {
			return err
		}
		if listRender {
			fmt.Fprintln(out, tui.RenderMarkdown(listMarkdown(tasks), 80))
			return nil
		}
		for _, col := range board.Columns {
			fmt.Fprintf(out, "%s %s\n", col.Icon, i18n.T("column."+string(col.ID)))
			for _, t := range tasks {
				if t.Status == col.ID {
					fmt.Fprintf(out, "  %s  %s\n", shortID(t.ID), t)
				}
			}
		}
		return nil
	}),
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: withBoard(func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error {
		in := board.NewTask{
			Title:       strings.Join(args, " "),
			Description: addDesc,
			Status:      board.Status(addStatus),
			Priority:    board.Priority(addPriority),
			Labels:      addLabels,
		}
		if addDue != "" {
			in.DueDate = &addDue
		}
		task, err := svc.Create(ctx, in)
		if err != nil {
			return err
		}
		logger.Info("task created", zap.String("id", task.ID))
		fmt.Fprintf(out, "%s: %s\n", i18n.T("task.created"), task)
		return nil
	}),
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move <title-or-id> <status>",
	Short: "Move a task to todo, in_progress or done",
	Args:  cobra.ExactArgs(2),
	RunE: withBoard(func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error {
		status, err := board.ParseStatus(args[1])
		if err != nil {
			return err
		}
		task, err := resolveTask(ctx, svc, args[0])
		if err != nil {
			return err
		}
		task, err = svc.Move(ctx, task.ID, status)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", i18n.T("task.moved", status), task)
		return nil
	}),
}

var tasksRmCmd = &cobra.Command{
	Use:     "rm <title-or-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: withBoard(func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error {
		task, err := resolveTask(ctx, svc, args[0])
		if err != nil {
			return err
		}
		if err := svc.Delete(ctx, task.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", i18n.T("task.deleted"), task.Title)
		return nil
	}),
}

var tasksStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion and priority breakdown",
	Args:  cobra.NoArgs,
	RunE: withBoard(func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tui.StatsMarkdown(stats, i18n.Global()))
		return nil
	}),
}

var tasksImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Seed the board from a JSON array of tasks; existing titles are skipped",
	Args:  cobra.ExactArgs(1),
	RunE: withBoard(func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error {
		report, err := storage.ImportJSON(ctx, args[0], svc)
		if err != nil {
			return err
		}
		for _, skip := range report.Skipped {
			fmt.Fprintln(out, i18n.T("task.import_skipped", skip.Index, skip.Title, skip.Reason))
		}
		if report.Duplicates > 0 {
			fmt.Fprintln(out, i18n.T("task.import_duplicates", report.Duplicates))
		}
		fmt.Fprintln(out, i18n.T("task.import", report.Imported))
		return nil
	}),
}

func init() {
	tasksAddCmd.Flags().StringVar(&addStatus, "status", "", "todo, in_progress or done (default todo)")
	tasksAddCmd.Flags().StringVar(&addPriority, "priority", "", "low, medium, high or urgent (default medium)")
	tasksAddCmd.Flags().StringVar(&addDue, "due", "", "Due date YYYY-MM-DD")
	tasksAddCmd.Flags().StringVarP(&addDesc, "description", "d", "", "Task description")
	tasksAddCmd.Flags().StringSliceVarP(&addLabels, "label", "l", nil, "Label, repeatable (e.g. Bug, Feature)")
	tasksListCmd.Flags().BoolVar(&listRender, "render", false, "Render as styled markdown")

	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksMoveCmd, tasksRmCmd, tasksStatsCmd, tasksImportCmd)
}

type boardFunc func(ctx context.Context, svc *board.Service, out io.Writer, args []string) error

// withBoard opens the local store for the duration of one command.
func withBoard(fn boardFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()
		return fn(cmd.Context(), board.NewService(store), cmd.OutOrStdout(), args)
	}
}

// resolveTask accepts an id or a title, ids win.
func resolveTask(ctx context.Context, svc *board.Service, ref string) (board.Task, error) {
	if task, err := svc.Get(ctx, ref); err == nil {
		return task, nil
	} else if !errors.Is(err, board.ErrNotFound) {
		return board.Task{}, err
	}
	task, err := svc.FindByTitle(ctx, ref)
	if errors.Is(err, board.ErrNotFound) {
		return board.Task{}, fmt.Errorf("task %q not found", ref)
	}
	return task, err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func listMarkdown(tasks []board.Task) string {
	var b strings.Builder
	for _, col := range board.Columns {
		fmt.Fprintf(&b, "## %s %s\n\n", col.Icon, i18n.T("column."+string(col.ID)))
		for _, t := range tasks {
			if t.Status == col.ID {
				fmt.Fprintf(&b, "- **%s** · %s\n", t.Title, t.Priority)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
