package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/todone/todone/internal/drag"
	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/validation"
)

// NewDoneCmd creates the completion toggle command.
func NewDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			t, err := eng.resolveTask(args[0])
			if err != nil {
				return err
			}
			toggled := eng.store.Toggle(t.ID)
			if toggled == nil {
				return fmt.Errorf("task disappeared during toggle")
			}
			printTask(*toggled)
			return nil
		},
	}
}

// NewRmCmd creates the delete command.
func NewRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			t, err := eng.resolveTask(args[0])
			if err != nil {
				return err
			}
			if !eng.store.Delete(t.ID) {
				return fmt.Errorf("task disappeared during delete")
			}
			fmt.Printf("Deleted %q\n", t.Text)
			return nil
		},
	}
}

// NewScheduleCmd creates the bucket assignment command.
func NewScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <bucket> <id...>",
		Short: "Move tasks into a bucket",
		Long:  "Move one or more tasks into the today or week bucket.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket := args[0]
			if err := validation.ValidateBucket(bucket); err != nil {
				return err
			}

			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			ids, err := eng.resolveTasks(args[1:])
			if err != nil {
				return err
			}

			if len(ids) == 1 {
				t := eng.store.Schedule(ids[0], models.Bucket(bucket))
				if t == nil {
					return fmt.Errorf("task disappeared during schedule")
				}
				printTask(*t)
				return nil
			}

			changed := eng.store.ScheduleMany(ids, models.Bucket(bucket))
			fmt.Printf("Scheduled %d tasks for %s\n", len(changed), bucket)
			for _, t := range changed {
				printTask(t)
			}
			return nil
		},
	}
}

// NewDeferCmd creates the push-to-week command.
func NewDeferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defer <id>",
		Short: "Push a task from today to this week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			t, err := eng.resolveTask(args[0])
			if err != nil {
				return err
			}
			deferred := eng.store.Defer(t.ID)
			if deferred == nil {
				return fmt.Errorf("task disappeared during defer")
			}
			printTask(*deferred)
			return nil
		},
	}
}

// NewMoveCmd creates the keyboard reorder command.
func NewMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> up|down",
		Short: "Move a task one step within the pending order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			t, err := eng.resolveTask(args[0])
			if err != nil {
				return err
			}

			ctrl := drag.NewController(eng.store)
			switch args[1] {
			case "up":
				ctrl.MoveUp(t.ID)
			case "down":
				ctrl.MoveDown(t.ID)
			default:
				return fmt.Errorf("direction must be 'up' or 'down', got %q", args[1])
			}

			moved, ok := eng.store.Task(t.ID)
			if !ok {
				return fmt.Errorf("task disappeared during move")
			}
			printTask(moved)
			return nil
		},
	}
}

// NewSubCmd creates the subtask command.
func NewSubCmd() *cobra.Command {
	var toggle int

	cmd := &cobra.Command{
		Use:   "sub <id> [text...]",
		Short: "Add a subtask, or toggle one with --toggle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			t, err := eng.resolveTask(args[0])
			if err != nil {
				return err
			}

			if toggle > 0 {
				if toggle > len(t.Subtasks) {
					return fmt.Errorf("task has %d subtasks", len(t.Subtasks))
				}
				subs := make([]models.Subtask, len(t.Subtasks))
				copy(subs, t.Subtasks)
				subs[toggle-1].Done = !subs[toggle-1].Done
				updated := eng.store.UpdateSubtasks(t.ID, subs)
				if updated == nil {
					return fmt.Errorf("task disappeared during update")
				}
				printTask(*updated)
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("subtask text required")
			}
			updated := eng.store.AddSubtask(t.ID, strings.Join(args[1:], " "))
			if updated == nil {
				return fmt.Errorf("subtask text cannot be empty")
			}
			printTask(*updated)
			return nil
		},
	}

	cmd.Flags().IntVar(&toggle, "toggle", 0, "Toggle the Nth subtask instead of adding")

	return cmd
}

// NewDropCmd creates the drag-and-drop reorder command.
func NewDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <id> <target-id>",
		Short: "Reorder a task to a target task's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			dragged, err := eng.resolveTask(args[0])
			if err != nil {
				return err
			}
			target, err := eng.resolveTask(args[1])
			if err != nil {
				return err
			}

			ctrl := drag.NewController(eng.store)
			if !ctrl.Start(dragged.ID) {
				return fmt.Errorf("completed tasks cannot be reordered")
			}
			ctrl.Over(target.ID)
			ctrl.Drop(target.ID)

			fmt.Printf("Moved %q to %q's position\n", dragged.Text, target.Text)
			return nil
		},
	}
}
