package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/todone/todone/internal/infer"
	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/validation"
)

// NewAddCmd creates the single task capture command.
func NewAddCmd() *cobra.Command {
	var priority, bucket string
	var minutes int
	var useAI bool

	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task",
		Long:  "Add a task. Keywords in the text set priority, bucket and duration unless overridden by flags.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := validation.SanitizeText(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("task text cannot be empty")
			}

			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			est := infer.Infer(text)
			if useAI {
				// The remote estimate replaces the local one wholesale
				// when it carries anything; failures keep the local guess.
				api, err := newAPIClient(eng.cfg)
				if err != nil {
					return err
				}
				if remote, err := api.Estimate(ctx, text); err != nil {
					fmt.Printf("Remote estimate unavailable: %v\n", err)
				} else if remote != nil {
					remote.CleanText = est.CleanText
					remote.AI = true
					est = remote
				}
			}

			if priority != "" {
				if err := validation.ValidatePriority(priority); err != nil {
					return err
				}
				est.Priority = models.Priority(priority)
			}
			if bucket != "" {
				if err := validation.ValidateBucket(bucket); err != nil {
					return err
				}
				est.ScheduledFor = models.Bucket(bucket)
			}
			if minutes > 0 {
				est.Minutes = minutes
			}

			t := eng.store.Add(est.CleanText, est.Priority, est.Minutes, est.ScheduledFor, nil)
			if t == nil {
				return fmt.Errorf("task text cannot be empty")
			}

			printTask(*t)
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Priority: high, medium or low")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket: today or week")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Estimated minutes")
	cmd.Flags().BoolVar(&useAI, "ai", false, "Ask the server for a remote estimate")

	return cmd
}

// NewQuickCmd creates the multiline quick-capture command.
func NewQuickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quick <line...>",
		Short: "Add several tasks at once",
		Long:  "Add one task per argument, running keyword inference on each line. Empty lines are skipped.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			added := eng.store.AddBatch(args)
			if len(added) == 0 {
				return fmt.Errorf("nothing to add")
			}

			fmt.Printf("Added %d tasks:\n", len(added))
			for _, t := range added {
				printTask(t)
			}
			return nil
		},
	}
}
