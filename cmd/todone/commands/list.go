package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/models"
)

// NewListCmd creates the bucket overview command.
func NewListCmd() *cobra.Command {
	var showDone bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show tasks by bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			s := eng.store.Summary()

			printBucket("Today", s.Today)
			fmt.Printf("  %s planned, %s done of %s\n",
				orDash(models.FormatMinutes(s.TodayPlannedMinutes)),
				orDash(models.FormatMinutes(s.TodayDoneMinutes)),
				orDash(models.FormatMinutes(s.WorkdayMinutes)),
			)
			if s.Overloaded {
				fmt.Println("  ! today is overloaded")
			}
			fmt.Println()

			printBucket("This week", s.Week)
			fmt.Println()
			printBucket("Unscheduled", s.Unscheduled)

			if showDone {
				fmt.Println()
				printBucket("Done", s.Done)
			}

			streak := buckets.Streak(eng.store.Tasks(), time.Now())
			fmt.Println()
			fmt.Printf("%d pending, %d completed in the last 24h", s.PendingCount, s.CompletedTodayCount)
			if streak > 0 {
				fmt.Printf(", %d day streak", streak)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDone, "done", false, "Include completed tasks")

	return cmd
}

func printBucket(title string, tasks []models.Task) {
	fmt.Printf("%s (%d)\n", title, len(tasks))
	for _, t := range tasks {
		printTask(t)
	}
}

func printTask(t models.Task) {
	mark := " "
	if t.Done {
		mark = "x"
	}
	line := fmt.Sprintf("  [%s] %s  %s", mark, t.ID.String()[:8], t.Text)
	if t.Priority != models.PriorityNone {
		line += fmt.Sprintf("  !%s", t.Priority)
	}
	if d := models.FormatMinutes(t.Minutes); d != "" {
		line += fmt.Sprintf("  (%s)", d)
	}
	fmt.Println(line)
	for _, sub := range t.Subtasks {
		subMark := " "
		if sub.Done {
			subMark = "x"
		}
		fmt.Printf("      [%s] %s\n", subMark, sub.Text)
	}
}

func orDash(s string) string {
	if s == "" {
		return "0 min"
	}
	return s
}
