package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/nudge"
	"github.com/todone/todone/internal/services/ai"
)

// NewNudgesCmd creates the nudge listing and action command.
func NewNudgesCmd() *cobra.Command {
	var useAI bool
	var apply int
	var dismiss string

	cmd := &cobra.Command{
		Use:   "nudges",
		Short: "Show suggestions for the current task list",
		Long:  "Show rule-based suggestions, or remote ones with --ai. Apply or dismiss a suggestion by its position.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			engine := nudge.NewEngine(eng.store, zap.NewNop())

			if useAI {
				api, err := newAPIClient(eng.cfg)
				if err != nil {
					return err
				}
				req := ai.NewSuggestRequest(eng.store.Summary(), time.Now().Hour())
				remote, err := api.Suggest(ctx, req)
				if err != nil {
					fmt.Printf("Remote suggestions unavailable: %v\n", err)
				} else {
					engine.SetRemote(remote)
				}
			}

			visible := engine.Visible(eng.store.Summary())
			if len(visible) == 0 {
				fmt.Println("No suggestions right now.")
				return nil
			}

			if dismiss != "" {
				n, err := pickNudge(visible, dismiss)
				if err != nil {
					return err
				}
				engine.Dismiss(n.ID)
				fmt.Printf("Dismissed: %s\n", n.Text)
				visible = engine.Visible(eng.store.Summary())
			}

			if apply > 0 {
				n, err := pickNudge(visible, fmt.Sprintf("%d", apply))
				if err != nil {
					return err
				}
				engine.Apply(*n)
				fmt.Printf("Applied: %s\n", n.Text)
				if target := engine.SplitTarget(); target != uuid.Nil {
					if t, ok := eng.store.Task(target); ok {
						fmt.Printf("Add subtasks to %q with 'todone add' flags or subtask tooling\n", t.Text)
					}
				}
				return nil
			}

			for i, n := range visible {
				marker := ""
				if n.AI {
					marker = " (ai)"
				}
				fmt.Printf("%d. %s%s\n", i+1, n.Text, marker)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useAI, "ai", false, "Ask the server for remote suggestions")
	cmd.Flags().IntVar(&apply, "apply", 0, "Apply the Nth suggestion")
	cmd.Flags().StringVar(&dismiss, "dismiss", "", "Dismiss the Nth suggestion")

	return cmd
}

func pickNudge(visible []models.Nudge, pos string) (*models.Nudge, error) {
	var n int
	if _, err := fmt.Sscanf(pos, "%d", &n); err != nil || n < 1 || n > len(visible) {
		return nil, fmt.Errorf("suggestion position must be 1-%d", len(visible))
	}
	return &visible[n-1], nil
}
