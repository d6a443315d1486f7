package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/todone/todone/cmd/todone/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "todone",
		Short: "Task list client for To Done",
		Long:  "CLI client driving the To Done task engine against the remote task table",
	}

	rootCmd.AddCommand(commands.NewAddCmd())
	rootCmd.AddCommand(commands.NewQuickCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewDoneCmd())
	rootCmd.AddCommand(commands.NewRmCmd())
	rootCmd.AddCommand(commands.NewScheduleCmd())
	rootCmd.AddCommand(commands.NewDeferCmd())
	rootCmd.AddCommand(commands.NewSubCmd())
	rootCmd.AddCommand(commands.NewMoveCmd())
	rootCmd.AddCommand(commands.NewDropCmd())
	rootCmd.AddCommand(commands.NewNudgesCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewSignupCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewResetPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
