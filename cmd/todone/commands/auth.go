package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/session"
)

func authProvider(cfg *CLIConfig) (session.Provider, error) {
	if cfg.AuthBaseURL == "" {
		return nil, fmt.Errorf("auth_base_url not set in config")
	}
	return session.NewGoTrueProvider(cfg.AuthBaseURL, cfg.AuthAPIKey, zap.NewNop()), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewLoginCmd creates the sign-in command.
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			provider, err := authProvider(cfg)
			if err != nil {
				return err
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			mgr := session.NewManager()
			mgr.Subscribe(func(s *session.Session) {
				cfg.setSession(s)
			})

			sess, err := provider.SignIn(context.Background(), args[0], password)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
			mgr.Set(sess)

			if err := cfg.save(); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", sess.Email)
			return nil
		},
	}
}

// NewSignupCmd creates the account registration command.
func NewSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <email>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			provider, err := authProvider(cfg)
			if err != nil {
				return err
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			sess, err := provider.SignUp(context.Background(), args[0], password)
			if err != nil {
				return fmt.Errorf("sign up failed: %w", err)
			}
			if sess == nil {
				fmt.Println("Account created. Check your email to confirm, then run 'todone login'.")
				return nil
			}

			cfg.setSession(sess)
			if err := cfg.save(); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", sess.Email)
			return nil
		},
	}
}

// NewLogoutCmd creates the sign-out command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}

			if sess := cfg.currentSession(); sess != nil {
				provider, err := authProvider(cfg)
				if err == nil {
					if err := provider.SignOut(context.Background(), sess.AccessToken); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: remote sign out failed: %v\n", err)
					}
				}
			}

			cfg.setSession(nil)
			if err := cfg.save(); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

// NewResetPasswordCmd creates the password recovery command.
func NewResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Send a password recovery email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			provider, err := authProvider(cfg)
			if err != nil {
				return err
			}

			if err := provider.ResetPassword(context.Background(), args[0]); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			fmt.Printf("Recovery email sent to %s\n", args[0])
			return nil
		},
	}
}
