package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/logging"
	"github.com/muurk/lmsadmin/internal/ui"
)

var (
	loginEmail string

	// readPasswordFunc reads a password without echo. Replaced in tests.
	readPasswordFunc = term.ReadPassword
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when omitted)")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the LMS backend",
	Long: `Sign in with an email and password.

The password is read from the terminal without echo, or from the
LMSADMIN_PASSWORD environment variable when stdin is not a terminal.
The access and refresh tokens and your profile are stored in the
session file next to the config.`,
	Example: `  # Prompt for both email and password
  lmsadmin login

  # Pass the email, prompt for the password
  lmsadmin login --email admin@example.com`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email := strings.TrimSpace(loginEmail)
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := readPassword(out)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	user, err := svc.Auth.Login(cmd.Context(), email, password)
	if err != nil {
		return withHint(fmt.Errorf("login failed: %w", err))
	}

	ui.NewPrinter(out).PrintSuccess("Signed in", map[string]string{
		"User":    user.FullName(),
		"Email":   user.Email,
		"Role":    user.Role,
		"Backend": settings.BaseURL,
	})
	return nil
}

func readPassword(out io.Writer) (string, error) {
	if pw := os.Getenv("LMSADMIN_PASSWORD"); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for the password prompt: set LMSADMIN_PASSWORD")
	}

	fmt.Fprint(out, "Password: ")
	pw, err := readPasswordFunc(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and delete the stored session",
	Long: `Sign out of the backend and delete the local session file.

The refresh token is blacklisted on the backend when it is reachable; the
local session is removed either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !store.Get().Authenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if err := svc.Auth.Logout(cmd.Context()); err != nil {
			ui.NewPrinter(cmd.ErrOrStderr()).PrintWarning("Signed out locally",
				fmt.Sprintf("Backend logout failed: %s", apiclient.GetShortErrorMessage(err)),
				"The local session was removed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show the signed-in user's profile.

The profile is fetched from the backend, which also checks that the session
is still valid.`,
	Example: `  lmsadmin whoami
  lmsadmin whoami --format json`,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	profile, err := svc.Auth.Profile(cmd.Context())
	if err != nil {
		return withHint(fmt.Errorf("failed to load profile: %w", err))
	}

	// Keep the cached user in step with the backend.
	sess := store.Get()
	sess.User = api.ToUserInfo(profile)
	if err := store.Set(sess); err != nil {
		logging.Warn("failed to update cached user", zap.Error(err))
	}
	return printUser(cmd.OutOrStdout(), profile, sess.IsSuperAdmin())
}

func printUser(w io.Writer, u api.User, superAdmin bool) error {
	switch outputFormat {
	case "json":
		return printJSON(w, u)
	case "compact":
		fmt.Fprintln(w, u.Summary())
	default:
		fmt.Fprintf(w, "Name:     %s\n", u.FullName())
		fmt.Fprintf(w, "Email:    %s\n", u.Email)
		fmt.Fprintf(w, "Username: %s\n", u.Username)
		fmt.Fprintf(w, "Role:     %s\n", u.Role)
		if superAdmin {
			fmt.Fprintln(w, "Access:   super admin")
		}
		fmt.Fprintf(w, "Backend:  %s\n", settings.BaseURL)
	}
	return nil
}
