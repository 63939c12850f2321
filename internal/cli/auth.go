package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/apiclient"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/authstore"
)

var errNotLoggedIn = errors.New("not logged in")

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("email is required (use --email)")
			}
			pass, err := resolvePassword(opts, cmd, password)
			if err != nil {
				return err
			}

			s, err := opts.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			user, loginErr := s.store.LoginUser(cmd.Context(), apiclient.Credentials{Email: email, Password: pass})
			if err := s.save(); err != nil {
				return err
			}
			if loginErr != nil {
				return fmt.Errorf("login failed: %w", loginErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", formatUser(user))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set OSNCTL_PASSWORD, prompts if omitted)")
	return cmd
}

func newRegisterCmd(opts *options) *cobra.Command {
	var name, email, password, confirmation string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" || email == "" {
				return errors.New("name and email are required (use --name and --email)")
			}
			pass, err := resolvePassword(opts, cmd, password)
			if err != nil {
				return err
			}
			confirm := confirmation
			if confirm == "" {
				confirm = pass
			}

			s, err := opts.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			user, regErr := s.store.RegisterUser(cmd.Context(), apiclient.RegisterRequest{
				Name:                 name,
				Email:                email,
				Password:             pass,
				PasswordConfirmation: confirm,
			})
			if err := s.save(); err != nil {
				return err
			}
			if regErr != nil {
				return fmt.Errorf("registration failed: %w", regErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", formatUser(user))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set OSNCTL_PASSWORD, prompts if omitted)")
	cmd.Flags().StringVar(&confirmation, "password-confirmation", "", "Password confirmation (defaults to --password)")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logoutErr := s.store.LogoutUser(cmd.Context())
			if err := s.save(); err != nil {
				return err
			}
			if logoutErr != nil {
				return fmt.Errorf("logout failed: %w", logoutErr)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Restore the session and print the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res := s.store.FetchUser(cmd.Context())
			if err := s.save(); err != nil {
				return err
			}

			switch res.Outcome {
			case authstore.FetchSucceeded:
				fmt.Fprintln(cmd.OutOrStdout(), formatUser(res.User))
				return nil
			case authstore.FetchUnauthenticated:
				return errNotLoggedIn
			default:
				return fmt.Errorf("restore session: %w", res.Err)
			}
		},
	}
}

// resolvePassword prefers the flag, then OSNCTL_PASSWORD, then a terminal
// prompt.
func resolvePassword(opts *options, cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := opts.v.GetString("password"); env != "" {
		return env, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password is required in non-interactive mode (use --password or OSNCTL_PASSWORD)")
	}
	return promptPassword(cmd.ErrOrStderr(), fd)
}

func promptPassword(out io.Writer, fd int) (string, error) {
	fmt.Fprint(out, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func formatUser(u *apiclient.User) string {
	if u == nil {
		return "(unknown user)"
	}
	return fmt.Sprintf("%s <%s> (id %d)", u.Name, u.Email, u.ID)
}
