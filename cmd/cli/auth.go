package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
	"github.com/inkpress/desk/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the content site",
	Long: `Exchanges a username and password for a session. The session is kept
between runs until you log out or the site stops accepting it.`,
	Annotations: map[string]string{routeAnnotation: router.RouteLogin},
	RunE:        runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	if len(username) == 0 || len(password) == 0 {
		if !isInteractive() {
			return fmt.Errorf("--username and --password are required without a terminal")
		}

		var err error
		username, password, err = promptCredentials(username)
		if err != nil {
			return err
		}
	}

	return loginWith(cmd.Context(), username, password)
}

var registerCmd = &cobra.Command{
	Use:         "register",
	Short:       "Create an account and sign in with it",
	Annotations: map[string]string{routeAnnotation: router.RouteRegister},
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.RegisterRequest{}
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")
		req.Email, _ = cmd.Flags().GetString("email")
		req.DisplayName, _ = cmd.Flags().GetString("display-name")

		if len(req.Username) == 0 || len(req.Password) == 0 {
			if !isInteractive() {
				return fmt.Errorf("--username and --password are required without a terminal")
			}
			if err := promptRegistration(&req); err != nil {
				return err
			}
		}

		if len(req.Email) > 0 && !common.IsValidEmail(req.Email) {
			return fmt.Errorf("email address %q is not valid", req.Email)
		}

		err := runWithSpinner(cmd.Context(), "Creating account...", func(ctx context.Context) error {
			_, err := application.Session.Register(ctx, req)
			return err
		})
		if err != nil {
			if message := application.Session.State().LastError; len(message) > 0 {
				return errors.New(message)
			}
			return err
		}

		fmt.Println()
		fmt.Println(successStyle.Render("Account created!"))
		fmt.Printf("Signed in as %s\n", application.Session.State().Identity.GetName())
		fmt.Println()

		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		application.Initialize(cmd.Context())

		if !application.Session.Authenticated() {
			fmt.Println(warningStyle.Render("You are not signed in."))
			return nil
		}

		application.Session.Logout()

		fmt.Println(successStyle.Render("Logged out."))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in author",
	RunE: func(cmd *cobra.Command, args []string) error {
		application.Initialize(cmd.Context())

		refresh, _ := cmd.Flags().GetBool("refresh")
		if refresh {
			application.Session.RefreshProfile(cmd.Context())
		}

		state := application.Session.State()

		return render(cmd, newWhoami(state), func() {
			if !state.Authenticated() {
				fmt.Println(warningStyle.Render("Not signed in."))
				fmt.Println("Run 'desk login' to sign in.")
				return
			}

			user := state.Identity
			fmt.Println(headerStyle.Render(user.GetName()))
			fmt.Printf("  Username: %s\n", user.Username)
			if len(user.Email) > 0 {
				fmt.Printf("  Email:    %s\n", user.Email)
			}
			fmt.Printf("  Site:     %s\n", cfg.GetAPIEndpoint())

			if expiry, ok := session.CredentialExpiry(state.Credential); ok {
				if remaining := time.Until(expiry); remaining > 0 {
					fmt.Printf("  Session:  %s (%s left)\n",
						activeStyle.Render("active"), formatDuration(remaining))
				} else {
					fmt.Printf("  Session:  %s\n", expiredStyle.Render("expired"))
				}
			}
		})
	},
}

type whoami struct {
	Authenticated bool         `json:"authenticated" yaml:"authenticated"`
	Site          string       `json:"site" yaml:"site"`
	User          *models.User `json:"user,omitempty" yaml:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

func newWhoami(state session.State) whoami {
	result := whoami{
		Authenticated: state.Authenticated(),
		Site:          cfg.GetAPIEndpoint(),
		User:          state.Identity,
	}
	if expiry, ok := session.CredentialExpiry(state.Credential); ok {
		result.ExpiresAt = &expiry
	}
	return result
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Username")
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	registerCmd.Flags().StringP("username", "u", "", "Username")
	registerCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("display-name", "", "Name shown on your posts")

	whoamiCmd.Flags().Bool("refresh", false, "Refetch the profile from the site")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// trimmed returns the flag value with surrounding space removed.
func trimmed(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(value)
}
