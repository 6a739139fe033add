package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
)

// isInteractive reports whether both stdin and stdout are terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// promptAndLogin asks the user to sign in so the command can continue.
func promptAndLogin(cmd *cobra.Command) error {
	if !isInteractive() {
		return fmt.Errorf("%w: run 'desk login' first", ErrLoginRequired)
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Authentication Required"))
	fmt.Printf("'%s' needs an active session.\n", cmd.CommandPath())
	fmt.Println()

	var shouldLogin bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Would you like to login now?").
				Description(fmt.Sprintf("Sign in to %s", cfg.GetAPIEndpoint())).
				Value(&shouldLogin),
		),
	)

	err := form.Run()
	if err != nil {
		return fmt.Errorf("login prompt cancelled: %w", err)
	}

	if !shouldLogin {
		return fmt.Errorf("%w: login was declined", ErrLoginRequired)
	}

	username, password, err := promptCredentials("")
	if err != nil {
		return err
	}

	return loginWith(cmd.Context(), username, password)
}

// promptCredentials asks for whichever of username and password is missing.
func promptCredentials(username string) (string, string, error) {
	var password string

	var fields []huh.Field
	if len(username) == 0 {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(required("username")))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Validate(required("password")))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", "", fmt.Errorf("login prompt cancelled: %w", err)
	}

	return strings.TrimSpace(username), password, nil
}

// promptRegistration fills the fields of req that were not given as flags.
func promptRegistration(req *models.RegisterRequest) error {
	var confirm string

	fields := []huh.Field{
		huh.NewInput().
			Title("Username").
			Value(&req.Username).
			Validate(required("username")),
		huh.NewInput().
			Title("Display name").
			Value(&req.DisplayName),
		huh.NewInput().
			Title("Email").
			Value(&req.Email).
			Validate(func(s string) error {
				if len(s) > 0 && !common.IsValidEmail(s) {
					return fmt.Errorf("email address is not valid")
				}
				return nil
			}),
	}

	if len(req.Password) == 0 {
		fields = append(fields,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&req.Password).
				Validate(required("password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != req.Password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("registration prompt cancelled: %w", err)
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if len(strings.TrimSpace(s)) == 0 {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// loginWith signs in and reports the outcome.
func loginWith(ctx context.Context, username string, password string) error {
	err := runWithSpinner(ctx, "Signing in...", func(ctx context.Context) error {
		_, err := application.Session.Login(ctx, username, password)
		return err
	})
	if err != nil {
		// Show the generic message rather than the transport error
		if message := application.Session.State().LastError; len(message) > 0 {
			return errors.New(message)
		}
		return err
	}

	state := application.Session.State()

	fmt.Println()
	fmt.Println(successStyle.Render("Login successful!"))
	fmt.Printf("Signed in as %s\n", state.Identity.GetName())
	fmt.Println()

	return nil
}
