package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inkpress/desk/internal/app"
	"github.com/inkpress/desk/internal/config"
	"github.com/inkpress/desk/internal/router"
)

// routeAnnotation names the route a command stands for. The guard applies
// that route's access rules before the command runs.
const routeAnnotation = "route"

var (
	ErrLoginRequired = errors.New("login required")

	// errAlreadySignedIn stops guest-only commands for a signed-in author.
	// It is not a failure.
	errAlreadySignedIn = errors.New("already signed in")
)

// Global configuration and application instances
var cfg *config.Config
var application *app.App

// newApplication builds the application for a command run
var newApplication = app.New

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Get the api endpoint override from the flag
	endpoint, err := cmd.Flags().GetString("api-endpoint")
	if err == nil && len(endpoint) > 0 {
		if err := cfg.SetAPIEndpoint(endpoint); err != nil {
			return fmt.Errorf("failed to set api endpoint: %w", err)
		}
	}

	application, err = newApplication(cfg)
	if err != nil {
		return err
	}

	return guardCommand(cmd)
}

// guardCommand runs the navigation guard for the route a command is
// annotated with. Commands without a route are always allowed.
func guardCommand(cmd *cobra.Command) error {
	name, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return nil
	}

	decision, err := checkRoute(cmd, name)
	if err != nil {
		return err
	}

	switch decision.Outcome {
	case router.Allow:
		return nil

	case router.RedirectLogin:
		logrus.WithFields(logrus.Fields{
			"command": cmd.CommandPath(),
			"target":  decision.Target,
		}).Debugln("Command requires a session")

		if err := promptAndLogin(cmd); err != nil {
			return err
		}

		// The session changed, check again
		decision, err = checkRoute(cmd, name)
		if err != nil {
			return err
		}
		if decision.Outcome != router.Allow {
			return ErrLoginRequired
		}
		return nil

	default:
		state := application.Session.State()
		fmt.Println(infoStyle.Render(fmt.Sprintf("Already signed in as %s.", state.Identity.GetName())))
		fmt.Println("Run 'desk logout' first to switch accounts.")
		return errAlreadySignedIn
	}
}

func checkRoute(cmd *cobra.Command, name string) (router.Decision, error) {
	table := application.Router.Table()

	meta, ok := table.Meta(name)
	if !ok {
		logrus.WithField("route", name).Fatalln("Route missing from table")
	}

	fullPath, err := table.PathFor(name, nil)
	if err != nil {
		// Parameterised routes are checked by pattern
		fullPath, _ = table.Pattern(name)
	}

	return application.Router.Guard().Check(cmd.Context(), &router.Match{
		Name:     name,
		Meta:     meta,
		FullPath: fullPath,
	})
}

func postRunE(_ *cobra.Command, _ []string) error {
	return closeApplication()
}

// closeApplication releases the storage of the current application. cobra
// skips post-run hooks when a pre-run hook fails, so Execute calls it too.
func closeApplication() error {
	if application == nil {
		return nil
	}
	err := application.Close()
	application = nil
	return err
}

var rootCmd = &cobra.Command{
	Use:   "desk",
	Short: "Desk - Author tools for an Inkpress content site",
	Long: `Desk signs you in to an Inkpress content site and lets you read and manage
posts, categories, tags and comments from the terminal or a local web console.

Your session is kept between runs. Commands that need a session will offer to
sign you in first.`,
	SilenceErrors:      true,
	SilenceUsage:       true,
	PersistentPreRunE:  preRunConfigE,
	PersistentPostRunE: postRunE,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ~/.config/inkpress/config.yaml)")
	rootCmd.PersistentFlags().String("api-endpoint", "", "Override the content API endpoint (e.g., http://localhost:8080)")
	rootCmd.PersistentFlags().StringP("output", "o", outputText, "Output format: text, json or yaml")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}

// Execute runs the command line and reports any failure on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := closeApplication(); closeErr != nil {
		logrus.WithError(closeErr).Warnln("Failed to close credential storage")
	}

	if err == nil || errors.Is(err, errAlreadySignedIn) {
		return nil
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
	return err
}
