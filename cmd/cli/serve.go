package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/console"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web console",
	Long: `Serves the content site and your dashboard on localhost, signed in with
the same session as the command line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if host := trimmed(cmd, "host"); len(host) > 0 {
			cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}

		server, err := console.NewServer(application)
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if err := server.Start(ctx); err != nil {
			return err
		}

		fmt.Println(successStyle.Render("Console running at " + cfg.GetLocalServerURL()))
		fmt.Println("Press Ctrl+C to stop.")

		<-ctx.Done()

		logrus.Debugln("Interrupt received, stopping console")
		server.Stop()

		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "", "Address to listen on (default from config)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
