package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/renderwell/farmpki/pkg/cert_handler/api"
	"github.com/renderwell/farmpki/pkg/config"
	"github.com/renderwell/farmpki/pkg/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const appName string = "cert-handler"

// CobraApp is the main application structure for the CLI
type CobraApp struct {
	rootCmd *cobra.Command
}

// NewCobraApp creates a new instance of the CLI application
func NewCobraApp() *CobraApp {
	app := &CobraApp{}
	app.rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Certificate lifecycle handler for the render farm control plane",
		Long:  `cert-handler evaluates certificate and PKCS#12 lifecycle events and keeps the resulting key material in the secret store.`,
	}

	// Add server command
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Run the certificate handler server",
		RunE:  app.runServer,
	}
	serverCmd.Flags().StringP("config", "c", "", "Path to the configuration file")
	serverCmd.MarkFlagRequired("config")
	serverCmd.MarkFlagFilename("config")
	app.rootCmd.AddCommand(serverCmd)

	// Add client command
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Client commands for interacting with the certificate handler",
	}
	clientCmd.PersistentFlags().StringP("server", "s", "", "Server address")
	clientCmd.MarkPersistentFlagRequired("server")
	app.rootCmd.AddCommand(clientCmd)

	sendCmd := &cobra.Command{
		Use:   "send [event-file]",
		Short: "Send a lifecycle event from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  app.runSend,
	}
	clientCmd.AddCommand(sendCmd)

	return app
}

func (app *CobraApp) Run() {
	if err := app.rootCmd.Execute(); err != nil {
		logrus.Errorf("failed to run command: %v", err)
		os.Exit(1)
	}
}

func (app *CobraApp) runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg := api.RestServerConfig{}
	if err := config.FromFile(configPath, &cfg); err != nil {
		logrus.Errorf("failed to load config: %v", err)
		return err
	}

	restServer, err := api.NewRestServerWithConfig(cfg)
	if err != nil {
		logrus.Errorf("failed to create rest server: %v", err)
		return err
	}

	logrus.Info("starting cert handler.")
	go func() {
		if err := restServer.Run(); err != nil {
			logrus.Errorf("failed to start cert handler: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server......")
	restServer.Close(context.Background())
	return nil
}

func (app *CobraApp) runSend(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")

	payload, err := os.ReadFile(args[0])
	if err != nil {
		logrus.Errorf("failed to read event file: %v", err)
		return err
	}

	client := NewRestClient(server)
	response, err := client.SendEvent(payload)
	if err != nil {
		logrus.Errorf("failed to send event: %v", err)
		return err
	}

	fmt.Println(util.StructToJSON(response))
	return nil
}
