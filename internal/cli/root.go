package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	port       string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Quiz calibration analysis toolkit",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port for serve mode")
	cmd.AddCommand(NewAnalyzeCmd(&configPath))
	cmd.AddCommand(NewServeCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
