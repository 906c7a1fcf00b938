package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/version"
)

var logger *logging.Logger

func initLogger(level, file string) error {
	logConfig := &logging.LogConfig{
		Level:      level,
		File:       file,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}

	if err := logging.InitLogger(logConfig); err != nil {
		return err
	}

	logger = logging.GetGlobalLogger()
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "freightbridge",
	Short: "FreightBridge contact service",
	Long: `FreightBridge serves the website contact form: it validates and sanitizes
submissions, enforces the per-visitor submission limit and CSRF tokens, and
forwards accepted messages to the configured destination.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
