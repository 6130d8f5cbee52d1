package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/logging"
)

func main() {
	root := &cobra.Command{
		Use:   "guestline",
		Short: "Terminal client for the guestline chat",
	}

	root.PersistentFlags().String("api", "http://localhost:8081", "api service address")
	root.PersistentFlags().String("gateway", "ws://localhost:8080", "gateway service address")
	root.PersistentFlags().String("log-level", "warn", "log level")
	viper.BindPFlag("client.api", root.PersistentFlags().Lookup("api"))
	viper.BindPFlag("client.gateway", root.PersistentFlags().Lookup("gateway"))
	viper.BindPFlag("client.log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(guestCmd())
	root.AddCommand(adminCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func clientLogger() *zap.SugaredLogger {
	logger, err := logging.New(viper.GetString("client.log_level"), "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	return logger
}
