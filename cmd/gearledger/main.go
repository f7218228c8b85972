// Command gearledger runs the multi-device sync subsystem: `serve` starts
// the authoritative sync server with its LAN broadcaster, `watch` discovers
// a server and follows its event stream.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debugFlag bool
	logger    log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gearledger",
	Short: "Shared ledger of scanned parts with LAN sync",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
		logger = log.WithPrefix(logger, "caller", log.DefaultCaller)
		if !debugFlag {
			logger = level.NewFilter(logger, level.AllowInfo())
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

func initConfig() {
	viper.SetConfigName("gearledger")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.gearledger")
	viper.AddConfigPath("/etc/gearledger/")

	initEnv()
	setDefaults()

	// A missing config file is fine: defaults plus env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// initEnv binds GEARLEDGER_* environment variables over the config keys.
// The replacer maps nested keys onto env names (http.port -> HTTP_PORT).
func initEnv() {
	viper.SetEnvPrefix("GEARLEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
