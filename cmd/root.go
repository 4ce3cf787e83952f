/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"os"

	arduino "github.com/allbin/go-arduino"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arduino",
	Short: "Discover and talk to an attached Arduino-class device",
	Long: `A command line tool for Arduino-class serial devices.

The tool discovers a single attached board by its USB vendor ID, manages
the serial connection, and provides line-oriented communication. Discovery
accepts the canonical Arduino vendors (Arduino SA, Arduino.org, SparkFun)
out of the box; additional vendors can be whitelisted with --vendor.

Examples:
  arduino discover              # Show attached devices and the resolution result
  arduino status                # Show what the adapter would bind to
  arduino connect               # Interactive terminal session
  arduino send "PING"           # One-shot send
  arduino watch                 # Stream adapter events
  sudo arduino reset            # USB-level reset of the resolved device`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.arduino.yaml)")
	rootCmd.PersistentFlags().IntP("baud", "b", 9600, "Baud rate (default: 9600)")
	rootCmd.PersistentFlags().StringSlice("vendor", nil, "Extra USB vendor IDs to whitelist (hex, e.g. 1A86)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging to stderr")

	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("vendors", rootCmd.PersistentFlags().Lookup("vendor"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".arduino" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".arduino")
	}

	viper.SetEnvPrefix("arduino")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			logger := newLogger()
			logger.Debug().Str("config", viper.ConfigFileUsed()).Msg("using config file")
		}
	}
}

func newLogger() zerolog.Logger {
	if !viper.GetBool("verbose") {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()
}

// newAdapter builds an adapter from the persistent flags and config file.
func newAdapter() (*arduino.Adapter, error) {
	opts := []arduino.Option{
		arduino.WithBaudRate(viper.GetInt("baud")),
		arduino.WithLogger(newLogger()),
	}
	if vendors := viper.GetStringSlice("vendors"); len(vendors) > 0 {
		opts = append(opts, arduino.WithVendorIDs(vendors...))
	}
	return arduino.New(opts...)
}
