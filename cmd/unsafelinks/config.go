package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/unsafelinks/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and UNSAFELINKS_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → UNSAFELINKS_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		path, err := homedir.Expand(configFlag)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("unsafelinks")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/unsafelinks/")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/unsafelinks", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("UNSAFELINKS")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: warn for one-shot decode, info for service, debug for interactive service)")
	cmd.Flags().String("log-file", "", "write logs to this file, rotated at 10 MB (default: stderr)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// setupLogging reads logging flags from viper and configures slog. The
// returned func closes the log file, if any.
func setupLogging(v *viper.Viper, defaultLevel string) (func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}
	if path := v.GetString("log-file"); path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, err
		}
		w = f
		closeLog = func() { _ = f.Close() }
	}

	interactive := v.GetBool("no-background") || logging.IsTTY(w)
	resolveLogging(w, interactive, v.GetString("log-format"), v.GetString("log-level"), defaultLevel)
	return closeLog, nil
}
