// unsafelinks: decode Microsoft SafeLinks back to the original URL.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/unsafelinks/internal/clip"
	"go.klb.dev/unsafelinks/internal/logging"
	"go.klb.dev/unsafelinks/internal/safelink"
	"go.klb.dev/unsafelinks/internal/watch"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

// newBackend opens the system clipboard. Tests replace it.
var newBackend = clip.New

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "unsafelinks [flags] [URL]",
		Short: "Decode Microsoft SafeLinks URLs to their original form",
		Long: `unsafelinks decodes Microsoft SafeLinks URLs to their original form.

With a URL argument, that URL is decoded. Without one, the current clipboard
content is decoded. On success the original URL is printed and copied to the
clipboard.

With --service the clipboard is watched and every SafeLink copied to it is
replaced with the original URL until interrupted.

Config file search order (first found wins):
  /etc/unsafelinks/unsafelinks.toml
  $HOME/.config/unsafelinks/unsafelinks.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → UNSAFELINKS_* env vars → flags`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PreRunE:      func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:         func(cmd *cobra.Command, args []string) error { return runRoot(cmd, v, args) },
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	// Unknown flags print usage rather than an error.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, _ error) error {
		return c.Help()
	})

	f := cmd.Flags()
	f.Bool("service", false, "watch the clipboard and automatically replace SafeLinks with the original URL")
	f.Duration("interval", watch.DefaultInterval, "clipboard poll interval in service mode")
	f.StringSlice("prefix", nil, "SafeLinks prefix or host to recognise in service mode (repeatable; default: gbr01, eur01, nam02)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "unsafelinks %s\n", Version)
		},
	}
}

func runRoot(cmd *cobra.Command, v *viper.Viper, args []string) error {
	if len(args) > 0 && (args[0] == "/?" || strings.HasPrefix(args[0], "-")) {
		return cmd.Help()
	}

	service := v.GetBool("service")
	defaultLevel := "warn"
	if service {
		defaultLevel = ""
	}
	closeLog, err := setupLogging(v, defaultLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	if service {
		return runService(cmd, v)
	}
	var input string
	if len(args) > 0 {
		input = args[0]
	}
	return runDecode(cmd, input)
}

// resolveLogging sets up the global slog logger after flags are parsed.
// An empty defaultLevel means debug when interactive and info otherwise.
func resolveLogging(w io.Writer, interactive bool, formatStr, levelStr, defaultLevel string) {
	format := logging.ParseFormat(formatStr)
	if levelStr == "" {
		levelStr = defaultLevel
	}
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = slog.LevelDebug
		} else {
			level = slog.LevelInfo
		}
	}
	logging.Setup(w, format, level)
}

// matcherFrom builds the SafeLinks matcher from the "prefix" setting.
func matcherFrom(v *viper.Viper) *safelink.Matcher {
	return safelink.NewMatcher(v.GetStringSlice("prefix"))
}
